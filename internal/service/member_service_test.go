package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/doriangym/contratos-backend/internal/artifact"
	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/service"
	"github.com/doriangym/contratos-backend/internal/storage"
	"github.com/doriangym/contratos-backend/pkg/auth"
	"github.com/doriangym/contratos-backend/pkg/config"
	"github.com/doriangym/contratos-backend/pkg/events"
)

// ---------- Mocks ----------

type mockMemberRepo struct {
	nextID  int64
	members map[int64]*domain.Member

	createErr error
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		nextID:  1,
		members: make(map[int64]*domain.Member),
	}
}

func (m *mockMemberRepo) Create(_ context.Context, member *domain.Member) (*domain.Member, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, existing := range m.members {
		if existing.Cedula == member.Cedula || existing.Correo == member.Correo {
			return nil, domain.ErrConflict
		}
	}
	stored := *member
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.nextID++
	m.members[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id int64) (*domain.Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	out := *member
	return &out, nil
}

func (m *mockMemberRepo) GetByCedula(_ context.Context, cedula string) (*domain.Member, error) {
	for _, member := range m.members {
		if member.Cedula == cedula {
			out := *member
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockMemberRepo) List(_ context.Context, limit, offset int) ([]domain.Member, error) {
	var members []domain.Member
	for _, member := range m.members {
		members = append(members, *member)
	}
	return members, nil
}

func (m *mockMemberRepo) Update(_ context.Context, id int64, member *domain.Member) (*domain.Member, error) {
	existing, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	updated := *member
	updated.ID = id
	updated.Cedula = existing.Cedula
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	m.members[id] = &updated

	out := updated
	return &out, nil
}

func (m *mockMemberRepo) UpdateEstado(_ context.Context, id int64, estado domain.Status) (*domain.Member, error) {
	existing, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	existing.Estado = estado
	existing.UpdatedAt = time.Now()

	out := *existing
	return &out, nil
}

func (m *mockMemberRepo) UpdateQRCode(_ context.Context, id int64, qrCode string) error {
	existing, ok := m.members[id]
	if !ok {
		return domain.ErrNotFound
	}
	existing.QRCode = qrCode
	return nil
}

func (m *mockMemberRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.members, id)
	return nil
}

type mockMailer struct {
	sent            int
	lastTo          string
	lastContractURL string
	sendErr         error
}

func (m *mockMailer) SendWelcomeEmail(toEmail, toName, plan, contractURL string) error {
	m.sent++
	m.lastTo = toEmail
	m.lastContractURL = contractURL
	return m.sendErr
}

// ---------- Fixtures ----------

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.PublicBaseURL = "http://localhost:5500"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.QRTokenSecret = "test-qr-secret"
	cfg.Auth.AccessTokenTTL = time.Hour
	cfg.Auth.QRTokenTTL = 10 * time.Minute
	cfg.Auth.ContractLinkTTL = 72 * time.Hour
	cfg.Storage.AssetsDir = "assets"
	return cfg
}

type fixture struct {
	svc   service.MemberService
	repo  *mockMemberRepo
	blobs *storage.BlobStore
	mail  *mockMailer
	cfg   *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewBlobStore(filepath.Join(dir, "signatures"), filepath.Join(dir, "photos"))
	if err != nil {
		t.Fatalf("NewBlobStore() error = %v", err)
	}

	repo := newMockMemberRepo()
	mail := &mockMailer{}
	cfg := testConfig()
	contracts := artifact.NewContractGenerator(dir)

	return &fixture{
		svc:   service.NewMemberService(repo, blobs, contracts, events.NoopPublisher{}, mail, cfg),
		repo:  repo,
		blobs: blobs,
		mail:  mail,
		cfg:   cfg,
	}
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func jpegDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func registerRequest(t *testing.T) *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Nombre:    "Maria",
		Apellido:  "Lopez",
		Cedula:    "1712345678",
		Plan:      "Plan Mensual",
		Direccion: "Av. Amazonas 123",
		Telefono:  "0991234567",
		Correo:    "maria@example.com",
		Sucursal:  "Norte",
		Firma:     pngDataURL(t),
		Foto:      jpegDataURL(t),
	}
}

// ---------- Tests ----------

func TestRegisterDerivesLifecycleFields(t *testing.T) {
	f := newFixture(t)

	before := time.Now()
	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if member.Estado != domain.StatusActivo {
		t.Errorf("Estado = %v, want activo", member.Estado)
	}

	wantExp, _ := domain.ComputeExpiration(member.FechaInscripcion, domain.PlanMensual)
	if !member.FechaExpiracion.Equal(wantExp) {
		t.Errorf("FechaExpiracion = %v, want %v", member.FechaExpiracion, wantExp)
	}
	if member.FechaInscripcion.Before(before) {
		t.Errorf("FechaInscripcion = %v predates the request", member.FechaInscripcion)
	}

	if !strings.HasPrefix(member.QRCode, "data:image/png;base64,") {
		t.Errorf("QRCode = %q, want data URL", member.QRCode[:min(len(member.QRCode), 30)])
	}
	stored, _ := f.repo.GetByID(context.Background(), member.ID)
	if stored.QRCode != member.QRCode {
		t.Error("QR code not persisted")
	}

	if _, err := f.blobs.ReadSignature(member.Cedula); err != nil {
		t.Errorf("signature not stored: %v", err)
	}
	if _, err := f.blobs.ReadPhoto(member.Cedula); err != nil {
		t.Errorf("photo not stored: %v", err)
	}

	if f.mail.sent != 1 || f.mail.lastTo != "maria@example.com" {
		t.Errorf("welcome email sent=%d to=%q", f.mail.sent, f.mail.lastTo)
	}
}

func TestRegisterEmailsTokenedContractLink(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	parsed, err := url.Parse(f.mail.lastContractURL)
	if err != nil {
		t.Fatalf("contract URL does not parse: %v", err)
	}
	wantPath := fmt.Sprintf("/member/%d/contract", member.ID)
	if parsed.Path != wantPath {
		t.Errorf("contract URL path = %q, want %q", parsed.Path, wantPath)
	}

	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatal("contract URL missing token parameter")
	}
	claims, err := auth.Parse(token, f.cfg.Auth.QRTokenSecret)
	if err != nil {
		t.Fatalf("contract token does not verify: %v", err)
	}
	if claims.Role != "qr-view" || claims.Sub != member.ID {
		t.Errorf("claims = role %q sub %d", claims.Role, claims.Sub)
	}
}

func TestRegisterTraversalCedulaRejected(t *testing.T) {
	f := newFixture(t)

	req := registerRequest(t)
	req.Cedula = "../../escaped"

	if _, err := f.svc.Register(context.Background(), req); err == nil {
		t.Fatal("Register() accepted traversal cedula")
	}
	if len(f.repo.members) != 0 {
		t.Error("member row created for traversal cedula")
	}
	if f.mail.sent != 0 {
		t.Error("welcome email sent for traversal cedula")
	}
}

func TestRegisterInvalidPlanWritesNothing(t *testing.T) {
	f := newFixture(t)

	req := registerRequest(t)
	req.Plan = "Plan Diario"

	if _, err := f.svc.Register(context.Background(), req); !errors.Is(err, domain.ErrInvalidPlan) {
		t.Fatalf("Register() error = %v, want ErrInvalidPlan", err)
	}

	if len(f.repo.members) != 0 {
		t.Error("member row created for invalid plan")
	}
	if _, err := f.blobs.ReadSignature(req.Cedula); !errors.Is(err, domain.ErrMissingArtifact) {
		t.Error("blob written for invalid plan")
	}
	if f.mail.sent != 0 {
		t.Error("welcome email sent for invalid plan")
	}
}

func TestRegisterDuplicateCedulaKeepsExistingBlobs(t *testing.T) {
	f := newFixture(t)

	first := registerRequest(t)
	if _, err := f.svc.Register(context.Background(), first); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	firma, _ := f.blobs.ReadSignature(first.Cedula)

	second := registerRequest(t)
	second.Correo = "otra@example.com"
	if _, err := f.svc.Register(context.Background(), second); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}

	after, _ := f.blobs.ReadSignature(first.Cedula)
	if !bytes.Equal(firma, after) {
		t.Error("rejected submit overwrote existing signature")
	}
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	inscripcion := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(context.Background(), member.ID, &domain.UpdateRequest{
		Nombre:           "Maria",
		Apellido:         "Lopez",
		Plan:             "Plan Anual",
		FechaInscripcion: inscripcion,
		Telefono:         "0991234567",
		Correo:           "maria@example.com",
		Sucursal:         "Norte",
		Direccion:        "Av. Amazonas 123",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	wantExp := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	if !updated.FechaExpiracion.Equal(wantExp) {
		t.Errorf("FechaExpiracion = %v, want %v", updated.FechaExpiracion, wantExp)
	}
	// Backdated anual plan already expired relative to the clock
	if updated.Estado != domain.StatusInactivo {
		t.Errorf("Estado = %v, want inactivo for expired backdated plan", updated.Estado)
	}
	if updated.QRCode == "" {
		t.Error("QR code dropped on update")
	}
}

func TestUpdateMissingMember(t *testing.T) {
	f := newFixture(t)

	updated, err := f.svc.Update(context.Background(), 999, &domain.UpdateRequest{
		Nombre:           "Maria",
		Apellido:         "Lopez",
		Plan:             "Plan Mensual",
		FechaInscripcion: time.Now(),
		Telefono:         "0991234567",
		Correo:           "maria@example.com",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated != nil {
		t.Error("Update() returned member for missing id")
	}
}

func TestUpdateEstadoTouchesStatusOnly(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	toggled, err := f.svc.UpdateEstado(context.Background(), member.ID, "inactivo")
	if err != nil {
		t.Fatalf("UpdateEstado() error = %v", err)
	}
	if toggled.Estado != domain.StatusInactivo {
		t.Errorf("Estado = %v, want inactivo", toggled.Estado)
	}
	if !toggled.FechaExpiracion.Equal(member.FechaExpiracion) {
		t.Error("toggle changed expiration")
	}
	if toggled.QRCode != member.QRCode {
		t.Error("toggle changed QR code")
	}

	back, err := f.svc.UpdateEstado(context.Background(), member.ID, "activo")
	if err != nil {
		t.Fatalf("UpdateEstado() error = %v", err)
	}
	if back.Estado != domain.StatusActivo {
		t.Errorf("Estado = %v, want activo after second toggle", back.Estado)
	}
	if !back.FechaExpiracion.Equal(member.FechaExpiracion) {
		t.Error("double toggle changed expiration")
	}
}

func TestUpdateEstadoRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.UpdateEstado(context.Background(), 1, "suspendido"); err == nil {
		t.Error("UpdateEstado() accepted unknown status")
	}
}

func TestDeleteRemovesBlobs(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := f.svc.Delete(context.Background(), member.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if got, _ := f.repo.GetByID(context.Background(), member.ID); got != nil {
		t.Error("member row still present after delete")
	}
	if _, err := f.blobs.ReadSignature(member.Cedula); !errors.Is(err, domain.ErrMissingArtifact) {
		t.Error("signature still present after delete")
	}
}

func TestDeleteMissingMember(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Delete(context.Background(), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestContract(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	pdf, got, err := f.svc.Contract(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("Contract() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("Contract() output is not a PDF")
	}
	if got.Cedula != member.Cedula {
		t.Errorf("Contract() member cedula = %q", got.Cedula)
	}
}

func TestContractMissingPhoto(t *testing.T) {
	f := newFixture(t)

	req := registerRequest(t)
	req.Foto = ""
	member, err := f.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, _, err := f.svc.Contract(context.Background(), member.ID); !errors.Is(err, domain.ErrMissingArtifact) {
		t.Errorf("Contract() error = %v, want ErrMissingArtifact", err)
	}
}

func TestStatusImage(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	asset, err := f.svc.StatusImage(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("StatusImage() error = %v", err)
	}
	if filepath.Base(asset) != "aprobado.jpg" {
		t.Errorf("StatusImage() = %q, want aprobado.jpg", asset)
	}

	// A stored activo gone stale past expiry must not show aprobado
	f.repo.members[member.ID].FechaExpiracion = time.Now().Add(-time.Hour)
	asset, err = f.svc.StatusImage(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("StatusImage() error = %v", err)
	}
	if filepath.Base(asset) != "caducado.jpg" {
		t.Errorf("StatusImage() = %q, want caducado.jpg for expired member", asset)
	}
}

func TestStatusImageExplicitInactivoWins(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := f.svc.UpdateEstado(context.Background(), member.ID, "inactivo"); err != nil {
		t.Fatalf("UpdateEstado() error = %v", err)
	}

	// Expiration is still in the future, the explicit toggle must win
	asset, err := f.svc.StatusImage(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("StatusImage() error = %v", err)
	}
	if filepath.Base(asset) != "caducado.jpg" {
		t.Errorf("StatusImage() = %q, want caducado.jpg for toggled member", asset)
	}
}

func TestViewURL(t *testing.T) {
	f := newFixture(t)

	member, err := f.svc.Register(context.Background(), registerRequest(t))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	viewURL, err := f.svc.ViewURL(context.Background(), member.ID)
	if err != nil {
		t.Fatalf("ViewURL() error = %v", err)
	}

	parsed, err := url.Parse(viewURL)
	if err != nil {
		t.Fatalf("ViewURL() is not a URL: %v", err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatal("ViewURL() missing token parameter")
	}

	claims, err := auth.Parse(token, f.cfg.Auth.QRTokenSecret)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Role != "qr-view" || claims.Sub != member.ID {
		t.Errorf("claims = role %q sub %d", claims.Role, claims.Sub)
	}

	// The view token must not verify under the admin secret
	if _, err := auth.Parse(token, f.cfg.Auth.JWTSecret); err == nil {
		t.Error("view token verified with admin secret")
	}
}
