package service

import (
	"context"
	"fmt"
	"time"

	"github.com/doriangym/contratos-backend/internal/artifact"
	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/mailer"
	"github.com/doriangym/contratos-backend/internal/repo/postgres"
	"github.com/doriangym/contratos-backend/internal/storage"
	"github.com/doriangym/contratos-backend/pkg/auth"
	"github.com/doriangym/contratos-backend/pkg/config"
	"github.com/doriangym/contratos-backend/pkg/events"
	"github.com/doriangym/contratos-backend/pkg/logger"
)

type MemberService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Member, error)
	Get(ctx context.Context, id int64) (*domain.Member, error)
	List(ctx context.Context, limit, offset int) ([]domain.Member, error)
	Update(ctx context.Context, id int64, req *domain.UpdateRequest) (*domain.Member, error)
	UpdateEstado(ctx context.Context, id int64, estado string) (*domain.Member, error)
	Delete(ctx context.Context, id int64) error
	Contract(ctx context.Context, id int64) ([]byte, *domain.Member, error)
	QRImage(ctx context.Context, id int64) ([]byte, error)
	StatusImage(ctx context.Context, id int64) (string, error)
	ViewURL(ctx context.Context, id int64) (string, error)
}

type memberService struct {
	memberRepo postgres.MemberRepo
	blobs      *storage.BlobStore
	contracts  *artifact.ContractGenerator
	bus        events.Publisher
	mail       mailer.Service
	config     *config.Config
}

func NewMemberService(
	memberRepo postgres.MemberRepo,
	blobs *storage.BlobStore,
	contracts *artifact.ContractGenerator,
	bus events.Publisher,
	mail mailer.Service,
	cfg *config.Config,
) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		blobs:      blobs,
		contracts:  contracts,
		bus:        bus,
		mail:       mail,
		config:     cfg,
	}
}

func (s *memberService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Member, error) {
	// Validation happens before any write: an invalid plan must leave no
	// member row and no blob files behind.
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan, _ := domain.ParsePlan(req.Plan)
	inscripcion := time.Now()
	expiracion, err := domain.ComputeExpiration(inscripcion, plan)
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		Nombre:           req.Nombre,
		Apellido:         req.Apellido,
		Cedula:           req.Cedula,
		Plan:             plan,
		FechaInscripcion: inscripcion,
		FechaExpiracion:  expiracion,
		Direccion:        req.Direccion,
		Telefono:         req.Telefono,
		Correo:           req.Correo,
		Sucursal:         req.Sucursal,
		Estado:           domain.DeriveStatus(expiracion, time.Now()),
	}

	created, err := s.memberRepo.Create(ctx, member)
	if err != nil {
		return nil, err
	}

	// Blobs are written only after the row exists, so a duplicate cedula
	// cannot overwrite another member's signature on a rejected submit.
	if err := s.blobs.Save(created.Cedula, req.Firma, req.Foto); err != nil {
		return nil, fmt.Errorf("failed to store member images: %w", err)
	}

	qrCode, err := artifact.QRDataURL(artifact.StatusURL(s.config.Server.PublicBaseURL, created.ID))
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.UpdateQRCode(ctx, created.ID, qrCode); err != nil {
		return nil, fmt.Errorf("failed to persist QR payload: %w", err)
	}
	created.QRCode = qrCode

	event := events.MemberRegisteredEvent{
		MemberID:  created.ID,
		Cedula:    created.Cedula,
		Correo:    created.Correo,
		Plan:      string(created.Plan),
		Sucursal:  created.Sucursal,
		ExpiresAt: created.FechaExpiracion,
		Estado:    string(created.Estado),
		CreatedAt: created.CreatedAt,
	}
	if err := s.bus.Publish(ctx, events.MemberRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish member registered event", "error", err, "member_id", created.ID)
	}

	// The contract route is admin-gated, so the emailed link carries its own
	// time-boxed token.
	contractToken, err := auth.NewQRViewToken(created.ID, s.config.Auth.QRTokenSecret, s.config.Auth.ContractLinkTTL)
	if err != nil {
		logger.WarnContext(ctx, "Failed to create contract link token", "error", err, "member_id", created.ID)
	} else {
		contractURL := fmt.Sprintf("%s/member/%d/contract?token=%s", s.config.Server.PublicBaseURL, created.ID, contractToken)
		if err := s.mail.SendWelcomeEmail(created.Correo, created.FullName(), string(created.Plan), contractURL); err != nil {
			logger.WarnContext(ctx, "Failed to send welcome email", "error", err, "member_id", created.ID)
			// Registration already succeeded; mail failure is not fatal.
		}
	}

	return created, nil
}

func (s *memberService) Get(ctx context.Context, id int64) (*domain.Member, error) {
	return s.memberRepo.GetByID(ctx, id)
}

func (s *memberService) List(ctx context.Context, limit, offset int) ([]domain.Member, error) {
	return s.memberRepo.List(ctx, limit, offset)
}

func (s *memberService) Update(ctx context.Context, id int64, req *domain.UpdateRequest) (*domain.Member, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	plan, _ := domain.ParsePlan(req.Plan)
	expiracion, err := domain.ComputeExpiration(req.FechaInscripcion, plan)
	if err != nil {
		return nil, err
	}

	// Full edits recompute everything derived: expiration, status and the
	// QR payload. The status toggle path deliberately does none of this.
	qrCode, err := artifact.QRDataURL(artifact.StatusURL(s.config.Server.PublicBaseURL, id))
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		Nombre:           req.Nombre,
		Apellido:         req.Apellido,
		Plan:             plan,
		FechaInscripcion: req.FechaInscripcion,
		FechaExpiracion:  expiracion,
		Direccion:        req.Direccion,
		Telefono:         req.Telefono,
		Correo:           req.Correo,
		Sucursal:         req.Sucursal,
		Estado:           domain.DeriveStatus(expiracion, time.Now()),
		QRCode:           qrCode,
	}
	if member.Sucursal == "" {
		member.Sucursal = existing.Sucursal
	}
	if member.Direccion == "" {
		member.Direccion = existing.Direccion
	}

	updated, err := s.memberRepo.Update(ctx, id, member)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	event := events.MemberUpdatedEvent{
		MemberID:  updated.ID,
		Cedula:    updated.Cedula,
		Plan:      string(updated.Plan),
		ExpiresAt: updated.FechaExpiracion,
		Estado:    string(updated.Estado),
		UpdatedAt: updated.UpdatedAt,
	}
	if err := s.bus.Publish(ctx, events.MemberUpdated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish member updated event", "error", err, "member_id", updated.ID)
	}

	return updated, nil
}

func (s *memberService) UpdateEstado(ctx context.Context, id int64, estado string) (*domain.Member, error) {
	status, ok := domain.ParseStatus(estado)
	if !ok {
		return nil, fmt.Errorf("invalid estado: %q", estado)
	}

	updated, err := s.memberRepo.UpdateEstado(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	event := events.MemberStatusChangedEvent{
		MemberID:  updated.ID,
		Cedula:    updated.Cedula,
		Estado:    string(updated.Estado),
		ChangedAt: updated.UpdatedAt,
	}
	if err := s.bus.Publish(ctx, events.MemberStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish status changed event", "error", err, "member_id", updated.ID)
	}

	return updated, nil
}

func (s *memberService) Delete(ctx context.Context, id int64) error {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrNotFound
	}

	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Remove(member.Cedula); err != nil {
		logger.WarnContext(ctx, "Failed to remove member blobs", "error", err, "cedula", member.Cedula)
	}

	event := events.MemberDeletedEvent{
		MemberID:  member.ID,
		Cedula:    member.Cedula,
		DeletedAt: time.Now(),
	}
	if err := s.bus.Publish(ctx, events.MemberDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish member deleted event", "error", err, "member_id", member.ID)
	}

	return nil
}

// Contract renders the PDF from the stored record and blobs. A missing
// signature or photo aborts with ErrMissingArtifact; the handler turns that
// into a 404 instead of serving a broken contract.
func (s *memberService) Contract(ctx context.Context, id int64) ([]byte, *domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, domain.ErrNotFound
	}

	firma, err := s.blobs.ReadSignature(member.Cedula)
	if err != nil {
		return nil, nil, err
	}
	foto, err := s.blobs.ReadPhoto(member.Cedula)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := s.contracts.Generate(member, firma, foto)
	if err != nil {
		return nil, nil, err
	}
	return pdf, member, nil
}

func (s *memberService) QRImage(ctx context.Context, id int64) ([]byte, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return artifact.QRPNG(artifact.StatusURL(s.config.Server.PublicBaseURL, member.ID))
}

// StatusImage resolves the asset for the member's current status. Freshness
// is derived from the expiration date at read time, so a stored estado that
// went stale after expiry never shows an approved image to a scanner.
func (s *memberService) StatusImage(ctx context.Context, id int64) (string, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", domain.ErrNotFound
	}

	status := member.CurrentStatus(time.Now())
	if member.Estado == domain.StatusInactivo {
		// An explicit admin toggle to inactivo wins over a future expiry.
		status = domain.StatusInactivo
	}
	return artifact.StatusAsset(s.config.Storage.AssetsDir, status), nil
}

func (s *memberService) ViewURL(ctx context.Context, id int64) (string, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", domain.ErrNotFound
	}

	token, err := auth.NewQRViewToken(member.ID, s.config.Auth.QRTokenSecret, s.config.Auth.QRTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create view token: %w", err)
	}
	return fmt.Sprintf("%s/member/%d/view?token=%s", s.config.Server.PublicBaseURL, member.ID, token), nil
}
