package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/doriangym/contratos-backend/internal/domain"
)

func validRegisterRequest() *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Nombre:    "Maria",
		Apellido:  "Lopez",
		Cedula:    "1712345678",
		Plan:      "Plan Mensual",
		Direccion: "Av. Amazonas 123",
		Telefono:  "+593 99 123 4567",
		Correo:    "maria@example.com",
		Sucursal:  "Norte",
		Firma:     "data:image/png;base64,aGVsbG8=",
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	if err := validRegisterRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.RegisterRequest)
	}{
		{"missing nombre", func(r *domain.RegisterRequest) { r.Nombre = "" }},
		{"missing apellido", func(r *domain.RegisterRequest) { r.Apellido = "" }},
		{"missing cedula", func(r *domain.RegisterRequest) { r.Cedula = "" }},
		{"traversal cedula", func(r *domain.RegisterRequest) { r.Cedula = "../../escaped" }},
		{"non-numeric cedula", func(r *domain.RegisterRequest) { r.Cedula = "17A2345678" }},
		{"short cedula", func(r *domain.RegisterRequest) { r.Cedula = "12345" }},
		{"missing correo", func(r *domain.RegisterRequest) { r.Correo = "" }},
		{"bad correo", func(r *domain.RegisterRequest) { r.Correo = "not-an-email" }},
		{"missing telefono", func(r *domain.RegisterRequest) { r.Telefono = "" }},
		{"short telefono", func(r *domain.RegisterRequest) { r.Telefono = "123" }},
		{"missing direccion", func(r *domain.RegisterRequest) { r.Direccion = "" }},
		{"missing sucursal", func(r *domain.RegisterRequest) { r.Sucursal = "" }},
		{"missing firma", func(r *domain.RegisterRequest) { r.Firma = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegisterRequest()
			tt.mutate(req)
			if err := req.Validate(); err == nil {
				t.Error("Validate() accepted invalid request")
			}
		})
	}
}

func TestRegisterRequestInvalidPlan(t *testing.T) {
	req := validRegisterRequest()
	req.Plan = "Plan Diario"

	if err := req.Validate(); !errors.Is(err, domain.ErrInvalidPlan) {
		t.Errorf("Validate() error = %v, want ErrInvalidPlan", err)
	}
}

func TestRegisterRequestFotoOptional(t *testing.T) {
	req := validRegisterRequest()
	req.Foto = ""

	if err := req.Validate(); err != nil {
		t.Errorf("Validate() rejected request without foto: %v", err)
	}
}

func TestRegisterRequestNormalize(t *testing.T) {
	req := validRegisterRequest()
	req.Nombre = "  Maria  "
	req.Correo = "  MARIA@Example.COM "

	req.Normalize()

	if req.Nombre != "Maria" {
		t.Errorf("Normalize() nombre = %q", req.Nombre)
	}
	if req.Correo != "maria@example.com" {
		t.Errorf("Normalize() correo = %q", req.Correo)
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	req := &domain.UpdateRequest{
		Nombre:           "Maria",
		Apellido:         "Lopez",
		Plan:             "Plan Anual",
		FechaInscripcion: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Telefono:         "0991234567",
		Correo:           "maria@example.com",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	missing := *req
	missing.FechaInscripcion = time.Time{}
	if err := missing.Validate(); err == nil {
		t.Error("Validate() accepted zero fecha_inscripcion")
	}

	badPlan := *req
	badPlan.Plan = "Gratis"
	if err := badPlan.Validate(); !errors.Is(err, domain.ErrInvalidPlan) {
		t.Errorf("Validate() error = %v, want ErrInvalidPlan", err)
	}
}

func TestFullName(t *testing.T) {
	m := &domain.Member{Nombre: "Maria", Apellido: "Lopez"}
	if got := m.FullName(); got != "Maria Lopez" {
		t.Errorf("FullName() = %q", got)
	}
}
