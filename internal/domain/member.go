package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Member struct {
	ID               int64     `json:"id"`
	Nombre           string    `json:"nombre"`
	Apellido         string    `json:"apellido"`
	Cedula           string    `json:"cedula"`
	Plan             Plan      `json:"plan_contratado"`
	FechaInscripcion time.Time `json:"fecha_inscripcion"`
	FechaExpiracion  time.Time `json:"fecha_expiracion"`
	Direccion        string    `json:"direccion"`
	Telefono         string    `json:"telefono"`
	Correo           string    `json:"correo"`
	Sucursal         string    `json:"sucursal"`
	Estado           Status    `json:"estado"`
	QRCode           string    `json:"qr_code"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FullName is what the contract's binding statement interpolates.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.Nombre + " " + m.Apellido)
}

// CurrentStatus re-derives the status lazily from the expiration date. The
// stored Estado can go stale between writes; readers that care about
// freshness use this instead.
func (m *Member) CurrentStatus(now time.Time) Status {
	return DeriveStatus(m.FechaExpiracion, now)
}

// RegisterRequest is the typed body of POST /submit. Firma and Foto carry
// base64 data URLs straight from the registration form; foto is optional.
type RegisterRequest struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Cedula    string `json:"cedula"`
	Plan      string `json:"plan_contratado"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"`
	Correo    string `json:"correo"`
	Sucursal  string `json:"sucursal"`
	Firma     string `json:"firma"`
	Foto      string `json:"foto,omitempty"`
}

// UpdateRequest is the typed body of PUT /member/{id}. The inscription date
// is client-supplied here, unlike registration where the server clock wins.
// The cedula is immutable after registration and is not part of this body.
type UpdateRequest struct {
	Nombre           string    `json:"nombre"`
	Apellido         string    `json:"apellido"`
	Plan             string    `json:"plan_contratado"`
	FechaInscripcion time.Time `json:"fecha_inscripcion"`
	Direccion        string    `json:"direccion"`
	Telefono         string    `json:"telefono"`
	Correo           string    `json:"correo"`
	Sucursal         string    `json:"sucursal"`
}

type StatusRequest struct {
	Estado string `json:"estado"`
}

func (r *RegisterRequest) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Apellido = strings.TrimSpace(r.Apellido)
	r.Cedula = strings.TrimSpace(r.Cedula)
	r.Plan = strings.TrimSpace(r.Plan)
	r.Direccion = strings.TrimSpace(r.Direccion)
	r.Telefono = strings.TrimSpace(r.Telefono)
	r.Correo = strings.ToLower(strings.TrimSpace(r.Correo))
	r.Sucursal = strings.TrimSpace(r.Sucursal)
}

func (r *RegisterRequest) Validate() error {
	if r.Nombre == "" {
		return fmt.Errorf("nombre is required")
	}
	if r.Apellido == "" {
		return fmt.Errorf("apellido is required")
	}
	if r.Cedula == "" {
		return fmt.Errorf("cedula is required")
	}
	if !isValidCedula(r.Cedula) {
		return fmt.Errorf("invalid cedula format")
	}
	if _, ok := ParsePlan(r.Plan); !ok {
		return ErrInvalidPlan
	}
	if r.Correo == "" {
		return fmt.Errorf("correo is required")
	}
	if !isValidEmail(r.Correo) {
		return fmt.Errorf("invalid correo format")
	}
	if r.Telefono == "" {
		return fmt.Errorf("telefono is required")
	}
	if !isValidPhone(r.Telefono) {
		return fmt.Errorf("invalid telefono format")
	}
	if r.Direccion == "" {
		return fmt.Errorf("direccion is required")
	}
	if r.Sucursal == "" {
		return fmt.Errorf("sucursal is required")
	}
	if r.Firma == "" {
		return fmt.Errorf("firma is required")
	}
	return nil
}

func (r *UpdateRequest) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Apellido = strings.TrimSpace(r.Apellido)
	r.Plan = strings.TrimSpace(r.Plan)
	r.Direccion = strings.TrimSpace(r.Direccion)
	r.Telefono = strings.TrimSpace(r.Telefono)
	r.Correo = strings.ToLower(strings.TrimSpace(r.Correo))
	r.Sucursal = strings.TrimSpace(r.Sucursal)
}

func (r *UpdateRequest) Validate() error {
	if r.Nombre == "" {
		return fmt.Errorf("nombre is required")
	}
	if r.Apellido == "" {
		return fmt.Errorf("apellido is required")
	}
	if _, ok := ParsePlan(r.Plan); !ok {
		return ErrInvalidPlan
	}
	if r.FechaInscripcion.IsZero() {
		return fmt.Errorf("fecha_inscripcion is required")
	}
	if r.Correo == "" || !isValidEmail(r.Correo) {
		return fmt.Errorf("invalid correo format")
	}
	if r.Telefono == "" || !isValidPhone(r.Telefono) {
		return fmt.Errorf("invalid telefono format")
	}
	return nil
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\+]?[\d\s\-\(\)]+$`)
	// The cedula doubles as the blob file name, so only plain digits pass.
	cedulaRegex = regexp.MustCompile(`^[0-9]{6,20}$`)
)

func isValidCedula(cedula string) bool {
	return cedulaRegex.MatchString(cedula)
}

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func isValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone) && len(phone) >= 7
}
