package domain

import "errors"

var (
	// ErrInvalidPlan rejects a plan identifier outside the closed set.
	ErrInvalidPlan = errors.New("tipo de plan no válido")

	// ErrConflict surfaces a unique-constraint violation (cedula or correo).
	ErrConflict = errors.New("member with this cedula or correo already exists")

	// ErrNotFound is returned when a member or admin does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingArtifact is returned when contract generation cannot find a
	// stored signature or photo. Callers must answer not-found, never serve
	// a contract with a blank image.
	ErrMissingArtifact = errors.New("firma o foto no encontradas")

	// ErrInvalidCredentials hides whether the username or the password was
	// wrong on admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
