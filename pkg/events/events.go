package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/doriangym/contratos-backend/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher is used when NATS is disabled. Publishing is a no-op so the
// service layer never has to care whether a bus is wired.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Member lifecycle subjects
const (
	MemberRegistered    = "member.registered"
	MemberUpdated       = "member.updated"
	MemberStatusChanged = "member.status_changed"
	MemberDeleted       = "member.deleted"
)

type MemberRegisteredEvent struct {
	MemberID  int64     `json:"member_id"`
	Cedula    string    `json:"cedula"`
	Correo    string    `json:"correo"`
	Plan      string    `json:"plan"`
	Sucursal  string    `json:"sucursal"`
	ExpiresAt time.Time `json:"expires_at"`
	Estado    string    `json:"estado"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberUpdatedEvent struct {
	MemberID  int64     `json:"member_id"`
	Cedula    string    `json:"cedula"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
	Estado    string    `json:"estado"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MemberStatusChangedEvent struct {
	MemberID  int64     `json:"member_id"`
	Cedula    string    `json:"cedula"`
	Estado    string    `json:"estado"`
	ChangedAt time.Time `json:"changed_at"`
}

type MemberDeletedEvent struct {
	MemberID  int64     `json:"member_id"`
	Cedula    string    `json:"cedula"`
	DeletedAt time.Time `json:"deleted_at"`
}
