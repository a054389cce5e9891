// Package audit records security-relevant auth lifecycle facts. Events are
// emitted from domain logic and fanned out to a sink (Kafka in production,
// memory in tests). Keep the event transport-agnostic.
package audit

import (
	"context"
	"time"

	id "usemy/pkg/domain"
)

// Action names the auth lifecycle fact being recorded.
type Action string

const (
	ActionUserSignedUp       Action = "user_signed_up"
	ActionUserSignedIn       Action = "user_signed_in"
	ActionUserSignedOut      Action = "user_signed_out"
	ActionProfileRepaired    Action = "profile_repaired"
	ActionProfileMissing     Action = "profile_missing"
	ActionSessionInvalidated Action = "session_invalidated"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Action    Action    `json:"action"`
	UserID    id.UserID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Device    string    `json:"device,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events to the audit sink. Emit must not block domain
// logic on sink latency beyond the caller's context.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close()
}

// NopPublisher drops events. Used when auditing is not configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
func (NopPublisher) Close()                            {}
