package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidAuthKind               = errors.New("core: invalid auth kind")
	ErrInvalidSecretStatusTransition = errors.New("core: invalid secret status transition")
	ErrCredentialNotFound            = errors.New("core: credential not found")
)

// PendingNameSuffix marks a credential whose consent flow has not completed.
// It is appended to the display name at creation and stripped on finalization.
const PendingNameSuffix = " (pending)"

type AuthKind string

const (
	AuthKindBearer AuthKind = "bearer"
	AuthKindAPIKey AuthKind = "api_key"
	AuthKindOAuth  AuthKind = "oauth"
)

func (k AuthKind) Validate() error {
	switch k {
	case AuthKindBearer, AuthKindAPIKey, AuthKindOAuth:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAuthKind, string(k))
}

type SecretStatus string

const (
	SecretStatusPending       SecretStatus = "pending"
	SecretStatusConnected     SecretStatus = "connected"
	SecretStatusRefreshFailed SecretStatus = "refresh_failed"
)

// Credential is one provisioned external-API credential. Its ID doubles as
// the OAuth state parameter, binding the provider callback to the record
// created when the flow began.
type Credential struct {
	ID             string
	RoleID         string
	CompanyID      string
	DisplayName    string
	TargetEndpoint string
	AuthKind       AuthKind
	SecretPayload  []byte
	IsActive       bool
	LastVerifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Credential) Pending() bool {
	if c == nil {
		return false
	}
	return strings.HasSuffix(c.DisplayName, PendingNameSuffix)
}

// TransitionSecretTo enforces the secret lifecycle: pending -> connected via a
// successful code exchange, connected -> refresh_failed via a failed refresh.
// There is no path back from refresh_failed without user re-initiation.
// Re-asserting the current status is a no-op (refresh merges in place).
func (s SecretStatus) TransitionTo(next SecretStatus) error {
	if s == next {
		return nil
	}
	if !secretTransitionAllowed(s, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidSecretStatusTransition, s, next)
	}
	return nil
}

func secretTransitionAllowed(current, next SecretStatus) bool {
	allowed := map[SecretStatus]map[SecretStatus]struct{}{
		SecretStatusPending: {
			SecretStatusConnected: {},
		},
		SecretStatusConnected: {
			SecretStatusRefreshFailed: {},
		},
		SecretStatusRefreshFailed: {},
	}
	_, ok := allowed[current][next]
	return ok
}

// syncActiveFlag keeps the is_active invariant: active iff connected.
func (c *Credential) syncActiveFlag(status SecretStatus) {
	if c == nil {
		return
	}
	c.IsActive = status == SecretStatusConnected
}
