package core

import (
	"strings"
	"time"
)

const DefaultRefreshLeadWindow = 5 * time.Minute

// TokenState captures access/refresh lifecycle flags derived from decoded
// secret material.
type TokenState struct {
	ExpiresAt       *time.Time
	HasAccessToken  bool
	HasRefreshToken bool
	IsExpired       bool
	IsExpiringSoon  bool
}

// ResolveTokenState evaluates expiry flags for a credential's secret material.
func ResolveTokenState(now time.Time, material SecretMaterial, leadWindow time.Duration) TokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if leadWindow <= 0 {
		leadWindow = DefaultRefreshLeadWindow
	}

	state := TokenState{
		HasAccessToken:  strings.TrimSpace(material.AccessToken) != "",
		HasRefreshToken: strings.TrimSpace(material.RefreshToken) != "",
	}
	if material.ExpiresAt == nil {
		return state
	}
	expiresAt := material.ExpiresAt.UTC()
	state.ExpiresAt = &expiresAt
	if !expiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiresAt.After(now.Add(leadWindow))
	return state
}

// ShouldRefresh reports whether a credential is due for a proactive refresh.
// Credentials with no recorded expiry never come due.
func ShouldRefresh(now time.Time, state TokenState, leadWindow time.Duration) bool {
	if !state.HasAccessToken {
		return state.HasRefreshToken
	}
	if state.ExpiresAt == nil {
		return false
	}
	if leadWindow <= 0 {
		leadWindow = DefaultRefreshLeadWindow
	}
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	return !state.ExpiresAt.UTC().After(now.Add(leadWindow))
}
