package core

import (
	"testing"
	"time"
)

func TestResolveTokenState(t *testing.T) {
	now := time.Now().UTC()

	state := ResolveTokenState(now, SecretMaterial{AccessToken: "at", RefreshToken: "rt"}, 0)
	if !state.HasAccessToken || !state.HasRefreshToken {
		t.Fatalf("expected token flags set, got %+v", state)
	}
	if state.ExpiresAt != nil || state.IsExpired || state.IsExpiringSoon {
		t.Fatalf("expected no expiry flags without expires_at, got %+v", state)
	}

	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", ExpiresAt: timePointer(now.Add(-time.Minute))}, 0)
	if !state.IsExpired {
		t.Fatalf("expected expired token, got %+v", state)
	}

	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", ExpiresAt: timePointer(now.Add(2 * time.Minute))}, 5*time.Minute)
	if state.IsExpired || !state.IsExpiringSoon {
		t.Fatalf("expected expiring-soon token, got %+v", state)
	}

	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", ExpiresAt: timePointer(now.Add(time.Hour))}, 5*time.Minute)
	if state.IsExpired || state.IsExpiringSoon {
		t.Fatalf("expected fresh token, got %+v", state)
	}
}

func TestShouldRefresh(t *testing.T) {
	now := time.Now().UTC()

	// Inside the lead window.
	state := ResolveTokenState(now, SecretMaterial{AccessToken: "at", RefreshToken: "rt", ExpiresAt: timePointer(now.Add(3 * time.Minute))}, DefaultRefreshLeadWindow)
	if !ShouldRefresh(now, state, DefaultRefreshLeadWindow) {
		t.Fatalf("expected refresh inside lead window")
	}

	// Well outside the lead window.
	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", RefreshToken: "rt", ExpiresAt: timePointer(now.Add(time.Hour))}, DefaultRefreshLeadWindow)
	if ShouldRefresh(now, state, DefaultRefreshLeadWindow) {
		t.Fatalf("expected no refresh for fresh token")
	}

	// Exactly at the window boundary counts as due.
	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", RefreshToken: "rt", ExpiresAt: timePointer(now.Add(DefaultRefreshLeadWindow))}, DefaultRefreshLeadWindow)
	if !ShouldRefresh(now, state, DefaultRefreshLeadWindow) {
		t.Fatalf("expected refresh at exact boundary")
	}

	// No recorded expiry never comes due.
	state = ResolveTokenState(now, SecretMaterial{AccessToken: "at", RefreshToken: "rt"}, DefaultRefreshLeadWindow)
	if ShouldRefresh(now, state, DefaultRefreshLeadWindow) {
		t.Fatalf("expected no refresh without expires_at")
	}

	// Missing access token with a refresh token is always due.
	state = ResolveTokenState(now, SecretMaterial{RefreshToken: "rt"}, DefaultRefreshLeadWindow)
	if !ShouldRefresh(now, state, DefaultRefreshLeadWindow) {
		t.Fatalf("expected refresh when access token is missing")
	}
}
