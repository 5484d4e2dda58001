package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func seedConnected(t *testing.T, store *memoryCredentialStore, id string, material SecretMaterial) Credential {
	t.Helper()
	credential := connectedCredential(t, id, material)
	credential.ID = id
	if _, err := store.Create(context.Background(), credential); err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return credential
}

func dueMaterial(refreshToken string) SecretMaterial {
	return SecretMaterial{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		TokenURL:     "https://provider.example/token",
		AccessToken:  "at-old",
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    timePointer(time.Now().Add(2 * time.Minute)),
	}
}

func freshMaterial() SecretMaterial {
	material := dueMaterial("rt-1")
	material.ExpiresAt = timePointer(time.Now().Add(2 * time.Hour))
	return material
}

func TestSweepRefresh_RefreshesDueCredentials(t *testing.T) {
	store := newMemoryCredentialStore()
	doer := &scriptedHTTPDoer{responses: []scriptedResponse{{
		body: `{"access_token":"at-new","refresh_token":"rt-new","token_type":"bearer","expires_in":3600}`,
	}}}
	service := newTestService(t, store, doer)

	seedConnected(t, store, "cred-due", dueMaterial("rt-1"))
	seedConnected(t, store, "cred-fresh", freshMaterial())

	report, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Candidates != 2 || report.Refreshed != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	refreshed := store.mustGet("cred-due")
	material, decodeErr := (JSONSecretCodec{}).Decode(refreshed.SecretPayload)
	if decodeErr != nil {
		t.Fatalf("decode material: %v", decodeErr)
	}
	if material.AccessToken != "at-new" || material.RefreshToken != "rt-new" {
		t.Fatalf("expected rotated tokens, got %+v", material)
	}
	if material.Status != SecretStatusConnected {
		t.Fatalf("expected connected status, got %q", material.Status)
	}
	if !refreshed.IsActive || refreshed.LastVerifiedAt == nil {
		t.Fatalf("expected credential to stay active with verification timestamp")
	}

	// The fresh credential must be untouched.
	if doer.callCount() != 1 {
		t.Fatalf("expected a single token request, got %d", doer.callCount())
	}
}

func TestSweepRefresh_RetainsRefreshTokenWhenOmitted(t *testing.T) {
	store := newMemoryCredentialStore()
	doer := &scriptedHTTPDoer{responses: []scriptedResponse{{
		body: `{"access_token":"at-new","token_type":"bearer","expires_in":3600}`,
	}}}
	service := newTestService(t, store, doer)

	seedConnected(t, store, "cred-due", dueMaterial("rt-keep"))

	report, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Refreshed != 1 {
		t.Fatalf("expected one refresh, got %+v", report)
	}

	material, decodeErr := (JSONSecretCodec{}).Decode(store.mustGet("cred-due").SecretPayload)
	if decodeErr != nil {
		t.Fatalf("decode material: %v", decodeErr)
	}
	if material.RefreshToken != "rt-keep" {
		t.Fatalf("expected prior refresh token retained, got %q", material.RefreshToken)
	}
}

func TestSweepRefresh_FailureDeactivatesAndContinues(t *testing.T) {
	store := newMemoryCredentialStore()
	// Candidates sweep in id order: the middle one fails, its neighbors must
	// still refresh.
	doer := &scriptedHTTPDoer{responses: []scriptedResponse{
		{body: `{"access_token":"at-new-a","refresh_token":"rt-new-a","expires_in":3600}`},
		{status: 400, body: `{"error":"invalid_grant","error_description":"refresh revoked"}`},
		{body: `{"access_token":"at-new-c","refresh_token":"rt-new-c","expires_in":3600}`},
	}}
	service := newTestService(t, store, doer)

	seedConnected(t, store, "cred-a", dueMaterial("rt-a"))
	seedConnected(t, store, "cred-b", dueMaterial("rt-b"))
	seedConnected(t, store, "cred-c", dueMaterial("rt-c"))

	report, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("sweep must not abort on per-credential failure: %v", err)
	}
	if report.Candidates != 3 || report.Refreshed != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "cred-b") {
		t.Fatalf("expected the failure attributed to cred-b, got %v", report.Errors)
	}

	for _, tc := range []struct {
		id          string
		accessToken string
	}{
		{id: "cred-a", accessToken: "at-new-a"},
		{id: "cred-c", accessToken: "at-new-c"},
	} {
		credential := store.mustGet(tc.id)
		material, decodeErr := (JSONSecretCodec{}).Decode(credential.SecretPayload)
		if decodeErr != nil {
			t.Fatalf("decode material: %v", decodeErr)
		}
		if material.Status != SecretStatusConnected || material.AccessToken != tc.accessToken {
			t.Fatalf("expected %s refreshed to %q, got %+v", tc.id, tc.accessToken, material)
		}
		if !credential.IsActive {
			t.Fatalf("expected %s to stay active", tc.id)
		}
	}

	failed := store.mustGet("cred-b")
	material, decodeErr := (JSONSecretCodec{}).Decode(failed.SecretPayload)
	if decodeErr != nil {
		t.Fatalf("decode material: %v", decodeErr)
	}
	if material.Status != SecretStatusRefreshFailed {
		t.Fatalf("expected cred-b in refresh_failed, got %q", material.Status)
	}
	if failed.IsActive {
		t.Fatalf("expected cred-b to be inactive")
	}
	if material.LastError == "" {
		t.Fatalf("expected last_error recorded for cred-b")
	}
}

func TestSweepRefresh_SecondSweepMakesNoRequests(t *testing.T) {
	store := newMemoryCredentialStore()
	doer := &scriptedHTTPDoer{responses: []scriptedResponse{{
		body: `{"access_token":"at-new","refresh_token":"rt-new","token_type":"bearer","expires_in":3600}`,
	}}}
	service := newTestService(t, store, doer)

	seedConnected(t, store, "cred-due", dueMaterial("rt-1"))

	first, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first.Refreshed != 1 {
		t.Fatalf("expected one refresh on the first pass, got %+v", first)
	}

	// The refreshed expiry pushes the credential outside the lead window, so
	// an immediate re-run has nothing to do.
	second, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.Candidates != 1 || second.Refreshed != 0 || second.Skipped != 1 || second.Failed != 0 {
		t.Fatalf("expected second sweep to skip everything, got %+v", second)
	}
	if doer.callCount() != 1 {
		t.Fatalf("expected no token request on the second sweep, got %d", doer.callCount())
	}
}

func TestSweepRefresh_MissingRefreshTokenRecordsErrorOnly(t *testing.T) {
	store := newMemoryCredentialStore()
	doer := &scriptedHTTPDoer{}
	service := newTestService(t, store, doer)

	seedConnected(t, store, "cred-norefresh", dueMaterial(""))

	report, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected failure count, got %+v", report)
	}
	if doer.callCount() != 0 {
		t.Fatalf("expected no token request without a refresh token")
	}

	credential := store.mustGet("cred-norefresh")
	if !credential.IsActive {
		t.Fatalf("expected credential to stay active until its token lapses")
	}
	material, decodeErr := (JSONSecretCodec{}).Decode(credential.SecretPayload)
	if decodeErr != nil {
		t.Fatalf("decode material: %v", decodeErr)
	}
	if material.Status != SecretStatusConnected {
		t.Fatalf("expected connected status, got %q", material.Status)
	}
	if !strings.Contains(material.LastError, "refresh token") {
		t.Fatalf("expected missing refresh token recorded, got %q", material.LastError)
	}
}

func TestSweepRefresh_EmptyCandidateSet(t *testing.T) {
	service := newTestService(t, newMemoryCredentialStore(), &scriptedHTTPDoer{})
	report, err := service.SweepRefresh(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Candidates != 0 || report.Refreshed != 0 || report.Failed != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRefreshCredential_ForcesAttempt(t *testing.T) {
	store := newMemoryCredentialStore()
	doer := &scriptedHTTPDoer{responses: []scriptedResponse{{
		body: `{"access_token":"at-new","refresh_token":"rt-new","expires_in":3600}`,
	}}}
	service := newTestService(t, store, doer)

	// Not due, but a manual refresh bypasses the lead window.
	seedConnected(t, store, "cred-fresh", freshMaterial())

	result, err := service.RefreshCredential(context.Background(), "cred-fresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.Outcome != RefreshOutcomeRefreshed {
		t.Fatalf("expected refreshed outcome, got %q", result.Outcome)
	}
	if doer.callCount() != 1 {
		t.Fatalf("expected one token request")
	}
}

func TestRefreshCredential_NotFound(t *testing.T) {
	service := newTestService(t, newMemoryCredentialStore(), &scriptedHTTPDoer{})
	if _, err := service.RefreshCredential(context.Background(), "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}
