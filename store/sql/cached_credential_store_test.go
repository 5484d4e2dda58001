package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-credentials/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubBaseCredentialStore struct {
	mu          sync.Mutex
	credential  core.Credential
	getCalls    int
	updateCalls int
	getErr      error
}

func (s *stubBaseCredentialStore) Create(_ context.Context, credential core.Credential) (core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = cloneCredential(credential)
	return cloneCredential(credential), nil
}

func (s *stubBaseCredentialStore) Get(_ context.Context, _ string) (core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return core.Credential{}, s.getErr
	}
	return cloneCredential(s.credential), nil
}

func (s *stubBaseCredentialStore) Update(_ context.Context, credential core.Credential) (core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	s.credential = cloneCredential(credential)
	return cloneCredential(credential), nil
}

func (s *stubBaseCredentialStore) List(_ context.Context, _ core.ListCredentialsFilter) ([]core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []core.Credential{cloneCredential(s.credential)}, nil
}

func (s *stubBaseCredentialStore) ListActiveOAuth(_ context.Context) ([]core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []core.Credential{cloneCredential(s.credential)}, nil
}

func TestCachedCredentialStore_Get_MissFetchThenHit(t *testing.T) {
	cacheService := newTestCredentialCacheService(t)
	base := &stubBaseCredentialStore{
		credential: core.Credential{
			ID:          "cred-cache-1",
			DisplayName: "Acme CRM",
			AuthKind:    core.AuthKindOAuth,
			IsActive:    true,
		},
	}

	store, err := NewCachedCredentialStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached credential store: %v", err)
	}

	if _, err := store.Get(context.Background(), "cred-cache-1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected first get to fetch base store once, got %d", base.getCalls)
	}

	if _, err := store.Get(context.Background(), "cred-cache-1"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected second get to be cache hit, base get calls=%d", base.getCalls)
	}
}

func TestCachedCredentialStore_Update_InvalidatesCachedKey(t *testing.T) {
	cacheService := newTestCredentialCacheService(t)
	base := &stubBaseCredentialStore{
		credential: core.Credential{
			ID:          "cred-cache-2",
			DisplayName: "Acme CRM (pending)",
			AuthKind:    core.AuthKindOAuth,
		},
	}

	store, err := NewCachedCredentialStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached credential store: %v", err)
	}

	if _, err := store.Get(context.Background(), "cred-cache-2"); err != nil {
		t.Fatalf("prime cache with get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected one base read after cache prime, got %d", base.getCalls)
	}

	if _, err := store.Update(context.Background(), core.Credential{
		ID:          "cred-cache-2",
		DisplayName: "Acme CRM",
		AuthKind:    core.AuthKindOAuth,
		IsActive:    true,
	}); err != nil {
		t.Fatalf("update through cached store: %v", err)
	}
	if base.updateCalls != 1 {
		t.Fatalf("expected base update call count=1, got %d", base.updateCalls)
	}

	credential, err := store.Get(context.Background(), "cred-cache-2")
	if err != nil {
		t.Fatalf("get after update invalidation: %v", err)
	}
	if base.getCalls != 2 {
		t.Fatalf("expected invalidated key to force second base read, got %d", base.getCalls)
	}
	if credential.DisplayName != "Acme CRM" || !credential.IsActive {
		t.Fatalf("expected refreshed credential after invalidation, got %+v", credential)
	}
}

func TestCredentialCacheKey_Contract(t *testing.T) {
	key, err := CredentialCacheKey("cred/alpha beta")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}

	const expected = "go-credentials::api_credential::v1::cred%2Falpha%20beta"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}

	if _, err := CredentialCacheKey("   "); err == nil {
		t.Fatalf("expected error for blank credential id")
	}
}

func TestCachedCredentialStore_PropagatesBaseErrors(t *testing.T) {
	cacheService := newTestCredentialCacheService(t)
	base := &stubBaseCredentialStore{getErr: core.ErrCredentialNotFound}

	store, err := NewCachedCredentialStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached credential store: %v", err)
	}

	if _, err := store.Get(context.Background(), "cred-cache-404"); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func newTestCredentialCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
