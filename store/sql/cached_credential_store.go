package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-credentials/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const credentialCacheKeyPrefix = "go-credentials::api_credential::v1"

// CachedCredentialStore layers read-through caching over a CredentialStore.
// Only single-record reads are cached; list reads always hit the base store.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

func NewCachedCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

// CredentialCacheKey returns the deterministic cache key for one credential:
// go-credentials::api_credential::v1::<id> with the id URL-path escaped.
func CredentialCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: credential id is required")
	}
	return credentialCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedCredentialStore) Create(ctx context.Context, credential core.Credential) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	created, err := s.base.Create(ctx, credential)
	if err != nil {
		return core.Credential{}, err
	}
	if err := s.invalidate(ctx, created.ID); err != nil {
		return core.Credential{}, err
	}
	return created, nil
}

func (s *CachedCredentialStore) Get(ctx context.Context, id string) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	cacheKey, err := CredentialCacheKey(id)
	if err != nil {
		return core.Credential{}, err
	}
	credential, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Credential, error) {
		fetched, fetchErr := s.base.Get(ctx, strings.TrimSpace(id))
		if fetchErr != nil {
			return core.Credential{}, fetchErr
		}
		return cloneCredential(fetched), nil
	})
	if err != nil {
		return core.Credential{}, err
	}
	return cloneCredential(credential), nil
}

func (s *CachedCredentialStore) Update(ctx context.Context, credential core.Credential) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	updated, err := s.base.Update(ctx, credential)
	if err != nil {
		return core.Credential{}, err
	}
	if err := s.invalidate(ctx, updated.ID); err != nil {
		return core.Credential{}, err
	}
	return updated, nil
}

func (s *CachedCredentialStore) List(ctx context.Context, filter core.ListCredentialsFilter) ([]core.Credential, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedCredentialStore) ListActiveOAuth(ctx context.Context) ([]core.Credential, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	return s.base.ListActiveOAuth(ctx)
}

func (s *CachedCredentialStore) invalidate(ctx context.Context, id string) error {
	cacheKey, err := CredentialCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneCredential(credential core.Credential) core.Credential {
	cloned := credential
	cloned.SecretPayload = append([]byte(nil), credential.SecretPayload...)
	cloned.LastVerifiedAt = cloneTimePointer(credential.LastVerifiedAt)
	return cloned
}
