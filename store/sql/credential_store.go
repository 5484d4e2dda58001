package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-credentials/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*apiCredentialRecord]
}

func (s *CredentialStore) Create(ctx context.Context, credential core.Credential) (core.Credential, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if strings.TrimSpace(credential.ID) == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: credential id is required")
	}
	if err := credential.AuthKind.Validate(); err != nil {
		return core.Credential{}, err
	}

	now := time.Now().UTC()
	var created core.Credential
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := newAPICredentialRecord(credential, now)
		inserted, createErr := s.repo.CreateTx(ctx, tx, record)
		if createErr != nil {
			return createErr
		}
		created = inserted.toDomain()
		return nil
	})
	if err != nil {
		return core.Credential{}, err
	}
	return created, nil
}

func (s *CredentialStore) Get(ctx context.Context, id string) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Credential{}, fmt.Errorf("%w: %s", core.ErrCredentialNotFound, id)
		}
		return core.Credential{}, err
	}
	if record == nil {
		return core.Credential{}, fmt.Errorf("%w: %s", core.ErrCredentialNotFound, id)
	}
	return record.toDomain(), nil
}

func (s *CredentialStore) Update(ctx context.Context, credential core.Credential) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	id := strings.TrimSpace(credential.ID)
	if id == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: credential id is required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Credential{}, fmt.Errorf("%w: %s", core.ErrCredentialNotFound, id)
		}
		return core.Credential{}, err
	}
	if current == nil {
		return core.Credential{}, fmt.Errorf("%w: %s", core.ErrCredentialNotFound, id)
	}

	current.RoleID = credential.RoleID
	current.CompanyID = credential.CompanyID
	current.DisplayName = credential.DisplayName
	current.TargetEndpoint = credential.TargetEndpoint
	current.AuthKind = string(credential.AuthKind)
	current.SecretPayload = append([]byte(nil), credential.SecretPayload...)
	current.IsActive = credential.IsActive
	current.LastVerifiedAt = cloneTimePointer(credential.LastVerifiedAt)
	updatedAt := credential.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	current.UpdatedAt = updatedAt.UTC()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(id))
	if err != nil {
		return core.Credential{}, err
	}
	return updated.toDomain(), nil
}

func (s *CredentialStore) List(ctx context.Context, filter core.ListCredentialsFilter) ([]core.Credential, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}

	criteria := []repository.SelectCriteria{
		repository.OrderBy("created_at ASC"),
	}
	if roleID := strings.TrimSpace(filter.RoleID); roleID != "" {
		criteria = append(criteria, repository.SelectBy("role_id", "=", roleID))
	}
	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		criteria = append(criteria, repository.SelectBy("company_id", "=", companyID))
	}
	if filter.AuthKind != "" {
		criteria = append(criteria, repository.SelectBy("auth_kind", "=", string(filter.AuthKind)))
	}
	if filter.ActiveOnly {
		criteria = append(criteria, selectByBool("is_active", true))
	}

	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Credential, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// selectByBool filters on a boolean column, binding the value as a Go bool so
// each dialect stores and compares it natively.
func selectByBool(column string, value bool) repository.SelectCriteria {
	return repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(fmt.Sprintf("?TableAlias.%s = ?", column), value)
	})
}

func (s *CredentialStore) ListActiveOAuth(ctx context.Context) ([]core.Credential, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("auth_kind", "=", string(core.AuthKindOAuth)),
		selectByBool("is_active", true),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Credential, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
