package sqlstore

import (
	"time"

	"github.com/goliatone/go-credentials/core"
	"github.com/uptrace/bun"
)

type apiCredentialRecord struct {
	bun.BaseModel `bun:"table:api_credentials,alias:ac"`

	ID             string     `bun:"id,pk"`
	RoleID         string     `bun:"role_id"`
	CompanyID      string     `bun:"company_id"`
	DisplayName    string     `bun:"display_name,notnull"`
	TargetEndpoint string     `bun:"target_endpoint"`
	AuthKind       string     `bun:"auth_kind,notnull"`
	SecretPayload  []byte     `bun:"secret_payload,notnull"`
	PayloadFormat  string     `bun:"payload_format,notnull"`
	PayloadVersion int        `bun:"payload_version,notnull"`
	IsActive       bool       `bun:"is_active,notnull"`
	LastVerifiedAt *time.Time `bun:"last_verified_at,nullzero"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newAPICredentialRecord(credential core.Credential, now time.Time) *apiCredentialRecord {
	createdAt := credential.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := credential.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return &apiCredentialRecord{
		ID:             credential.ID,
		RoleID:         credential.RoleID,
		CompanyID:      credential.CompanyID,
		DisplayName:    credential.DisplayName,
		TargetEndpoint: credential.TargetEndpoint,
		AuthKind:       string(credential.AuthKind),
		SecretPayload:  append([]byte(nil), credential.SecretPayload...),
		PayloadFormat:  core.SecretPayloadFormatJSONV1,
		PayloadVersion: core.SecretPayloadVersionV1,
		IsActive:       credential.IsActive,
		LastVerifiedAt: cloneTimePointer(credential.LastVerifiedAt),
		CreatedAt:      createdAt.UTC(),
		UpdatedAt:      updatedAt.UTC(),
	}
}

func (r *apiCredentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		ID:             r.ID,
		RoleID:         r.RoleID,
		CompanyID:      r.CompanyID,
		DisplayName:    r.DisplayName,
		TargetEndpoint: r.TargetEndpoint,
		AuthKind:       core.AuthKind(r.AuthKind),
		SecretPayload:  append([]byte(nil), r.SecretPayload...),
		IsActive:       r.IsActive,
		LastVerifiedAt: cloneTimePointer(r.LastVerifiedAt),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
