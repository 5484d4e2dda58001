package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-credentials/core"
)

type CredentialReader interface {
	GetCredential(ctx context.Context, id string) (core.Credential, error)
	ListCredentials(ctx context.Context, filter core.ListCredentialsFilter) ([]core.Credential, error)
}

type GetCredentialQuery struct {
	reader CredentialReader
}

func NewGetCredentialQuery(reader CredentialReader) *GetCredentialQuery {
	return &GetCredentialQuery{reader: reader}
}

func (q *GetCredentialQuery) Query(ctx context.Context, msg GetCredentialMessage) (core.Credential, error) {
	if q == nil || q.reader == nil {
		return core.Credential{}, queryDependencyError("query: credential reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Credential{}, queryInvalidInputError(err.Error())
	}
	return q.reader.GetCredential(ctx, strings.TrimSpace(msg.CredentialID))
}

type ListCredentialsQuery struct {
	reader CredentialReader
}

func NewListCredentialsQuery(reader CredentialReader) *ListCredentialsQuery {
	return &ListCredentialsQuery{reader: reader}
}

func (q *ListCredentialsQuery) Query(ctx context.Context, msg ListCredentialsMessage) ([]core.Credential, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, queryInvalidInputError(err.Error())
	}
	return q.reader.ListCredentials(ctx, msg.Filter)
}
