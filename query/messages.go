package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-credentials/core"
)

const (
	TypeGetCredential   = "credentials.query.get"
	TypeListCredentials = "credentials.query.list"
)

type GetCredentialMessage struct {
	CredentialID string
}

func (GetCredentialMessage) Type() string { return TypeGetCredential }

func (m GetCredentialMessage) Validate() error {
	if strings.TrimSpace(m.CredentialID) == "" {
		return fmt.Errorf("query: credential id is required")
	}
	return nil
}

type ListCredentialsMessage struct {
	Filter core.ListCredentialsFilter
}

func (ListCredentialsMessage) Type() string { return TypeListCredentials }

func (m ListCredentialsMessage) Validate() error {
	if m.Filter.AuthKind != "" {
		if err := m.Filter.AuthKind.Validate(); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}
	return nil
}
