package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-credentials/core"
)

const (
	TypeBeginAuthorization = "credentials.command.authorization.begin"
	TypeCompleteCallback   = "credentials.command.callback.complete"
	TypeRefreshCredential  = "credentials.command.refresh"
	TypeSweepRefresh       = "credentials.command.refresh.sweep"
	TypeDeactivate         = "credentials.command.deactivate"
)

type BeginAuthorizationMessage struct {
	Request core.BeginAuthorizationRequest
}

func (BeginAuthorizationMessage) Type() string { return TypeBeginAuthorization }

func (m BeginAuthorizationMessage) Validate() error {
	if strings.TrimSpace(m.Request.DisplayName) == "" {
		return fmt.Errorf("command: display name is required")
	}
	if strings.TrimSpace(m.Request.Provider.ClientID) == "" {
		return fmt.Errorf("command: client id is required")
	}
	if strings.TrimSpace(m.Request.Provider.AuthorizationURL) == "" {
		return fmt.Errorf("command: authorization url is required")
	}
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.State) == "" && strings.TrimSpace(m.Request.ErrorParam) == "" {
		return fmt.Errorf("command: state is required")
	}
	return nil
}

type RefreshCredentialMessage struct {
	CredentialID string
}

func (RefreshCredentialMessage) Type() string { return TypeRefreshCredential }

func (m RefreshCredentialMessage) Validate() error {
	if strings.TrimSpace(m.CredentialID) == "" {
		return fmt.Errorf("command: credential id is required")
	}
	return nil
}

type SweepRefreshMessage struct{}

func (SweepRefreshMessage) Type() string { return TypeSweepRefresh }

func (SweepRefreshMessage) Validate() error { return nil }

type DeactivateMessage struct {
	CredentialID string
	Reason       string
}

func (DeactivateMessage) Type() string { return TypeDeactivate }

func (m DeactivateMessage) Validate() error {
	if strings.TrimSpace(m.CredentialID) == "" {
		return fmt.Errorf("command: credential id is required")
	}
	return nil
}
