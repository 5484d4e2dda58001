package credentials

import (
	"context"
	"testing"

	credentialscommand "github.com/goliatone/go-credentials/command"
	"github.com/goliatone/go-credentials/core"
	credentialsquery "github.com/goliatone/go-credentials/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.BeginAuthorization == nil || commands.CompleteCallback == nil ||
		commands.Refresh == nil || commands.SweepRefresh == nil || commands.Deactivate == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.GetCredential == nil || queries.ListCredentials == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Service() == nil {
		t.Fatalf("expected facade to expose the wired service")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().Deactivate.Execute(context.Background(), credentialscommand.DeactivateMessage{
		CredentialID: "cred_1",
		Reason:       "manual",
	}); err != nil {
		t.Fatalf("execute deactivate command: %v", err)
	}
	if svc.lastDeactivateID != "cred_1" || svc.lastDeactivateReason != "manual" {
		t.Fatalf("unexpected deactivate delegation payload")
	}

	credential, err := facade.Queries().GetCredential.Query(context.Background(), credentialsquery.GetCredentialMessage{
		CredentialID: "cred_1",
	})
	if err != nil {
		t.Fatalf("query get credential: %v", err)
	}
	if credential.ID != "cred_1" || credential.DisplayName != "Acme CRM" {
		t.Fatalf("unexpected get credential result: %#v", credential)
	}

	listed, err := facade.Queries().ListCredentials.Query(context.Background(), credentialsquery.ListCredentialsMessage{
		Filter: core.ListCredentialsFilter{ActiveOnly: true},
	})
	if err != nil {
		t.Fatalf("query list credentials: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("unexpected list credentials result: %#v", listed)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

type stubFacadeService struct {
	lastDeactivateID     string
	lastDeactivateReason string
}

func (s *stubFacadeService) BeginAuthorization(context.Context, core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error) {
	return core.BeginAuthorizationResponse{
		CredentialID:     "cred_1",
		AuthorizationURL: "https://provider.example.com/oauth/authorize?state=cred_1",
	}, nil
}

func (s *stubFacadeService) CompleteAuthorization(context.Context, core.CallbackRequest) (core.CallbackResult, error) {
	return core.CallbackResult{Credential: core.Credential{ID: "cred_1"}}, nil
}

func (s *stubFacadeService) RefreshCredential(context.Context, string) (core.RefreshResult, error) {
	return core.RefreshResult{
		Credential: core.Credential{ID: "cred_1"},
		Outcome:    core.RefreshOutcomeRefreshed,
	}, nil
}

func (s *stubFacadeService) SweepRefresh(context.Context) (core.SweepReport, error) {
	return core.SweepReport{Candidates: 1, Refreshed: 1}, nil
}

func (s *stubFacadeService) Deactivate(_ context.Context, id string, reason string) error {
	s.lastDeactivateID = id
	s.lastDeactivateReason = reason
	return nil
}

func (s *stubFacadeService) GetCredential(context.Context, string) (core.Credential, error) {
	return core.Credential{ID: "cred_1", DisplayName: "Acme CRM", IsActive: true}, nil
}

func (s *stubFacadeService) ListCredentials(context.Context, core.ListCredentialsFilter) ([]core.Credential, error) {
	return []core.Credential{{ID: "cred_1", DisplayName: "Acme CRM", IsActive: true}}, nil
}

var _ CommandQueryService = (*core.Service)(nil)
