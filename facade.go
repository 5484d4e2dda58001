package credentials

import (
	"fmt"

	credentialscommand "github.com/goliatone/go-credentials/command"
	credentialsquery "github.com/goliatone/go-credentials/query"
)

// CommandQueryService is the combined surface the facade wires handlers
// against. *core.Service satisfies it.
type CommandQueryService interface {
	credentialscommand.MutatingService
	credentialsquery.CredentialReader
}

type Commands struct {
	BeginAuthorization *credentialscommand.BeginAuthorizationCommand
	CompleteCallback   *credentialscommand.CompleteCallbackCommand
	Refresh            *credentialscommand.RefreshCredentialCommand
	SweepRefresh       *credentialscommand.SweepRefreshCommand
	Deactivate         *credentialscommand.DeactivateCommand
}

type Queries struct {
	GetCredential   *credentialsquery.GetCredentialQuery
	ListCredentials *credentialsquery.ListCredentialsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("credentials: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		BeginAuthorization: credentialscommand.NewBeginAuthorizationCommand(service),
		CompleteCallback:   credentialscommand.NewCompleteCallbackCommand(service),
		Refresh:            credentialscommand.NewRefreshCredentialCommand(service),
		SweepRefresh:       credentialscommand.NewSweepRefreshCommand(service),
		Deactivate:         credentialscommand.NewDeactivateCommand(service),
	}
	facade.queries = Queries{
		GetCredential:   credentialsquery.NewGetCredentialQuery(service),
		ListCredentials: credentialsquery.NewListCredentialsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
