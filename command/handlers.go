package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-credentials/core"
)

type MutatingService interface {
	BeginAuthorization(ctx context.Context, req core.BeginAuthorizationRequest) (core.BeginAuthorizationResponse, error)
	CompleteAuthorization(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
	RefreshCredential(ctx context.Context, id string) (core.RefreshResult, error)
	SweepRefresh(ctx context.Context) (core.SweepReport, error)
	Deactivate(ctx context.Context, id string, reason string) error
}

type BeginAuthorizationCommand struct {
	service MutatingService
}

func NewBeginAuthorizationCommand(service MutatingService) *BeginAuthorizationCommand {
	return &BeginAuthorizationCommand{service: service}
}

func (c *BeginAuthorizationCommand) Execute(ctx context.Context, msg BeginAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	out, err := c.service.BeginAuthorization(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	out, err := c.service.CompleteAuthorization(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCredentialCommand struct {
	service MutatingService
}

func NewRefreshCredentialCommand(service MutatingService) *RefreshCredentialCommand {
	return &RefreshCredentialCommand{service: service}
}

func (c *RefreshCredentialCommand) Execute(ctx context.Context, msg RefreshCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	out, err := c.service.RefreshCredential(ctx, strings.TrimSpace(msg.CredentialID))
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SweepRefreshCommand struct {
	service MutatingService
}

func NewSweepRefreshCommand(service MutatingService) *SweepRefreshCommand {
	return &SweepRefreshCommand{service: service}
}

func (c *SweepRefreshCommand) Execute(ctx context.Context, msg SweepRefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sweep service is required")
	}
	out, err := c.service.SweepRefresh(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeactivateCommand struct {
	service MutatingService
}

func NewDeactivateCommand(service MutatingService) *DeactivateCommand {
	return &DeactivateCommand{service: service}
}

func (c *DeactivateCommand) Execute(ctx context.Context, msg DeactivateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: deactivate service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	return c.service.Deactivate(ctx, strings.TrimSpace(msg.CredentialID), strings.TrimSpace(msg.Reason))
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
