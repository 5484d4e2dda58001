package transport

import (
	"github.com/goliatone/go-credentials/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.CredentialsErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return core.CredentialsErrorStateInvalid
	case goerrors.CategoryExternal:
		return core.CredentialsErrorTokenExchange
	case goerrors.CategoryOperation:
		return core.CredentialsErrorFlowAbandoned
	default:
		return core.CredentialsErrorInternal
	}
}
