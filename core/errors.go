package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CredentialsErrorBadInput      = "CREDENTIALS_BAD_INPUT"
	CredentialsErrorProtocol      = "CREDENTIALS_PROTOCOL_VIOLATION"
	CredentialsErrorStateInvalid  = "CREDENTIALS_STATE_INVALID"
	CredentialsErrorTokenExchange = "CREDENTIALS_TOKEN_EXCHANGE_FAILED"
	CredentialsErrorTokenRefresh  = "CREDENTIALS_TOKEN_REFRESH_FAILED"
	CredentialsErrorFlowAbandoned = "CREDENTIALS_FLOW_ABANDONED"
	CredentialsErrorNotFound      = "CREDENTIALS_NOT_FOUND"
	CredentialsErrorInternal      = "CREDENTIALS_INTERNAL_ERROR"
)

func credentialsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureCredentialsErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "does not resolve"), strings.Contains(msg, "state not found"):
		return newCredentialsError(err.Error(), goerrors.CategoryAuth, CredentialsErrorStateInvalid)
	case strings.Contains(msg, "missing authorization code"), strings.Contains(msg, "provider returned error"):
		return newCredentialsError(err.Error(), goerrors.CategoryBadInput, CredentialsErrorProtocol)
	case strings.Contains(msg, "token exchange"):
		return newCredentialsError(err.Error(), goerrors.CategoryExternal, CredentialsErrorTokenExchange)
	case strings.Contains(msg, "token refresh"), strings.Contains(msg, "refresh token"):
		return newCredentialsError(err.Error(), goerrors.CategoryExternal, CredentialsErrorTokenRefresh)
	case strings.Contains(msg, "abandoned"), strings.Contains(msg, "consent window closed"):
		return newCredentialsError(err.Error(), goerrors.CategoryOperation, CredentialsErrorFlowAbandoned)
	case strings.Contains(msg, "not found"):
		return newCredentialsError(err.Error(), goerrors.CategoryNotFound, CredentialsErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newCredentialsError(err.Error(), goerrors.CategoryBadInput, CredentialsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureCredentialsErrorEnvelope(mapped)
}

func newCredentialsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureCredentialsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureCredentialsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = credentialsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultCredentialsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultCredentialsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return CredentialsErrorBadInput
	case goerrors.CategoryNotFound:
		return CredentialsErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return CredentialsErrorStateInvalid
	case goerrors.CategoryExternal:
		return CredentialsErrorTokenExchange
	case goerrors.CategoryOperation:
		return CredentialsErrorFlowAbandoned
	default:
		return CredentialsErrorInternal
	}
}

func credentialsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
