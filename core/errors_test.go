package core

import (
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestCredentialsErrorMapper_Classification(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		status   int
	}{
		{
			name:     "invalid state",
			err:      fmt.Errorf("core: state %q does not resolve to a credential", "x"),
			textCode: CredentialsErrorStateInvalid,
			status:   http.StatusUnauthorized,
		},
		{
			name:     "provider error",
			err:      fmt.Errorf("core: provider returned error access_denied"),
			textCode: CredentialsErrorProtocol,
			status:   http.StatusBadRequest,
		},
		{
			name:     "exchange failure",
			err:      fmt.Errorf("core: token exchange failed: boom"),
			textCode: CredentialsErrorTokenExchange,
			status:   http.StatusBadGateway,
		},
		{
			name:     "refresh failure",
			err:      fmt.Errorf("core: token refresh failed: boom"),
			textCode: CredentialsErrorTokenRefresh,
			status:   http.StatusBadGateway,
		},
		{
			name:     "abandoned flow",
			err:      fmt.Errorf("core: consent window closed before completion"),
			textCode: CredentialsErrorFlowAbandoned,
		},
		{
			name:     "not found",
			err:      ErrCredentialNotFound,
			textCode: CredentialsErrorNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "bad input",
			err:      fmt.Errorf("core: client id is required"),
			textCode: CredentialsErrorBadInput,
			status:   http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := credentialsErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if tc.status != 0 && mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestCredentialsErrorMapper_PassesThroughRichErrors(t *testing.T) {
	original := goerrors.New("custom", goerrors.CategoryBadInput).WithTextCode("CUSTOM_CODE")
	mapped := credentialsErrorMapper(original)
	if mapped.TextCode != "CUSTOM_CODE" {
		t.Fatalf("expected existing text code preserved, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected http code filled in, got %d", mapped.Code)
	}
}

func TestCredentialsErrorMapper_Nil(t *testing.T) {
	if credentialsErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}
