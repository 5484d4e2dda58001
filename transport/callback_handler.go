package transport

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/goliatone/go-credentials/core"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// CallbackCompleter is the slice of the provisioning service the HTTP
// callback surface needs.
type CallbackCompleter interface {
	CompleteAuthorization(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
}

const (
	consentMessageSuccess = "oauth-success"
	consentMessageError   = "oauth-error"
)

// CallbackHandler terminates the provider redirect leg of the consent flow.
// It parses the redirect query, finalizes the credential through the
// provisioning service, and renders a page that reports the outcome to the
// opener window via postMessage. The message target is always the configured
// application origin; a wildcard target is rejected at construction.
type CallbackHandler struct {
	service   CallbackCompleter
	appOrigin string
	logger    core.Logger
}

type CallbackOption func(*CallbackHandler)

func WithCallbackLogger(logger core.Logger) CallbackOption {
	return func(h *CallbackHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewCallbackHandler(service CallbackCompleter, appOrigin string, opts ...CallbackOption) (*CallbackHandler, error) {
	if service == nil {
		return nil, transportError(
			"transport: callback completer is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			nil,
		)
	}
	appOrigin = strings.TrimSpace(appOrigin)
	if appOrigin == "" || appOrigin == "*" {
		return nil, transportError(
			"transport: callback app origin must be a concrete origin",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"app_origin": appOrigin},
		)
	}

	_, logger := glog.Resolve("credentials.transport", nil, nil)
	handler := &CallbackHandler{
		service:   service,
		appOrigin: appOrigin,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler, nil
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "callback handler is not configured", http.StatusInternalServerError)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	req := core.CallbackRequest{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		ErrorParam:       query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	result, err := h.service.CompleteAuthorization(r.Context(), req)
	if err != nil {
		h.logger.Error("authorization callback failed", "error", err, "state", req.State)
		h.render(w, callbackErrorStatus(err), consentPage{
			TargetOrigin: h.appOrigin,
			Message: consentMessage{
				Type:   consentMessageError,
				Detail: callbackErrorDetail(err),
			},
			Headline: "Authorization failed",
			Body:     "The connection could not be completed. You can close this window and try again.",
		})
		return
	}

	h.logger.Info("authorization callback completed",
		"credential_id", result.Credential.ID,
		"display_name", result.Credential.DisplayName,
	)
	h.render(w, http.StatusOK, consentPage{
		TargetOrigin: h.appOrigin,
		Message: consentMessage{
			Type: consentMessageSuccess,
		},
		Headline: "Authorization complete",
		Body:     "The connection is ready. This window will close itself.",
	})
}

type consentMessage struct {
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`
}

type consentPage struct {
	TargetOrigin string
	Message      consentMessage
	Headline     string
	Body         string
}

func (h *CallbackHandler) render(w http.ResponseWriter, status int, page consentPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := consentPageTemplate.Execute(w, page); err != nil {
		h.logger.Error("render consent page", "error", err)
	}
}

func callbackErrorStatus(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

func callbackErrorDetail(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if strings.TrimSpace(richErr.TextCode) != "" {
			return richErr.TextCode
		}
	}
	return core.CredentialsErrorInternal
}

// The script posts the outcome to the window that opened the consent popup.
// html/template JSON-encodes .Message and .TargetOrigin inside the script
// context, so no provider-controlled text reaches the page unescaped.
var consentPageTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Headline}}</title>
</head>
<body>
<p>{{.Body}}</p>
<script>
(function () {
	if (window.opener) {
		window.opener.postMessage({{.Message}}, {{.TargetOrigin}});
	}
	window.close();
})();
</script>
</body>
</html>
`))
