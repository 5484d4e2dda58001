package transport

import (
	"net/http"

	"github.com/goliatone/go-credentials/core"
)

var (
	_ http.Handler      = (*CallbackHandler)(nil)
	_ CallbackCompleter = (core.ProvisioningService)(nil)
)
