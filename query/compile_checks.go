package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-credentials/core"
)

var (
	_ gocmd.Querier[GetCredentialMessage, core.Credential]     = (*GetCredentialQuery)(nil)
	_ gocmd.Querier[ListCredentialsMessage, []core.Credential] = (*ListCredentialsQuery)(nil)
)
