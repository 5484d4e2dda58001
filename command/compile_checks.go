package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[BeginAuthorizationMessage] = (*BeginAuthorizationCommand)(nil)
	_ gocmd.Commander[CompleteCallbackMessage]   = (*CompleteCallbackCommand)(nil)
	_ gocmd.Commander[RefreshCredentialMessage]  = (*RefreshCredentialCommand)(nil)
	_ gocmd.Commander[SweepRefreshMessage]       = (*SweepRefreshCommand)(nil)
	_ gocmd.Commander[DeactivateMessage]         = (*DeactivateCommand)(nil)
)
