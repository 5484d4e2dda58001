package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// ProviderConfig is the OAuth application configuration supplied when a flow
// begins. ClientID and AuthorizationURL are mandatory; everything else is
// provider dependent.
type ProviderConfig struct {
	ClientID         string
	ClientSecret     string
	AuthorizationURL string
	TokenURL         string
	RedirectURI      string
	Scope            string
}

type BeginAuthorizationRequest struct {
	RoleID         string
	CompanyID      string
	DisplayName    string
	TargetEndpoint string
	Provider       ProviderConfig
	Metadata       map[string]any
}

type BeginAuthorizationResponse struct {
	CredentialID     string
	AuthorizationURL string
	Session          *ConsentSession
}

// CallbackRequest carries the raw query parameters of the provider redirect.
type CallbackRequest struct {
	Code             string
	State            string
	ErrorParam       string
	ErrorDescription string
}

type CallbackResult struct {
	Credential Credential
}

type RefreshOutcome string

const (
	RefreshOutcomeRefreshed RefreshOutcome = "refreshed"
	RefreshOutcomeSkipped   RefreshOutcome = "skipped"
	RefreshOutcomeFailed    RefreshOutcome = "failed"
)

type RefreshResult struct {
	Credential Credential
	Outcome    RefreshOutcome
}

// SweepReport aggregates one sweep invocation. Errors carries one entry per
// credential that failed; a failure never aborts the remaining candidates.
type SweepReport struct {
	Candidates int
	Refreshed  int
	Skipped    int
	Failed     int
	Errors     []string
}

type ListCredentialsFilter struct {
	RoleID     string
	CompanyID  string
	AuthKind   AuthKind
	ActiveOnly bool
}

type CredentialStore interface {
	Create(ctx context.Context, credential Credential) (Credential, error)
	Get(ctx context.Context, id string) (Credential, error)
	Update(ctx context.Context, credential Credential) (Credential, error)
	List(ctx context.Context, filter ListCredentialsFilter) ([]Credential, error)
	ListActiveOAuth(ctx context.Context) ([]Credential, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type IDGenerator func() string

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type StoreProvider interface {
	CredentialStore() CredentialStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// ProvisioningService is the mutating surface consumed by the command layer
// and the HTTP callback transport.
type ProvisioningService interface {
	BeginAuthorization(ctx context.Context, req BeginAuthorizationRequest) (BeginAuthorizationResponse, error)
	CompleteAuthorization(ctx context.Context, req CallbackRequest) (CallbackResult, error)
	RefreshCredential(ctx context.Context, id string) (RefreshResult, error)
	SweepRefresh(ctx context.Context) (SweepReport, error)
	Deactivate(ctx context.Context, id string, reason string) error
}

// CredentialReader is the read surface consumed by the query layer.
type CredentialReader interface {
	GetCredential(ctx context.Context, id string) (Credential, error)
	ListCredentials(ctx context.Context, filter ListCredentialsFilter) ([]Credential, error)
}
