package credentials

import "github.com/goliatone/go-credentials/core"

type Config = core.Config

type RefreshConfig = core.RefreshConfig

type ConsentConfig = core.ConsentConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type CredentialStore = core.CredentialStore
type StoreProvider = core.StoreProvider
type RepositoryStoreFactory = core.RepositoryStoreFactory
type SecretCodec = core.SecretCodec
type MetricsRecorder = core.MetricsRecorder
type ConsentSession = core.ConsentSession
type ConsentBroker = core.ConsentBroker
type ConsentOutcome = core.ConsentOutcome
type ConsentSignal = core.ConsentSignal

type Credential = core.Credential
type SecretMaterial = core.SecretMaterial
type SecretStatus = core.SecretStatus
type AuthKind = core.AuthKind

type BeginAuthorizationRequest = core.BeginAuthorizationRequest
type BeginAuthorizationResponse = core.BeginAuthorizationResponse
type CallbackRequest = core.CallbackRequest
type CallbackResult = core.CallbackResult
type RefreshResult = core.RefreshResult
type SweepReport = core.SweepReport
type ListCredentialsFilter = core.ListCredentialsFilter
type ProviderConfig = core.ProviderConfig

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithCredentialStore   = core.WithCredentialStore
	WithSecretCodec       = core.WithSecretCodec
	WithConsentBroker     = core.WithConsentBroker
	WithHTTPClient        = core.WithHTTPClient
	WithIDGenerator       = core.WithIDGenerator
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
