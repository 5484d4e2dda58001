package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service orchestrates OAuth credential provisioning: authorization
// initiation, callback completion, proactive refresh, and reads.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	credentialStore   CredentialStore
	secretCodec       SecretCodec
	consentBroker     *ConsentBroker
	tokenClient       *tokenClient
	idGenerator       IDGenerator
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	CredentialStore   CredentialStore
	SecretCodec       SecretCodec
	ConsentBroker     *ConsentBroker
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("credentials", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("credentials"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.secretCodec == nil {
		builder.secretCodec = JSONSecretCodec{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.credentialStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.credentialStore = storeProvider.CredentialStore()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.credentialStore = storeProvider.CredentialStore()
		}
	}

	if builder.consentBroker == nil {
		builder.consentBroker = NewConsentBroker(finalConfig.Consent)
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		credentialStore:   builder.credentialStore,
		secretCodec:       builder.secretCodec,
		consentBroker:     builder.consentBroker,
		tokenClient:       newTokenClient(builder.httpClient, finalConfig.Refresh.RequestTimeout, builder.now),
		idGenerator:       builder.idGenerator,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) ConsentBroker() *ConsentBroker {
	if s == nil {
		return nil
	}
	return s.consentBroker
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		CredentialStore:   s.credentialStore,
		SecretCodec:       s.secretCodec,
		ConsentBroker:     s.consentBroker,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) requireStore() (CredentialStore, error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	if s.credentialStore == nil {
		return nil, fmt.Errorf("core: credential store is not configured")
	}
	return s.credentialStore, nil
}

func (s *Service) decodeMaterial(credential Credential) (SecretMaterial, error) {
	codec := s.secretCodec
	if codec == nil {
		codec = JSONSecretCodec{}
	}
	material, err := codec.Decode(credential.SecretPayload)
	if err != nil {
		return SecretMaterial{}, fmt.Errorf("core: decode secret material for credential %q: %w", credential.ID, err)
	}
	return material, nil
}

func (s *Service) encodeMaterial(material SecretMaterial) ([]byte, error) {
	codec := s.secretCodec
	if codec == nil {
		codec = JSONSecretCodec{}
	}
	payload, err := codec.Encode(material)
	if err != nil {
		return nil, fmt.Errorf("core: encode secret material: %w", err)
	}
	return payload, nil
}

// GetCredential loads a single credential by id.
func (s *Service) GetCredential(ctx context.Context, id string) (Credential, error) {
	if s == nil {
		return Credential{}, fmt.Errorf("core: service is nil")
	}
	store, err := s.requireStore()
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Credential{}, s.mapError(fmt.Errorf("core: credential id is required"))
	}
	credential, err := store.Get(ctx, id)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential, nil
}

// ListCredentials lists credentials matching the filter.
func (s *Service) ListCredentials(ctx context.Context, filter ListCredentialsFilter) ([]Credential, error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	store, err := s.requireStore()
	if err != nil {
		return nil, s.mapError(err)
	}
	records, err := store.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return records, nil
}

// Deactivate flips a credential inactive without deleting its stored
// material. The status moves to refresh_failed so the record is excluded
// from sweeps until reconnected.
func (s *Service) Deactivate(ctx context.Context, id string, reason string) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	startedAt := s.now()
	store, err := s.requireStore()
	if err != nil {
		return s.mapError(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return s.mapError(fmt.Errorf("core: credential id is required"))
	}

	credential, err := store.Get(ctx, id)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "deactivate", mapped, map[string]any{"credential_id": id})
		return mapped
	}

	material, err := s.decodeMaterial(credential)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "deactivate", mapped, map[string]any{"credential_id": id})
		return mapped
	}

	if material.Status == SecretStatusConnected {
		if transitionErr := material.Status.TransitionTo(SecretStatusRefreshFailed); transitionErr != nil {
			mapped := s.mapError(transitionErr)
			s.observeOperation(ctx, startedAt, "deactivate", mapped, map[string]any{"credential_id": id})
			return mapped
		}
		material.Status = SecretStatusRefreshFailed
	}
	material.LastError = strings.TrimSpace(reason)

	payload, err := s.encodeMaterial(material)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "deactivate", mapped, map[string]any{"credential_id": id})
		return mapped
	}
	credential.SecretPayload = payload
	credential.syncActiveFlag(material.Status)
	credential.UpdatedAt = s.now()

	if _, err := store.Update(ctx, credential); err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "deactivate", mapped, map[string]any{"credential_id": id})
		return mapped
	}

	s.observeOperation(ctx, startedAt, "deactivate", nil, map[string]any{
		"credential_id": id,
		"reason":        strings.TrimSpace(reason),
	})
	return nil
}

var (
	_ ProvisioningService = (*Service)(nil)
	_ CredentialReader    = (*Service)(nil)
)
