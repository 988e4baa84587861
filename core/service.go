package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service orchestrates the Facebook Login handshake: it issues CSRF state on
// connect, and on callback exchanges the code, upgrades the token, resolves
// the linked Instagram business account, and saves the credential record.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	stateRegistry   StateRegistry
	tokenStore      TokenStore
	graphClient     GraphClient
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	StateRegistry   StateRegistry
	TokenStore      TokenStore
	GraphClient     GraphClient
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("instagram-connect", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("instagram-connect"); named != nil {
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

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.stateRegistry == nil {
		builder.stateRegistry = NewMemoryStateRegistry(finalConfig.State.TTL)
	}
	if builder.tokenStore == nil {
		builder.tokenStore = NewMemoryTokenStore(finalConfig.Tokens.DefaultValidity)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		stateRegistry:   builder.stateRegistry,
		tokenStore:      builder.tokenStore,
		graphClient:     builder.graphClient,
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

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		StateRegistry:   s.stateRegistry,
		TokenStore:      s.tokenStore,
		GraphClient:     s.graphClient,
	}
}

// Connect begins a flow: it issues a state token and returns the upstream
// authorization URL the web layer should redirect to.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (response BeginConnectResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if s == nil || s.graphClient == nil {
		err = s.mapError(fmt.Errorf("core: graph client is required"))
		return BeginConnectResponse{}, err
	}
	if s.stateRegistry == nil {
		err = s.mapError(fmt.Errorf("core: state registry is required"))
		return BeginConnectResponse{}, err
	}

	state, err := s.stateRegistry.Issue(ctx)
	if err != nil {
		err = s.mapError(err)
		return BeginConnectResponse{}, err
	}

	authURL, err := s.graphClient.AuthorizationURL(state)
	if err != nil {
		err = s.mapError(err)
		return BeginConnectResponse{}, err
	}

	return BeginConnectResponse{URL: authURL, State: state}, nil
}

// CompleteCallback drives AwaitingCallback to a terminal state. The four
// upstream calls run sequentially; the first failure fails the whole flow
// with no retry. A missing linked business account is not a failure.
func (s *Service) CompleteCallback(ctx context.Context, req CallbackRequest) (result CallbackResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["flow_status"] = string(result.Status)
		if result.UserID != "" {
			fields["user_id"] = result.UserID
		}
		if result.Account.BusinessAccountID != "" {
			fields["business_account_id"] = result.Account.BusinessAccountID
		}
		s.observeOperation(ctx, startedAt, "complete_callback", err, fields)
	}()

	result.Status = FlowStatusFailed

	if s == nil || s.graphClient == nil {
		err = s.mapError(fmt.Errorf("core: graph client is required"))
		return result, err
	}
	if s.tokenStore == nil {
		err = s.mapError(fmt.Errorf("core: token store is required"))
		return result, err
	}

	if req.Denied() {
		err = s.mapError(s.errorFactory(req.DenialReason(), goerrors.CategoryAuth).
			WithTextCode(ConnectErrorUpstreamDenied))
		return result, err
	}
	// CSRF checks come before any network call; a bad state must not trigger
	// an exchange.
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.State) == "" {
		err = s.mapError(fmt.Errorf("%w: code or state missing", ErrStateInvalid))
		return result, err
	}
	if s.stateRegistry == nil || !s.stateRegistry.Validate(ctx, req.State) {
		err = s.mapError(ErrStateInvalid)
		return result, err
	}

	shortLived, exchangeErr := s.graphClient.ExchangeCode(ctx, req.Code)
	if exchangeErr != nil {
		err = s.mapError(fmt.Errorf("%w: code exchange: %v", ErrExchangeFailed, exchangeErr))
		return result, err
	}
	longLived, upgradeErr := s.graphClient.ExchangeLongLived(ctx, shortLived.AccessToken)
	if upgradeErr != nil {
		err = s.mapError(fmt.Errorf("%w: long-lived upgrade: %v", ErrExchangeFailed, upgradeErr))
		return result, err
	}
	identity, identityErr := s.graphClient.Identity(ctx, longLived.AccessToken)
	if identityErr != nil {
		err = s.mapError(fmt.Errorf("%w: identity lookup: %v", ErrExchangeFailed, identityErr))
		return result, err
	}
	pages, pagesErr := s.graphClient.ManagedPages(ctx, longLived.AccessToken)
	if pagesErr != nil {
		err = s.mapError(fmt.Errorf("%w: page discovery: %v", ErrExchangeFailed, pagesErr))
		return result, err
	}

	input := SaveAccountInput{
		AccessToken: longLived.AccessToken,
		TokenType:   longLived.TokenType,
		ExpiresIn:   longLived.ExpiresIn,
	}
	// First managed page with a linked business account wins; users managing
	// several linked pages get the first in upstream order.
	for _, page := range pages {
		if strings.TrimSpace(page.BusinessAccountID) == "" {
			continue
		}
		input.BusinessAccountID = page.BusinessAccountID
		input.BusinessAccountHandle = page.Name
		input.DelegatedAccessToken = page.AccessToken
		break
	}

	account, saveErr := s.tokenStore.Save(ctx, identity.ID, input)
	if saveErr != nil {
		err = s.mapError(saveErr)
		return result, err
	}

	result = CallbackResult{
		Status:  FlowStatusComplete,
		UserID:  identity.ID,
		Account: account,
	}
	return result, nil
}

// AccountForUser returns the unexpired record for userID, distinguishing
// not-found from other failures.
func (s *Service) AccountForUser(ctx context.Context, userID string) (Account, error) {
	if s == nil || s.tokenStore == nil {
		return Account{}, s.mapError(fmt.Errorf("core: token store is required"))
	}
	account, found, err := s.tokenStore.Get(ctx, userID)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	if !found {
		return Account{}, s.mapError(fmt.Errorf("%w: %s", ErrAccountNotFound, strings.TrimSpace(userID)))
	}
	return account, nil
}

// DisconnectUser removes the record for userID, reporting whether anything
// was removed.
func (s *Service) DisconnectUser(ctx context.Context, userID string) (bool, error) {
	if s == nil || s.tokenStore == nil {
		return false, s.mapError(fmt.Errorf("core: token store is required"))
	}
	removed, err := s.tokenStore.Delete(ctx, userID)
	if err != nil {
		return false, s.mapError(err)
	}
	return removed, nil
}

// ListAccounts is the diagnostic listing; it is rejected unless diagnostics
// are enabled in configuration.
func (s *Service) ListAccounts(ctx context.Context) ([]AccountSnapshot, error) {
	if s == nil || s.tokenStore == nil {
		return nil, s.mapError(fmt.Errorf("core: token store is required"))
	}
	if !s.config.Diagnostics.ExposeAccounts {
		return nil, s.mapError(s.errorFactory(
			"core: account listing is disabled outside diagnostics configuration",
			goerrors.CategoryAuthz,
		).WithTextCode(ConnectErrorDiagnosticsDisabled))
	}
	snapshots, err := s.tokenStore.ListAll(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return snapshots, nil
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
