package instagramconnect

import "github.com/goliatone/go-instagram-connect/core"

type Config = core.Config

type AppConfig = core.AppConfig
type StateConfig = core.StateConfig
type TokenConfig = core.TokenConfig
type RedirectConfig = core.RedirectConfig
type DiagnosticsConfig = core.DiagnosticsConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type StateRegistry = core.StateRegistry
type TokenStore = core.TokenStore
type GraphClient = core.GraphClient
type MetricsRecorder = core.MetricsRecorder

type ConnectRequest = core.ConnectRequest
type BeginConnectResponse = core.BeginConnectResponse
type CallbackRequest = core.CallbackRequest
type CallbackResult = core.CallbackResult
type Account = core.Account
type AccountSnapshot = core.AccountSnapshot

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithStateRegistry   = core.WithStateRegistry
	WithTokenStore      = core.WithTokenStore
	WithGraphClient     = core.WithGraphClient
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
