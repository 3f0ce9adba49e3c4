package config

import (
	"fmt"
	"time"
)

// Transport names accepted by ADAPTER_TRANSPORT.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// HashKey is the HMAC key used by the client for payload integrity checks.
	HashKey string
	// DeviceID overrides the stored device identity when non-empty.
	DeviceID string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint address used by the client.
	HTTPAddress string
	// GRPCAddress is the gRPC endpoint address used by the client.
	GRPCAddress string
	// Transport is TransportHTTP or TransportGRPC.
	Transport string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// LocalPath is the SQLite database file.
	LocalPath string
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the sync job runs.
	SyncInterval time.Duration
	// MaxBackoff caps the delay between retries after transient failures.
	MaxBackoff time.Duration
	// PushBatchSize bounds a single push call.
	PushBatchSize int
	// PullPageSize bounds a single pull page.
	PullPageSize int
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
	// Schema locates the schema artifact.
	Schema Schema
	// Log holds the log level and file.
	Log Log
	// Args are the positional arguments left after flag parsing.
	Args []string
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, rest, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			HashKey:  cfg.App.HashKey,
			DeviceID: cfg.App.DeviceID,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			GRPCAddress:    cfg.Adapter.GRPCAddress,
			Transport:      cfg.Adapter.Transport,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			LocalPath: cfg.Storage.Local.Path,
		},
		Workers: ClientWorkers{
			SyncInterval:  cfg.Workers.SyncInterval,
			MaxBackoff:    cfg.Workers.MaxBackoff,
			PushBatchSize: cfg.Workers.PushBatchSize,
			PullPageSize:  cfg.Workers.PullPageSize,
		},
		Schema: cfg.Schema,
		Log:    cfg.Log,
		Args:   rest,
	}

	return clientCfg, clientCfg.validate()
}
