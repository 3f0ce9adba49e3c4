package config

import "time"

// defaultConfig is merged last, so it only fills fields no other source set.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   "go-offline-sync",
			TokenDuration: 24 * time.Hour,
		},
		Storage: Storage{
			Local: Local{Path: "offline-sync.db"},
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			HTTPAddress:    "localhost:8080",
			Transport:      TransportHTTP,
			RequestTimeout: 15 * time.Second,
		},
		Workers: Workers{
			SyncInterval:         30 * time.Second,
			MaxBackoff:           5 * time.Minute,
			PushBatchSize:        100,
			PullPageSize:         500,
			IdempotencyRetention: 30 * 24 * time.Hour,
			PruneInterval:        time.Hour,
		},
		Log: Log{Level: "info"},
	}
}
