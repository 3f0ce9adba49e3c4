package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

var errBadAddress = errors.New("need address in a form `host:port`")

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses configuration flags from args and returns the positional
// arguments that follow them.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-grpc-address grpc server address in format [host]:[port]
//	-d remote database DSN
//	-l local SQLite database path
//	-s schema artifact path
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "30m")
//	-request-timeout server request timeout (e.g., "30s", "1m")
//	-hash-key push payload hash key
//	-remote remote HTTP API address used by the client
//	-remote-grpc remote gRPC address used by the client
//	-transport client transport, http or grpc
//	-sync-interval client sync period
//	-device-id device identity override
//	-log-level log level
//	-log-file client log file
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var serverAddress, grpcServerAddress NetAddress
	var databaseDSN string
	var localPath string
	var schemaPath string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var hashKey string
	var remoteAddress, remoteGRPCAddress string
	var transport string
	var syncInterval time.Duration
	var deviceID string
	var logLevel, logFile string

	fs := flag.NewFlagSet("offline-sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc server address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&localPath, "l", "", "Local SQLite database path")
	fs.StringVar(&schemaPath, "s", "", "Schema artifact path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&hashKey, "hash-key", "", "Push payload hash key")
	fs.StringVar(&remoteAddress, "remote", "", "Remote HTTP API address")
	fs.StringVar(&remoteGRPCAddress, "remote-grpc", "", "Remote gRPC address")
	fs.StringVar(&transport, "transport", "", "Client transport: http or grpc")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Sync period (e.g., 30s)")
	fs.StringVar(&deviceID, "device-id", "", "Device identity override")
	fs.StringVar(&logLevel, "log-level", "", "Log level")
	fs.StringVar(&logFile, "log-file", "", "Client log file")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
			HashKey:       hashKey,
			DeviceID:      deviceID,
		},
		Storage: Storage{
			DB:    DB{DSN: databaseDSN},
			Local: Local{Path: localPath},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			GRPCAddress:    grpcServerAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress: remoteAddress,
			GRPCAddress: remoteGRPCAddress,
			Transport:   transport,
		},
		Workers:      Workers{SyncInterval: syncInterval},
		Schema:       Schema{ArtifactPath: schemaPath},
		Log:          Log{Level: logLevel, Path: logFile},
		JSONFilePath: jsonConfigPath,
	}, fs.Args(), nil
}

// String returns host:port, or "" when nothing was set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set accepts host:port where host is empty, "localhost" or an IP literal.
// IPv6 hosts are written in brackets.
func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errBadAddress, err)
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return fmt.Errorf("%w: port %q: %w", errBadAddress, rawPort, err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", errBadAddress, port)
	}

	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("%w: host %q is not an IP address", errBadAddress, host)
	}

	a.Host = host
	a.Port = port
	return nil
}
