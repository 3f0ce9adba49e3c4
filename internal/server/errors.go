package server

import "errors"

var (
	// neither an HTTP nor a gRPC address has a handler
	errNoServersAreCreated = errors.New("no servers are created")
	errNoServersToRun      = errors.New("no servers to run")
)
