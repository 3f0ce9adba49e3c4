// Package config provides configuration loading, merging, and validation
// facilities for the remote sync service and the offline sync client.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetServerConfig] for the remote sync service
// and [GetClientConfig] for the client.
package config
