// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// environ is the variable set parseEnv reads. Durations accept Go syntax
// ("30s", "1h").
var environ = func() map[string]string {
	return env.ToMap(os.Environ())
}

// parseEnv fills cfg from the `env`/`envPrefix` tags of [StructuredConfig].
// Unset variables leave fields zero so later sources can fill them.
func parseEnv(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ()}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
