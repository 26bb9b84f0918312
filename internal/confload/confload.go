/*
Copyright 2022 The CoScale Autoscaler Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package confload handles loading in configuration - parsing environment
// variable input into an autoscaler configuration struct. Contains a set of
// defaults that can be overridden by the provided env vars. The target list
// uses the scaler configuration format of the original CoScale autoscaler.
package confload

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/coscale/kubernetes-autoscaler/config"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// Environment variable names read by the autoscaler.
const (
	APIURLEnvName       = "API_URL"
	AppIDEnvName        = "APP_ID"
	AccessTokenEnvName  = "ACCESS_TOKEN"
	ScalerConfigEnvName = "SCALER_CONFIG"
	IntervalEnvName     = "CHECK_INTERVAL"
	APIHostEnvName      = "API_HOST"
	APIPortEnvName      = "API_PORT"
	LogVerbosityEnvName = "LOG_VERBOSITY"
)

const (
	defaultAPIURL       = "http://prometheus:9090"
	defaultInterval     = 60
	defaultAPIHost      = "0.0.0.0"
	defaultAPIPort      = 5000
	defaultLogVerbosity = 0
)

// Load builds the configuration from the defaults overridden by the provided
// env vars, and validates every target specification. SCALER_CONFIG is
// required; it holds the JSON (or YAML) list of target specifications.
func Load(envVars map[string]string) (*config.Config, error) {
	cfg := newDefaultConfig()

	if value, exists := envVars[APIURLEnvName]; exists {
		cfg.APIURL = value
	}
	if value, exists := envVars[AppIDEnvName]; exists {
		cfg.AppID = value
	}
	if value, exists := envVars[AccessTokenEnvName]; exists {
		cfg.AccessToken = value
	}
	if value, exists := envVars[IntervalEnvName]; exists {
		interval, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s is not a valid number of seconds: %w", IntervalEnvName, err)
		}
		cfg.Interval = interval
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%s must be greater than 0, got %d", IntervalEnvName, cfg.Interval)
	}
	if value, exists := envVars[APIHostEnvName]; exists {
		cfg.APIHost = value
	}
	if value, exists := envVars[APIPortEnvName]; exists {
		port, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s is not a valid port: %w", APIPortEnvName, err)
		}
		cfg.APIPort = port
	}
	if value, exists := envVars[LogVerbosityEnvName]; exists {
		verbosity, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s is not a valid verbosity level: %w", LogVerbosityEnvName, err)
		}
		cfg.LogVerbosity = verbosity
	}

	rawTargets, exists := envVars[ScalerConfigEnvName]
	if !exists || rawTargets == "" {
		return nil, errors.New("missing required environment variable " + ScalerConfigEnvName)
	}
	err := yaml.NewYAMLOrJSONDecoder(bytes.NewReader([]byte(rawTargets)), 10).Decode(&cfg.Targets)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid target list: %w", ScalerConfigEnvName, err)
	}

	for i := range cfg.Targets {
		if cfg.Targets[i].Kind == "" {
			cfg.Targets[i].Kind = config.DefaultKind
		}
		if err := cfg.Targets[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid target specification %s: %w", cfg.Targets[i], err)
		}
	}

	return cfg, nil
}

func newDefaultConfig() *config.Config {
	return &config.Config{
		APIURL:       defaultAPIURL,
		Interval:     defaultInterval,
		APIHost:      defaultAPIHost,
		APIPort:      defaultAPIPort,
		LogVerbosity: defaultLogVerbosity,
	}
}
