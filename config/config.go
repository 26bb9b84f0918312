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

// Package config defines the autoscaler configuration model; the global
// settings and the list of per-target scaling specifications. Parsing from the
// environment is handled by the internal confload package.
package config

import (
	"errors"
	"fmt"
	"math"
)

// DefaultKind is the workload kind assumed when a target specification does
// not set deployment_type.
const DefaultKind = "Deployments"

// Config holds the full autoscaler configuration, loaded once at startup.
type Config struct {
	// APIURL is the base URL of the metric platform API.
	APIURL string
	// AppID identifies the application (tenant) on the metric platform.
	AppID string
	// AccessToken is the credential used to access the metric platform.
	AccessToken string
	// Interval is the polling interval in seconds shared by all targets.
	Interval int64
	// APIHost and APIPort are the bind address of the status API.
	APIHost string
	APIPort int
	// LogVerbosity sets the glog verbosity level.
	LogVerbosity int
	// Targets are the workloads under autoscaling management.
	Targets []TargetSpec
}

// TargetSpec is the immutable scaling specification for a single workload.
// The JSON field names match the scaler configuration format of the original
// CoScale autoscaler.
type TargetSpec struct {
	Namespace       string     `json:"namespace_name"`
	Workload        string     `json:"deployment_name"`
	Kind            string     `json:"deployment_type"`
	Metric          MetricSpec `json:"metric"`
	ScaleBackoffSec int64      `json:"scale_backoff_sec"`
	MinReplicas     int32      `json:"min_replicas"`
	MaxReplicas     int32      `json:"max_replicas"`
}

// MetricSpec describes the metric driving a target's scaling decisions and
// the bounds it is held between.
type MetricSpec struct {
	Name           string  `json:"name"`
	LowValue       float64 `json:"low_value"`
	HighValue      float64 `json:"high_value"`
	AvgIntervalSec int64   `json:"avg_interval_sec"`
}

// Validate checks the spec invariants. Specs are validated once at load time
// and never re-validated afterwards.
func (s TargetSpec) Validate() error {
	if s.Namespace == "" {
		return errors.New("namespace_name must be set")
	}
	if s.Workload == "" {
		return errors.New("deployment_name must be set")
	}
	if s.Metric.Name == "" {
		return errors.New("metric.name must be set")
	}
	if !isFinite(s.Metric.LowValue) || !isFinite(s.Metric.HighValue) {
		return errors.New("metric.low_value and metric.high_value must be finite")
	}
	if s.Metric.LowValue >= s.Metric.HighValue {
		return fmt.Errorf("metric.low_value (%f) must be less than metric.high_value (%f)",
			s.Metric.LowValue, s.Metric.HighValue)
	}
	if s.Metric.AvgIntervalSec <= 0 {
		return fmt.Errorf("metric.avg_interval_sec must be greater than 0, got %d", s.Metric.AvgIntervalSec)
	}
	if s.ScaleBackoffSec < 0 {
		return fmt.Errorf("scale_backoff_sec must not be negative, got %d", s.ScaleBackoffSec)
	}
	if s.MinReplicas < 0 {
		return fmt.Errorf("min_replicas must not be negative, got %d", s.MinReplicas)
	}
	if s.MaxReplicas < s.MinReplicas {
		return fmt.Errorf("max_replicas (%d) must not be less than min_replicas (%d)",
			s.MaxReplicas, s.MinReplicas)
	}
	return nil
}

func (s TargetSpec) String() string {
	return fmt.Sprintf("\"%s\" on \"%s:%s\"", s.Metric.Name, s.Namespace, s.Workload)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
