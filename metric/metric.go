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

// Package metric defines the model for time series data retrieved from the
// metric platform; resolved metric identities, telemetry subjects and sample
// windows.
package metric

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Metric is a metric identity resolved on the metric platform, immutable
// after resolution.
type Metric struct {
	// Name is the metric name the platform filed the series under.
	Name string `json:"name"`
	// Unit is the unit reported by the platform's metric metadata, may be
	// empty.
	Unit string `json:"unit,omitempty"`
}

// Subject identifies the telemetry of a single workload; the label matchers
// that select its series on the metric platform. Immutable after resolution.
type Subject struct {
	Namespace string            `json:"namespace"`
	Selector  map[string]string `json:"selector,omitempty"`
}

// Matchers returns the subject's label matchers in a deterministic order;
// the namespace first, then the selector labels sorted by name.
func (s Subject) Matchers() []string {
	matchers := []string{fmt.Sprintf("namespace=%q", s.Namespace)}
	keys := make([]string, 0, len(s.Selector))
	for k := range s.Selector {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		matchers = append(matchers, fmt.Sprintf("%s=%q", k, s.Selector[k]))
	}
	return matchers
}

func (s Subject) String() string {
	return "{" + strings.Join(s.Matchers(), ",") + "}"
}

// Sample is a single observation of a metric at a point in time.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Window is a time bounded sequence of samples for one series.
type Window []Sample

// Average returns the arithmetic mean of the window's values. The mean is
// independent of sample order. An empty window averages to 0; callers that
// need to distinguish absence must check the length first.
func (w Window) Average() float64 {
	if len(w) == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range w {
		sum += sample.Value
	}
	return sum / float64(len(w))
}
