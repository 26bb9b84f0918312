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

// Package fake provides fake implementations of the autoscaler's interfaces
// for testing, configured through reactor functions.
package fake

import (
	"context"
	"time"

	"github.com/coscale/kubernetes-autoscaler/metric"
)

// Gateway is a fake metric gateway that allows injecting reactors for its
// methods.
type Gateway struct {
	ResolveMetricReactor func(ctx context.Context, name string) (*metric.Metric, error)
	FetchWindowsReactor  func(ctx context.Context, m *metric.Metric, subject metric.Subject, start time.Time, end time.Time) ([]metric.Window, error)
}

// ResolveMetric calls the fake's ResolveMetricReactor.
func (g *Gateway) ResolveMetric(ctx context.Context, name string) (*metric.Metric, error) {
	return g.ResolveMetricReactor(ctx, name)
}

// FetchWindows calls the fake's FetchWindowsReactor.
func (g *Gateway) FetchWindows(ctx context.Context, m *metric.Metric, subject metric.Subject, start time.Time, end time.Time) ([]metric.Window, error) {
	return g.FetchWindowsReactor(ctx, m, subject, start, end)
}
