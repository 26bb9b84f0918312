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

// Package metricsource provides access to the external metric platform,
// resolving metric names and fetching sample windows through a Prometheus
// compatible HTTP API.
package metricsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coscale/kubernetes-autoscaler/metric"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// ErrMetricNotFound is returned when the platform has no metric with the
// requested name.
var ErrMetricNotFound = errors.New("metric not found")

// Gateway is the uniform interface to the metric platform. Implementations
// must tolerate concurrent calls from multiple targets.
type Gateway interface {
	// ResolveMetric looks up a metric by name, returning an error wrapping
	// ErrMetricNotFound if the platform does not know it.
	ResolveMetric(ctx context.Context, name string) (*metric.Metric, error)
	// FetchWindows retrieves the sample windows for a metric and subject over
	// [start, end]; one window per series matching the subject.
	FetchWindows(ctx context.Context, m *metric.Metric, subject metric.Subject, start time.Time, end time.Time) ([]metric.Window, error)
}

// defaultQueryStep is the sample resolution requested from the platform.
const defaultQueryStep = 15 * time.Second

// Prometheus is a Gateway backed by a Prometheus compatible HTTP API.
type Prometheus struct {
	API  promv1.API
	Step time.Duration
}

// NewPrometheus creates a Gateway for the platform at apiURL. The application
// identity and access token are optional; when set they are attached to every
// request as the tenant header and a bearer token.
func NewPrometheus(apiURL string, appID string, accessToken string) (*Prometheus, error) {
	roundTripper := api.DefaultRoundTripper
	if appID != "" || accessToken != "" {
		roundTripper = &authRoundTripper{
			appID:       appID,
			accessToken: accessToken,
			next:        roundTripper,
		}
	}
	client, err := api.NewClient(api.Config{
		Address:      apiURL,
		RoundTripper: roundTripper,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metric platform client: %w", err)
	}
	return &Prometheus{
		API:  promv1.NewAPI(client),
		Step: defaultQueryStep,
	}, nil
}

// ResolveMetric looks the metric up in the platform's metadata, which also
// carries the unit used in check log lines.
func (p *Prometheus) ResolveMetric(ctx context.Context, name string) (*metric.Metric, error) {
	metadata, err := p.API.Metadata(ctx, name, "1")
	if err != nil {
		return nil, fmt.Errorf("failed to look up metric '%s': %w", name, err)
	}
	entries := metadata[name]
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrMetricNotFound, name)
	}
	return &metric.Metric{
		Name: name,
		Unit: entries[0].Unit,
	}, nil
}

// FetchWindows runs a range query selecting the subject's series and converts
// each returned series into a window of samples.
func (p *Prometheus) FetchWindows(ctx context.Context, m *metric.Metric, subject metric.Subject, start time.Time, end time.Time) ([]metric.Window, error) {
	query := m.Name + subject.String()
	result, warnings, err := p.API.QueryRange(ctx, query, promv1.Range{
		Start: start,
		End:   end,
		Step:  p.Step,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query metric data for '%s': %w", query, err)
	}
	for _, warning := range warnings {
		glog.V(1).Infof("Warning from metric platform for query '%s': %s", query, warning)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type '%s' for query '%s'", result.Type(), query)
	}

	windows := make([]metric.Window, 0, len(matrix))
	for _, series := range matrix {
		window := make(metric.Window, 0, len(series.Values))
		for _, pair := range series.Values {
			window = append(window, metric.Sample{
				Timestamp: pair.Timestamp.Time(),
				Value:     float64(pair.Value),
			})
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// authRoundTripper attaches the application identity and access token to
// outgoing metric platform requests.
type authRoundTripper struct {
	appID       string
	accessToken string
	next        http.RoundTripper
}

func (a *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if a.appID != "" {
		req.Header.Set("X-Scope-OrgID", a.appID)
	}
	if a.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.accessToken)
	}
	return a.next.RoundTrip(req)
}
