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

package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coscale/kubernetes-autoscaler/config"
	apiv1 "github.com/coscale/kubernetes-autoscaler/internal/api/v1"
	"github.com/coscale/kubernetes-autoscaler/internal/fake"
	"github.com/coscale/kubernetes-autoscaler/internal/scaling"
	"github.com/coscale/kubernetes-autoscaler/internal/target"
	"github.com/coscale/kubernetes-autoscaler/metric"
	"github.com/go-chi/chi"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func testTarget(t *testing.T) *target.Target {
	gateway := &fake.Gateway{
		ResolveMetricReactor: func(ctx context.Context, name string) (*metric.Metric, error) {
			return &metric.Metric{Name: name, Unit: "messages"}, nil
		},
		FetchWindowsReactor: func(ctx context.Context, m *metric.Metric, subject metric.Subject, start time.Time, end time.Time) ([]metric.Window, error) {
			return nil, nil
		},
	}
	scaler := &fake.Scaler{
		ResolveReactor: func(ctx context.Context, namespace string, kind string, name string) (*scaling.Workload, *metric.Subject, error) {
			return &scaling.Workload{
					Namespace: namespace,
					Name:      name,
					Resource:  schema.GroupResource{Group: "apps", Resource: "deployments"},
				}, &metric.Subject{
					Namespace: namespace,
					Selector:  map[string]string{"app": name},
				}, nil
		},
	}

	tgt, err := target.New(context.Background(), config.TargetSpec{
		Namespace: "default",
		Workload:  "queue-worker",
		Kind:      "Deployments",
		Metric: config.MetricSpec{
			Name:           "queue_length",
			LowValue:       10,
			HighValue:      50,
			AvgIntervalSec: 300,
		},
		ScaleBackoffSec: 600,
		MinReplicas:     1,
		MaxReplicas:     5,
	}, gateway, scaler)
	if err != nil {
		t.Fatalf("unexpected error creating target: %v", err)
	}
	return tgt
}

func newTestAPI(t *testing.T) *apiv1.API {
	api := &apiv1.API{
		Router:  chi.NewRouter(),
		Targets: []*target.Target{testTarget(t)},
	}
	api.Routes()
	return api
}

func TestAPI_GetTargets(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/targets", nil)
	recorder := httptest.NewRecorder()
	api.Router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	statuses := []target.Status{}
	err := json.Unmarshal(recorder.Body.Bytes(), &statuses)
	if err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 target status, got %d", len(statuses))
	}
	if statuses[0].Workload != "queue-worker" {
		t.Errorf("expected workload 'queue-worker', got '%s'", statuses[0].Workload)
	}
	if statuses[0].Metric.Name != "queue_length" {
		t.Errorf("expected metric 'queue_length', got '%s'", statuses[0].Metric.Name)
	}
	if statuses[0].LastScalingEpoch != 0 {
		t.Errorf("expected last scaling epoch 0, got %d", statuses[0].LastScalingEpoch)
	}
}

func TestAPI_NotFound(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil)
	recorder := httptest.NewRecorder()
	api.Router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
	apiErr := apiv1.Error{}
	err := json.Unmarshal(recorder.Body.Bytes(), &apiErr)
	if err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if apiErr.Code != http.StatusNotFound {
		t.Errorf("expected error code %d, got %d", http.StatusNotFound, apiErr.Code)
	}
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/targets", nil)
	recorder := httptest.NewRecorder()
	api.Router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, recorder.Code)
	}
}

func TestAPI_Metrics(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	api.Router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}
