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

// Package v1 provides routing and endpoints for the autoscaler HTTP REST API
// version 1; per-target state snapshots and the operational metric registry.
// Errors are returned as valid JSON.
package v1

import (
	"encoding/json"
	"net/http"

	"github.com/coscale/kubernetes-autoscaler/internal/target"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error is an API error response.
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// API is the autoscaler REST API, exposing endpoints to observe the state of
// the managed targets.
type API struct {
	Router  chi.Router
	Targets []*target.Target
}

// Routes sets up routing for the API.
func (api *API) Routes() {
	api.Router.Route("/api/v1", func(r chi.Router) {
		r.NotFound(api.notFound)
		r.MethodNotAllowed(api.methodNotAllowed)
		r.Get("/targets", api.getTargets)
	})
	api.Router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (api *API) getTargets(w http.ResponseWriter, r *http.Request) {
	statuses := make([]target.Status, 0, len(api.Targets))
	for _, t := range api.Targets {
		statuses = append(statuses, t.Status())
	}

	response, err := json.Marshal(statuses)
	if err != nil {
		// Should not occur, panic
		panic(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func (api *API) notFound(w http.ResponseWriter, r *http.Request) {
	apiError(w, &Error{
		Message: "Resource not found",
		Code:    http.StatusNotFound,
	})
}

func (api *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apiError(w, &Error{
		Message: "Method not allowed",
		Code:    http.StatusMethodNotAllowed,
	})
}

func apiError(w http.ResponseWriter, apiErr *Error) {
	response, err := json.Marshal(apiErr)
	if err != nil {
		// Should not occur, panic
		panic(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	w.Write(response)
}
