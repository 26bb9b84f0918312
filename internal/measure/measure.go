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

// Package measure registers the autoscaler's operational metric collectors,
// served on the status API's /metrics endpoint.
package measure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coscale_autoscaler"

var (
	// Evaluations counts completed evaluations by target and decision action.
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Number of completed target evaluations, partitioned by decision action.",
	}, []string{"target", "action"})

	// Skips counts evaluations that ended without a decision, by reason.
	Skips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skips_total",
		Help:      "Number of evaluations skipped before a decision was made, partitioned by reason.",
	}, []string{"target", "reason"})

	// Errors counts failed evaluations by the stage that failed.
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Number of failed target evaluations, partitioned by failing stage.",
	}, []string{"target", "stage"})

	// ObservedValue records the last metric value each target evaluated.
	ObservedValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "observed_metric_value",
		Help:      "Last metric value observed for a target.",
	}, []string{"target"})

	// AppliedReplicas records the replica count last applied by a scaling
	// action.
	AppliedReplicas = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "applied_replicas",
		Help:      "Replica count last applied to a target by a scaling action.",
	}, []string{"target"})
)

// Error stage label values.
const (
	StageMetric       = "metric"
	StageOrchestrator = "orchestrator"
)

// Skip reason label values.
const (
	SkipBackoff          = "backoff"
	SkipInsufficientData = "insufficient_data"
)
