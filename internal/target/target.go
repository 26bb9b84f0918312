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

// Package target implements the per-workload scaling loop. Each Target owns
// one managed workload's specification, its identifiers resolved at
// construction and its mutable scaling state, and applies the scaling policy
// on every evaluation.
package target

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coscale/kubernetes-autoscaler/config"
	"github.com/coscale/kubernetes-autoscaler/evaluate"
	"github.com/coscale/kubernetes-autoscaler/internal/measure"
	"github.com/coscale/kubernetes-autoscaler/internal/metricsource"
	"github.com/coscale/kubernetes-autoscaler/internal/scaling"
	"github.com/coscale/kubernetes-autoscaler/metric"
	"github.com/golang/glog"
)

// reportingLag is the extra lookback added to every metric window to absorb
// samples that reach the platform late.
const reportingLag = 60 * time.Second

// Target is one workload under autoscaling management.
type Target struct {
	Spec config.TargetSpec

	// Resolved at construction, immutable afterwards.
	Metric   *metric.Metric
	Workload *scaling.Workload
	Subject  metric.Subject

	gateway metricsource.Gateway
	scaler  scaling.Scaler

	// mu guards the mutable state below; Evaluate is the only writer, the
	// status API reads concurrently.
	mu sync.Mutex
	// lastScaling is the wall clock epoch (seconds) of the last successful
	// scaling action, 0 meaning never scaled.
	lastScaling  int64
	lastValue    *float64
	lastDecision *evaluate.Decision
}

// Status is a point in time snapshot of a target's state, served by the
// status API.
type Status struct {
	Namespace        string             `json:"namespace"`
	Workload         string             `json:"workload"`
	Kind             string             `json:"kind"`
	Metric           metric.Metric      `json:"metric"`
	Subject          metric.Subject     `json:"subject"`
	LastValue        *float64           `json:"lastValue,omitempty"`
	LastDecision     *evaluate.Decision `json:"lastDecision,omitempty"`
	LastScalingEpoch int64              `json:"lastScalingEpoch"`
}

// New resolves the spec's metric and workload identifiers and returns a ready
// Target. A resolution failure is fatal to this target only; the caller
// decides whether to carry on with its siblings.
func New(ctx context.Context, spec config.TargetSpec, gateway metricsource.Gateway, scaler scaling.Scaler) (*Target, error) {
	resolvedMetric, err := gateway.ResolveMetric(ctx, spec.Metric.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metric for scaler %s: %w", spec, err)
	}

	workload, subject, err := scaler.Resolve(ctx, spec.Namespace, spec.Kind, spec.Workload)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workload for scaler %s: %w", spec, err)
	}

	glog.V(0).Infof("Scaler %s is using metric '%s' and subject %s", spec, resolvedMetric.Name, subject)
	return &Target{
		Spec:     spec,
		Metric:   resolvedMetric,
		Workload: workload,
		Subject:  *subject,
		gateway:  gateway,
		scaler:   scaler,
	}, nil
}

// Evaluate runs one iteration of the scaling loop at the provided time. The
// backoff gate is checked against `now` before any external call is made, and
// the last scaling epoch is set to that same `now` after a successful scale,
// so backoff spacing is measured from the start of the triggering evaluation.
func (t *Target) Evaluate(ctx context.Context, now time.Time) error {
	name := t.Spec.String()

	if now.Unix() < t.lastScalingEpoch()+t.Spec.ScaleBackoffSec {
		glog.V(1).Infof("Scaler %s is in backoff after last scaling", t.Spec)
		measure.Skips.WithLabelValues(name, measure.SkipBackoff).Inc()
		return nil
	}

	start := now.Add(-time.Duration(t.Spec.Metric.AvgIntervalSec)*time.Second - reportingLag)
	windows, err := t.gateway.FetchWindows(ctx, t.Metric, t.Subject, start, now)
	if err != nil {
		measure.Errors.WithLabelValues(name, measure.StageMetric).Inc()
		return fmt.Errorf("failed to fetch metric data for scaler %s: %w", t.Spec, err)
	}

	value := windowAverage(windows)
	if value == nil {
		glog.Errorf("Failed to retrieve metric data for scaler %s: got %d windows", t.Spec, len(windows))
		measure.Skips.WithLabelValues(name, measure.SkipInsufficientData).Inc()
		t.record(evaluate.Decide(nil, 0, 0, 0, 0, 0), nil)
		return nil
	}
	glog.V(0).Infof("Checking %s : %f %s", t.Spec, *value, t.Metric.Unit)
	measure.ObservedValue.WithLabelValues(name).Set(*value)

	// The replica count is only fetched when a bound is breached; a value
	// within bounds decides Hold without contacting the orchestrator.
	var replicas int32
	if *value < t.Spec.Metric.LowValue || *value > t.Spec.Metric.HighValue {
		replicas, err = t.scaler.Replicas(ctx, t.Workload)
		if err != nil {
			measure.Errors.WithLabelValues(name, measure.StageOrchestrator).Inc()
			return fmt.Errorf("failed to get replica count for scaler %s: %w", t.Spec, err)
		}
	}

	decision := evaluate.Decide(value, t.Spec.Metric.LowValue, t.Spec.Metric.HighValue,
		replicas, t.Spec.MinReplicas, t.Spec.MaxReplicas)

	switch decision.Action {
	case evaluate.ScaleUp, evaluate.ScaleDown:
		glog.V(0).Infof("Scaling %s to %d replicas", t.Spec, decision.TargetReplicas)
		err = t.scaler.SetReplicas(ctx, t.Workload, decision.TargetReplicas)
		if err != nil {
			// The last scaling epoch stays untouched so the action is
			// retried at the next eligible tick instead of being
			// suppressed by backoff.
			measure.Errors.WithLabelValues(name, measure.StageOrchestrator).Inc()
			return fmt.Errorf("failed to scale %s to %d replicas: %w", t.Spec, decision.TargetReplicas, err)
		}
		t.setLastScaling(now.Unix())
		measure.AppliedReplicas.WithLabelValues(name).Set(float64(decision.TargetReplicas))
	case evaluate.Hold:
		switch decision.Reason {
		case evaluate.ReasonMinReached:
			glog.V(0).Infof("Scaler %s reached min replicas of %d", t.Spec, t.Spec.MinReplicas)
		case evaluate.ReasonMaxReached:
			glog.V(0).Infof("Scaler %s reached max replicas of %d", t.Spec, t.Spec.MaxReplicas)
		default:
			glog.V(1).Infof("Scaler %s is within bounds, holding", t.Spec)
		}
	}

	measure.Evaluations.WithLabelValues(name, string(decision.Action)).Inc()
	t.record(decision, value)
	return nil
}

// Status returns a snapshot of the target's state.
func (t *Target) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Namespace:        t.Spec.Namespace,
		Workload:         t.Spec.Workload,
		Kind:             t.Spec.Kind,
		Metric:           *t.Metric,
		Subject:          t.Subject,
		LastValue:        t.lastValue,
		LastDecision:     t.lastDecision,
		LastScalingEpoch: t.lastScaling,
	}
}

func (t *Target) String() string {
	return t.Spec.String()
}

// windowAverage returns the mean value of the single expected window, or nil
// when the platform returned no window, an ambiguous set of windows, or an
// empty window.
func windowAverage(windows []metric.Window) *float64 {
	if len(windows) != 1 || len(windows[0]) == 0 {
		return nil
	}
	average := windows[0].Average()
	return &average
}

func (t *Target) lastScalingEpoch() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastScaling
}

func (t *Target) setLastScaling(epoch int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastScaling = epoch
}

func (t *Target) record(decision evaluate.Decision, value *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastDecision = &decision
	t.lastValue = value
}
