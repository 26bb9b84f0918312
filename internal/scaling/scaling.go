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

// Package scaling abstracts interactions with the Kubernetes scale API,
// providing a consistent way to resolve scalable workloads and to read and
// write their replica counts.
package scaling

import (
	"context"
	"errors"
	"fmt"

	"github.com/coscale/kubernetes-autoscaler/metric"
	"github.com/golang/glog"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	k8sscale "k8s.io/client-go/scale"
)

// ErrWorkloadNotFound is returned when no workload matches a target's
// namespace, kind and name.
var ErrWorkloadNotFound = errors.New("workload not found")

// Workload addresses a scalable resource through the scale subresource.
// Immutable after resolution.
type Workload struct {
	Namespace string
	Name      string
	Resource  schema.GroupResource
}

func (w Workload) String() string {
	return fmt.Sprintf("%s/%s", w.Namespace, w.Name)
}

// Scaler is the orchestrator client contract. Implementations must tolerate
// concurrent calls from multiple targets.
type Scaler interface {
	// Resolve maps a target's logical description to a workload handle and
	// the telemetry subject its metrics are filed under, returning an error
	// wrapping ErrWorkloadNotFound if no such workload exists.
	Resolve(ctx context.Context, namespace string, kind string, name string) (*Workload, *metric.Subject, error)
	// Replicas returns the workload's current replica count.
	Replicas(ctx context.Context, workload *Workload) (int32, error)
	// SetReplicas applies a new replica count to the workload.
	SetReplicas(ctx context.Context, workload *Workload, replicas int32) error
}

// kindResources maps the configuration's workload kind categories to the
// group resources their scale subresource lives under.
var kindResources = map[string]schema.GroupResource{
	"Deployments":            {Group: "apps", Resource: "deployments"},
	"StatefulSets":           {Group: "apps", Resource: "statefulsets"},
	"ReplicaSets":            {Group: "apps", Resource: "replicasets"},
	"ReplicationControllers": {Group: "", Resource: "replicationcontrollers"},
}

// Scale interacts with the Kubernetes scale API to resolve workloads and
// read/update their replica counts.
type Scale struct {
	Scaler k8sscale.ScalesGetter
}

// Resolve checks the workload exists by fetching its scale subresource and
// derives the telemetry subject from the namespace and the subresource's
// label selector.
func (s *Scale) Resolve(ctx context.Context, namespace string, kind string, name string) (*Workload, *metric.Subject, error) {
	resource, ok := kindResources[kind]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported workload kind '%s'", kind)
	}
	workload := &Workload{
		Namespace: namespace,
		Name:      name,
		Resource:  resource,
	}

	glog.V(3).Infof("Attempting to resolve workload %s (%s)", workload, kind)
	scale, err := s.Scaler.Scales(namespace).Get(ctx, resource, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil, fmt.Errorf("%w: %s of kind %s", ErrWorkloadNotFound, workload, kind)
		}
		return nil, nil, fmt.Errorf("failed to resolve workload %s: %w", workload, err)
	}

	selector, err := labels.ConvertSelectorToLabelsMap(scale.Status.Selector)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse selector of workload %s: %w", workload, err)
	}
	glog.V(3).Infof("Workload %s resolved with selector '%s'", workload, scale.Status.Selector)

	return workload, &metric.Subject{
		Namespace: namespace,
		Selector:  map[string]string(selector),
	}, nil
}

// Replicas reads the workload's observed replica count from the scale
// subresource status.
func (s *Scale) Replicas(ctx context.Context, workload *Workload) (int32, error) {
	scale, err := s.Scaler.Scales(workload.Namespace).Get(ctx, workload.Resource, workload.Name, metav1.GetOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get scale subresource of workload %s: %w", workload, err)
	}
	return scale.Status.Replicas, nil
}

// SetReplicas updates the workload's desired replica count through the scale
// subresource.
func (s *Scale) SetReplicas(ctx context.Context, workload *Workload, replicas int32) error {
	glog.V(3).Infof("Attempting to get scale subresource of workload %s", workload)
	scale, err := s.Scaler.Scales(workload.Namespace).Get(ctx, workload.Resource, workload.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get scale subresource of workload %s: %w", workload, err)
	}

	glog.V(3).Infof("Attempting to apply %d replicas to workload %s", replicas, workload)
	scale.Spec.Replicas = replicas
	_, err = s.Scaler.Scales(workload.Namespace).Update(ctx, workload.Resource, scale, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update scale subresource of workload %s: %w", workload, err)
	}
	glog.V(3).Infoln("Application of scale successful")
	return nil
}
