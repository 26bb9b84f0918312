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

package fake

import (
	"context"

	"github.com/coscale/kubernetes-autoscaler/internal/scaling"
	"github.com/coscale/kubernetes-autoscaler/metric"
)

// Scaler is a fake orchestrator client that allows injecting reactors for its
// methods.
type Scaler struct {
	ResolveReactor     func(ctx context.Context, namespace string, kind string, name string) (*scaling.Workload, *metric.Subject, error)
	ReplicasReactor    func(ctx context.Context, workload *scaling.Workload) (int32, error)
	SetReplicasReactor func(ctx context.Context, workload *scaling.Workload, replicas int32) error
}

// Resolve calls the fake's ResolveReactor.
func (s *Scaler) Resolve(ctx context.Context, namespace string, kind string, name string) (*scaling.Workload, *metric.Subject, error) {
	return s.ResolveReactor(ctx, namespace, kind, name)
}

// Replicas calls the fake's ReplicasReactor.
func (s *Scaler) Replicas(ctx context.Context, workload *scaling.Workload) (int32, error) {
	return s.ReplicasReactor(ctx, workload)
}

// SetReplicas calls the fake's SetReplicasReactor.
func (s *Scaler) SetReplicas(ctx context.Context, workload *scaling.Workload, replicas int32) error {
	return s.SetReplicasReactor(ctx, workload, replicas)
}
