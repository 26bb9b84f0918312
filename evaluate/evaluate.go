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

// Package evaluate provides the scaling policy; deciding from a metric value
// and the target's bounds whether to scale up, scale down or hold. The policy
// is a pure function with no side effects and no network dependency.
package evaluate

// Action is the kind of scaling action a decision calls for.
type Action string

const (
	// ScaleUp adds one replica.
	ScaleUp Action = "scale_up"
	// ScaleDown removes one replica.
	ScaleDown Action = "scale_down"
	// Hold leaves the replica count unchanged.
	Hold Action = "hold"
	// InsufficientData means no usable metric value was available, so no
	// judgement can be made.
	InsufficientData Action = "insufficient_data"
)

// Reasons attached to Hold and InsufficientData decisions.
const (
	ReasonWithinBounds = "within bounds"
	ReasonMinReached   = "min replicas reached"
	ReasonMaxReached   = "max replicas reached"
	ReasonNoData       = "no metric data"
)

// Decision is the outcome of evaluating a metric value against a target's
// bounds. TargetReplicas is only meaningful for ScaleUp and ScaleDown
// actions.
type Decision struct {
	Action         Action `json:"action"`
	TargetReplicas int32  `json:"targetReplicas"`
	Reason         string `json:"reason,omitempty"`
}

// Decide applies the threshold policy. A nil value means no metric data was
// available. The step size is fixed at one replica per decision, and the
// returned target never moves outside [minReplicas, maxReplicas].
func Decide(value *float64, low float64, high float64, currentReplicas int32, minReplicas int32, maxReplicas int32) Decision {
	if value == nil {
		return Decision{
			Action: InsufficientData,
			Reason: ReasonNoData,
		}
	}

	if *value < low {
		if currentReplicas > minReplicas {
			return Decision{
				Action:         ScaleDown,
				TargetReplicas: currentReplicas - 1,
			}
		}
		return Decision{
			Action: Hold,
			Reason: ReasonMinReached,
		}
	}

	if *value > high {
		if currentReplicas < maxReplicas {
			return Decision{
				Action:         ScaleUp,
				TargetReplicas: currentReplicas + 1,
			}
		}
		return Decision{
			Action: Hold,
			Reason: ReasonMaxReached,
		}
	}

	return Decision{
		Action: Hold,
		Reason: ReasonWithinBounds,
	}
}
