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

package evaluate_test

import (
	"testing"

	"github.com/coscale/kubernetes-autoscaler/evaluate"
	"github.com/google/go-cmp/cmp"
)

func float64Ptr(f float64) *float64 {
	return &f
}

func TestDecide(t *testing.T) {
	var tests = []struct {
		description     string
		expected        evaluate.Decision
		value           *float64
		low             float64
		high            float64
		currentReplicas int32
		minReplicas     int32
		maxReplicas     int32
	}{
		{
			"No value, insufficient data",
			evaluate.Decision{
				Action: evaluate.InsufficientData,
				Reason: evaluate.ReasonNoData,
			},
			nil,
			10, 50, 3, 1, 5,
		},
		{
			"Value below low bound, above min replicas, scale down",
			evaluate.Decision{
				Action:         evaluate.ScaleDown,
				TargetReplicas: 2,
			},
			float64Ptr(5),
			10, 50, 3, 1, 5,
		},
		{
			"Value below low bound, at min replicas, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonMinReached,
			},
			float64Ptr(5),
			10, 50, 1, 1, 5,
		},
		{
			"Value below low bound, below min replicas, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonMinReached,
			},
			float64Ptr(5),
			10, 50, 0, 1, 5,
		},
		{
			"Value above high bound, below max replicas, scale up",
			evaluate.Decision{
				Action:         evaluate.ScaleUp,
				TargetReplicas: 4,
			},
			float64Ptr(60),
			10, 50, 3, 1, 5,
		},
		{
			"Value above high bound, at max replicas, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonMaxReached,
			},
			float64Ptr(60),
			10, 50, 5, 1, 5,
		},
		{
			"Value between bounds, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonWithinBounds,
			},
			float64Ptr(30),
			10, 50, 3, 1, 5,
		},
		{
			"Value exactly at low bound, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonWithinBounds,
			},
			float64Ptr(10),
			10, 50, 3, 1, 5,
		},
		{
			"Value exactly at high bound, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonWithinBounds,
			},
			float64Ptr(50),
			10, 50, 3, 1, 5,
		},
		{
			"Value below low bound, min equals max, hold",
			evaluate.Decision{
				Action: evaluate.Hold,
				Reason: evaluate.ReasonMinReached,
			},
			float64Ptr(5),
			10, 50, 2, 2, 2,
		},
		{
			"Negative value below low bound, scale down",
			evaluate.Decision{
				Action:         evaluate.ScaleDown,
				TargetReplicas: 4,
			},
			float64Ptr(-3),
			0.5, 50, 5, 1, 5,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			result := evaluate.Decide(test.value, test.low, test.high,
				test.currentReplicas, test.minReplicas, test.maxReplicas)
			if !cmp.Equal(test.expected, result) {
				t.Errorf("decision mismatch (-want +got):\n%s", cmp.Diff(test.expected, result))
			}
		})
	}
}

func TestDecide_NeverLeavesBounds(t *testing.T) {
	low, high := 10.0, 50.0
	for replicas := int32(1); replicas <= 5; replicas++ {
		down := evaluate.Decide(float64Ptr(low-1), low, high, replicas, 1, 5)
		if down.Action == evaluate.ScaleDown && down.TargetReplicas < 1 {
			t.Errorf("scale down from %d replicas went below min: %d", replicas, down.TargetReplicas)
		}
		up := evaluate.Decide(float64Ptr(high+1), low, high, replicas, 1, 5)
		if up.Action == evaluate.ScaleUp && up.TargetReplicas > 5 {
			t.Errorf("scale up from %d replicas went above max: %d", replicas, up.TargetReplicas)
		}
	}
}
