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

package metric_test

import (
	"testing"
	"time"

	"github.com/coscale/kubernetes-autoscaler/metric"
	"github.com/google/go-cmp/cmp"
)

func TestWindow_Average(t *testing.T) {
	base := time.Date(2022, 5, 10, 12, 0, 0, 0, time.UTC)

	var tests = []struct {
		description string
		expected    float64
		window      metric.Window
	}{
		{
			"Empty window",
			0,
			metric.Window{},
		},
		{
			"Single sample",
			7.5,
			metric.Window{
				{Timestamp: base, Value: 7.5},
			},
		},
		{
			"Multiple samples",
			20,
			metric.Window{
				{Timestamp: base, Value: 10},
				{Timestamp: base.Add(time.Minute), Value: 20},
				{Timestamp: base.Add(2 * time.Minute), Value: 30},
			},
		},
		{
			"Order does not change the mean",
			20,
			metric.Window{
				{Timestamp: base.Add(2 * time.Minute), Value: 30},
				{Timestamp: base, Value: 10},
				{Timestamp: base.Add(time.Minute), Value: 20},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			result := test.window.Average()
			if test.expected != result {
				t.Errorf("average mismatch, expected %f, got %f", test.expected, result)
			}
		})
	}
}

func TestSubject_String(t *testing.T) {
	var tests = []struct {
		description string
		expected    string
		subject     metric.Subject
	}{
		{
			"Namespace only",
			`{namespace="default"}`,
			metric.Subject{Namespace: "default"},
		},
		{
			"Selector labels sorted deterministically",
			`{namespace="production",app="queue",tier="worker"}`,
			metric.Subject{
				Namespace: "production",
				Selector: map[string]string{
					"tier": "worker",
					"app":  "queue",
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			result := test.subject.String()
			if !cmp.Equal(test.expected, result) {
				t.Errorf("subject mismatch (-want +got):\n%s", cmp.Diff(test.expected, result))
			}
		})
	}
}
