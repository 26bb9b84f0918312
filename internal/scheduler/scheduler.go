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

// Package scheduler drives the registered targets on a shared period. Each
// target runs in its own goroutine and is re-armed for its next tick once its
// previous run completes, so a slow or failing target delays only its own
// cadence and can never stall its siblings.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Runner is one schedulable unit of work.
type Runner interface {
	Evaluate(ctx context.Context, now time.Time) error
	fmt.Stringer
}

// Scheduler runs every registered Runner on a fixed period until stopped.
type Scheduler struct {
	Interval time.Duration

	runners []Runner
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Scheduler with the provided shared period.
func New(interval time.Duration) *Scheduler {
	return &Scheduler{
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

// Add registers a runner. Must be called before Start.
func (s *Scheduler) Add(runner Runner) {
	s.runners = append(s.runners, runner)
}

// Start launches one goroutine per registered runner. Each runner executes
// immediately and then repeatedly, each run scheduled one interval after the
// previous run's completion.
func (s *Scheduler) Start() {
	for _, runner := range s.runners {
		s.wg.Add(1)
		go s.run(runner)
	}
}

// Stop signals every runner to stop and waits for in-flight evaluations to
// finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) run(runner Runner) {
	defer s.wg.Done()
	for {
		s.runOnce(runner)

		timer := time.NewTimer(s.Interval)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runOnce isolates a single evaluation; errors are logged and panics are
// recovered here at the scheduling boundary so that one runner can never
// unwind the loop or affect its siblings.
func (s *Scheduler) runOnce(runner Runner) {
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("Recovered from panic while running scaler %s: %v", runner, p)
		}
	}()
	err := runner.Evaluate(context.Background(), time.Now())
	if err != nil {
		glog.Errorf("Failed to run scaler %s: %v", runner, err)
	}
}
