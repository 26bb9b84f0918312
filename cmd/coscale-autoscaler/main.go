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

// CoScale Autoscaler periodically retrieves metric data from a Prometheus
// compatible metric platform, checks whether the data is within the
// configured bounds and scales the matching Kubernetes workloads accordingly.
// Configuration is read from environment variables; the program must be run
// inside a Kubernetes cluster.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	apiv1 "github.com/coscale/kubernetes-autoscaler/internal/api/v1"
	"github.com/coscale/kubernetes-autoscaler/internal/confload"
	"github.com/coscale/kubernetes-autoscaler/internal/metricsource"
	"github.com/coscale/kubernetes-autoscaler/internal/scaling"
	"github.com/coscale/kubernetes-autoscaler/internal/scheduler"
	"github.com/coscale/kubernetes-autoscaler/internal/target"
	"github.com/go-chi/chi"
	"github.com/golang/glog"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	k8sscale "k8s.io/client-go/scale"
)

func main() {
	envVars := readEnvVars()
	setupLogging(envVars)
	defer glog.Flush()

	cfg, err := confload.Load(envVars)
	if err != nil {
		glog.Errorf("Invalid configuration: %v", err)
		glog.Exitf("Please set the %s environment variable to a valid target list", confload.ScalerConfigEnvName)
	}

	glog.V(0).Infof("Connecting to metric platform %s as application '%s'", cfg.APIURL, cfg.AppID)
	glog.V(1).Infof("Configuration: interval %ds, targets %+v", cfg.Interval, cfg.Targets)

	// Create the in-cluster Kubernetes config
	clusterConfig, err := rest.InClusterConfig()
	if err != nil {
		glog.Errorf("Creating Kubernetes configuration failed: %v", err)
		glog.Exitf("Is the autoscaler running in a Kubernetes cluster?")
	}

	clientset, err := kubernetes.NewForConfig(clusterConfig)
	if err != nil {
		glog.Exitf("Failed to create Kubernetes clientset: %v", err)
	}

	// Set up the client for managing scale subresources of any supported
	// workload kind
	cachedDiscovery := memory.NewMemCacheClient(clientset.Discovery())
	restMapper := restmapper.NewDeferredDiscoveryRESTMapper(cachedDiscovery)
	scaleKindResolver := k8sscale.NewDiscoveryScaleKindResolver(clientset.Discovery())
	scaleClient, err := k8sscale.NewForConfig(clusterConfig, restMapper, dynamic.LegacyAPIPathResolverFunc, scaleKindResolver)
	if err != nil {
		glog.Exitf("Failed to create Kubernetes scale client: %v", err)
	}
	scaler := &scaling.Scale{
		Scaler: scaleClient,
	}

	gateway, err := metricsource.NewPrometheus(cfg.APIURL, cfg.AppID, cfg.AccessToken)
	if err != nil {
		glog.Exitf("Failed to create metric platform client: %v", err)
	}

	// Set up the targets; a target that fails to resolve is fatal to that
	// target only, its siblings still run
	sched := scheduler.New(time.Duration(cfg.Interval) * time.Second)
	targets := []*target.Target{}
	for _, spec := range cfg.Targets {
		t, err := target.New(context.Background(), spec, gateway, scaler)
		if err != nil {
			glog.Errorf("Failed to initialise scaler %s: %v", spec, err)
			continue
		}
		glog.V(0).Infof("Starting scaler %s", spec)
		sched.Add(t)
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		glog.Errorf("No scalers could be initialised from the %d configured targets", len(cfg.Targets))
	}

	// Set up the status API
	api := &apiv1.API{
		Router:  chi.NewRouter(),
		Targets: targets,
	}
	api.Routes()
	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler: api.Router,
	}

	sched.Start()

	// Listen for UNIX shutdown commands, stop the scalers and the API once
	// received
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		glog.V(0).Infoln("Shutting down...")
		sched.Stop()
		srv.Shutdown(context.Background())
	}()

	glog.V(0).Infof("Starting status API on %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		glog.Exitf("Status API failed: %v", err)
	}
}

// setupLogging configures glog from the LOG_VERBOSITY env var; logging always
// goes to stderr.
func setupLogging(envVars map[string]string) {
	verbosity := 0
	if value, exists := envVars[confload.LogVerbosityEnvName]; exists {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			verbosity = parsed
		}
	}
	flag.Set("logtostderr", "true")
	flag.Set("v", strconv.Itoa(verbosity))
	flag.Parse()
}

// readEnvVars loads in all relevant environment variables if they exist,
// putting them in a key-value map
func readEnvVars() map[string]string {
	configEnvsNames := []string{
		confload.APIURLEnvName,
		confload.AppIDEnvName,
		confload.AccessTokenEnvName,
		confload.ScalerConfigEnvName,
		confload.IntervalEnvName,
		confload.APIHostEnvName,
		confload.APIPortEnvName,
		confload.LogVerbosityEnvName,
	}
	configEnvs := map[string]string{}
	for _, envName := range configEnvsNames {
		value, exists := os.LookupEnv(envName)
		if exists {
			configEnvs[envName] = value
		}
	}
	return configEnvs
}
