// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// flags are the command line flags for the artifact service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the artifact service.
type environment struct {
	Port        string
	NatsURL     string
	PostgresDSN string
	Graph       graphConfig
	// OrganizerID is the user whose meetings this deployment watches.
	OrganizerID string
	// NotificationURL and LifecycleURL are the public endpoints registered on
	// every subscription this service creates.
	NotificationURL string
	LifecycleURL    string
	// ClientState is the shared secret echoed back in every notification.
	ClientState string
	// SkipBootstrap disables subscription creation at startup, for
	// deployments where subscriptions are provisioned out of band.
	SkipBootstrap bool
	// Teardown makes the process delete this deployment's subscriptions and
	// exit instead of serving, used when retiring an environment.
	Teardown bool
}

// graphConfig holds the Microsoft Graph credentials.
type graphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// parseFlags parses command line flags for the artifact service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the artifact service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://lfx-platform-nats.lfx.svc.cluster.local:4222"
	}

	return environment{
		Port:            port,
		NatsURL:         natsURL,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		Graph:           parseGraphConfig(),
		OrganizerID:     requireEnv("TEAMS_ORGANIZER_ID"),
		NotificationURL: requireEnv("GRAPH_NOTIFICATION_URL"),
		LifecycleURL:    os.Getenv("GRAPH_LIFECYCLE_URL"),
		ClientState:     os.Getenv("GRAPH_CLIENT_STATE"),
		SkipBootstrap:   os.Getenv("SUBSCRIPTION_BOOTSTRAP_DISABLED") == "true",
		Teardown:        os.Getenv("SUBSCRIPTION_TEARDOWN") == "true",
	}
}

// parseGraphConfig parses the Microsoft Graph credentials from environment variables
func parseGraphConfig() graphConfig {
	return graphConfig{
		TenantID:     requireEnv("GRAPH_TENANT_ID"),
		ClientID:     requireEnv("GRAPH_CLIENT_ID"),
		ClientSecret: requireEnv("GRAPH_CLIENT_SECRET"),
	}
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error(key + " environment variable is required but not set")
		os.Exit(1)
	}
	return value
}
