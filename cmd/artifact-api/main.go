// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the Teams artifact service API. It receives Microsoft
// Graph change notifications over a webhook, processes them asynchronously
// through a queue, manages the Graph subscriptions that produce them, and
// serves the recording marker API.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

const (
	// renewalSweepInterval is how often expiring subscriptions are renewed.
	renewalSweepInterval = 30 * time.Minute

	// offsetReconcileInterval is how often marker offsets are derived for
	// meetings whose recording start has become known.
	offsetReconcileInterval = 30 * time.Second
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Set up JWT validator needed by the marker API.
	jwtAuth, err := setupJWTAuth()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	graphClient := setupGraphClient(env)

	subscriptionService := service.NewSubscriptionService(graphClient, service.SubscriptionConfig{
		OrganizerID:     env.OrganizerID,
		NotificationURL: env.NotificationURL,
		LifecycleURL:    env.LifecycleURL,
		ClientState:     env.ClientState,
	})

	// Teardown mode removes this deployment's subscriptions so Graph stops
	// delivering to a retired endpoint, then exits without serving.
	if env.Teardown {
		if err := subscriptionService.DeleteOwned(context.Background()); err != nil {
			slog.With(logging.ErrKey, err).Error("error deleting owned subscriptions")
			os.Exit(1)
		}
		slog.Info("deleted owned subscriptions, exiting")
		return
	}

	// The store opens lazily on first use; construction never fails.
	db := store.NewDB(store.Config{DSN: env.PostgresDSN})
	meetingRepo := store.NewPostgresMeetingRepository(db)
	markerRepo := store.NewPostgresMarkerRepository(db)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection and the notification work queue
	natsConn, js, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	stream, err := messaging.EnsureNotificationStream(ctx, js)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating notification stream")
		return
	}
	consumer, err := messaging.EnsurePipelineConsumer(ctx, stream)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating pipeline consumer")
		return
	}
	publisher := messaging.NewQueuePublisher(js)

	// Initialize services
	resolver := service.NewArtifactResolver(graphClient)
	pipeline := service.NewNotificationPipeline(
		meetingRepo,
		resolver,
		graphClient,
		subscriptionService,
		env.ClientState,
	)
	markerService := service.NewMarkerService(meetingRepo, markerRepo, graphClient, env.OrganizerID)
	webhookService := service.NewWebhookService(publisher)

	// Initialize handlers
	notificationHandler := handlers.NewNotificationHandler(pipeline)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	markerHandler := handlers.NewMarkerHandler(markerService)
	healthHandler := handlers.NewHealthHandler(markerRepo, notificationHandler.HandlerReady)

	// Start consuming queued notifications.
	consumeCtx, err := messaging.Consume(ctx, consumer, notificationHandler)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error starting queue consumer")
		return
	}

	httpServer := setupHTTPServer(flags, webhookHandler, markerHandler, healthHandler, jwtAuth, &gracefulCloseWG)

	// Make sure the managed subscriptions exist before notifications are
	// expected. Failures are logged, not fatal: the renewal sweep and
	// lifecycle events will keep retrying.
	if !env.SkipBootstrap {
		if err := subscriptionService.EnsureSubscriptions(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("error bootstrapping subscriptions")
		}
	}

	startBackgroundJobs(ctx, subscriptionService, markerService)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, consumeCtx, natsConn, db, &gracefulCloseWG, cancel)
}

// startBackgroundJobs starts the renewal sweep and the marker offset
// reconciliation tickers. Both jobs are idempotent, so overlapping runs
// across replicas are harmless.
func startBackgroundJobs(ctx context.Context, subscriptionService *service.SubscriptionService, markerService *service.MarkerService) {
	go func() {
		ticker := time.NewTicker(renewalSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := subscriptionService.RenewExpiring(ctx); err != nil {
					slog.With(logging.ErrKey, err).Error("subscription renewal sweep failed")
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(offsetReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := markerService.ReconcileOffsets(ctx); err != nil {
					slog.With(logging.ErrKey, err).Error("marker offset reconciliation failed")
				}
			}
		}
	}()
}

// gracefulShutdown drains the transports in dependency order: stop taking
// new queue messages, stop the HTTP listener, drain NATS, then close the
// store.
func gracefulShutdown(
	httpServer *http.Server,
	consumeCtx jetstream.ConsumeContext,
	natsConn *nats.Conn,
	db *store.DB,
	gracefulCloseWG *sync.WaitGroup,
	cancel context.CancelFunc,
) {
	slog.Info("shutting down")

	consumeCtx.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down http server")
	}
	gracefulCloseWG.Done()

	if err := natsConn.Drain(); err != nil {
		slog.With(logging.ErrKey, err).Error("error draining NATS connection")
	}

	cancel()
	db.Close()

	// Wait for the NATS closed handler to fire, bounded so shutdown cannot
	// hang on a wedged connection.
	waited := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(15 * time.Second):
		slog.Warn("timed out waiting for graceful close")
	}
}
