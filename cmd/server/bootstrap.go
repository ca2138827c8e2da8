package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/api"
	"github.com/charlesng35/sponsorpass/internal/app"
	"github.com/charlesng35/sponsorpass/internal/monitoring"
	"github.com/charlesng35/sponsorpass/internal/monitoring/checks"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
	"github.com/charlesng35/sponsorpass/internal/realtime"
	"github.com/charlesng35/sponsorpass/internal/scheduler"
	"github.com/charlesng35/sponsorpass/internal/state"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Dashboard *state.Dashboard
	Hub       *realtime.Hub
	Refresher *scheduler.Refresher
	Health    *monitoring.HealthManager
	Router    *gin.Engine

	detach func()
}

// newPartnershipsClient builds the upstream client from configuration.
func newPartnershipsClient(cfg *app.Config) (*partnerships.Client, error) {
	client, err := partnerships.NewClient(partnerships.Options{
		BaseURL:  cfg.Partnerships.BaseURL,
		APIToken: cfg.Partnerships.APIToken,
		Timeout:  cfg.Partnerships.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise partnerships client: %w", err)
	}
	return client, nil
}

// newHealthManager registers the dashboard probes. Liveness stays local; readiness also
// reaches the partnerships service.
func newHealthManager(cfg *app.Config, service partnerships.Service, dashboard *state.Dashboard, hub *realtime.Hub) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager(cfg.Partnerships.Timeout)

	var subscribers checks.SubscriberCounter
	if hub != nil {
		subscribers = hub
	}
	manager.RegisterLiveness(checks.Realtime(subscribers))

	manager.RegisterReadiness(checks.Dashboard(dashboard))
	manager.RegisterReadiness(checks.Partnerships(service))
	return manager
}

// bootstrapRuntime loads the dashboard, starts the realtime hub and refresher and builds the
// HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, service partnerships.Service, log *zap.Logger) (*runtimeStack, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if service == nil {
		return nil, errors.New("partnerships service is nil")
	}

	stack := &runtimeStack{}
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background())
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := cfg.DashboardOptions()
	if err != nil {
		return nil, fmt.Errorf("dashboard options: %w", err)
	}

	stack.Dashboard = state.NewDashboard(service, opts)
	if err := stack.Dashboard.Init(ctx); err != nil {
		// The failure is already on the dashboard banner; keep serving so operators see it.
		log.Warn("initial dashboard load failed", zap.Error(err))
	}

	if cfg.Realtime.Enabled {
		stack.Hub = realtime.NewHub()
		stack.detach = realtime.AttachDashboard(stack.Hub, stack.Dashboard)
	}

	stack.Refresher = scheduler.NewRefresher(stack.Dashboard,
		scheduler.WithSchedule(cfg.Passes.RefreshSchedule),
		scheduler.WithTimeout(cfg.Partnerships.Timeout),
	)
	if err := stack.Refresher.Start(); err != nil {
		return nil, fmt.Errorf("start pass refresher: %w", err)
	}

	stack.Health = newHealthManager(cfg, service, stack.Dashboard, stack.Hub)

	stack.Router, err = api.NewRouter(cfg, stack.Dashboard, stack.Hub, stack.Health)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	log.Info("dashboard ready",
		zap.String("mode", string(opts.Mode)),
		zap.Bool("realtime", stack.Hub != nil),
		zap.Bool("refresh", stack.Refresher.Enabled()),
	)

	success = true
	return stack, nil
}

// Shutdown stops the refresher and closes realtime connections. It waits for a running refresh
// until ctx is done.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var err error
	if s.Refresher != nil {
		select {
		case <-s.Refresher.Stop().Done():
		case <-ctx.Done():
			err = multierr.Append(err, fmt.Errorf("stop refresher: %w", ctx.Err()))
		}
	}

	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
	if s.Hub != nil {
		s.Hub.Close()
	}

	return err
}
