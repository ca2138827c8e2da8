package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sponsorpass/internal/monitoring"
)

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(time.Second)
	manager.RegisterReadiness(monitoring.NewCheck("dashboard", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("partnerships", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("", nil))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "partnerships", report.Checks[1].Component)

	live := manager.EvaluateLiveness(context.Background())
	require.True(t, live.Success)
	require.Empty(t, live.Checks)
}

func TestHealthManagerDegradedDoesNotMaskDown(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(0)
	manager.RegisterLiveness(monitoring.NewCheck("a", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown}
	}))
	manager.RegisterLiveness(monitoring.NewCheck("b", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded}
	}))

	report := manager.EvaluateLiveness(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
}

func TestHealthManagerRecoversPanicsAndAppliesTimeout(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(20 * time.Millisecond)
	manager.RegisterReadiness(monitoring.NewCheck("panics", func(context.Context) monitoring.ProbeResult {
		panic("boom")
	}))
	manager.RegisterReadiness(monitoring.NewCheck("slow", func(ctx context.Context) monitoring.ProbeResult {
		<-ctx.Done()
		return monitoring.ResultFromError(ctx.Err(), 0)
	}))
	manager.RegisterReadiness(monitoring.NewCheck("unimplemented", nil))

	report := manager.EvaluateReadiness(context.Background())
	require.Len(t, report.Checks, 3)

	require.Equal(t, monitoring.StatusDown, report.Checks[0].Status)
	require.Equal(t, "boom", report.Checks[0].Details)
	require.Equal(t, "panics", report.Checks[0].Component)

	require.Equal(t, monitoring.StatusDegraded, report.Checks[1].Status)
	require.Equal(t, monitoring.StatusDown, report.Checks[2].Status)
}

func TestResultFromError(t *testing.T) {
	t.Parallel()

	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError(nil, time.Millisecond).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError(errors.New("refused"), 0).Status)

	result := monitoring.ResultFromError(context.Canceled, -time.Second)
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Zero(t, result.Duration)
}
