package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maestro-hq/maestro/internal/providertest"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/session"
)

func TestCheckLiveness(t *testing.T) {
	c := New(0)

	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("liveness status = %q, want ok", status.Status)
	}
}

func TestCheckReadinessNoChecks(t *testing.T) {
	c := New(0)

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("status = %q, want ready with no checks", status.Status)
	}
}

func TestCheckReadinessAllHealthy(t *testing.T) {
	c := New(0)
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })
	c.RegisterCheck("adapters", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())

	if status.Status != "ready" {
		t.Errorf("status = %q, want ready", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("checks = %d, want 2", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != "ok" {
			t.Errorf("check %q = %q, want ok", name, result.Status)
		}
	}
}

func TestCheckReadinessDegraded(t *testing.T) {
	c := New(0)
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })
	c.RegisterCheck("adapters", func(ctx context.Context) error {
		return errors.New("no healthy provider adapters")
	})

	status := c.CheckReadiness(context.Background())

	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Checks["adapters"].Message != "no healthy provider adapters" {
		t.Errorf("adapter check = %+v, want failure message", status.Checks["adapters"])
	}
	if status.Checks["store"].Status != "ok" {
		t.Errorf("store check = %+v, healthy checks stay ok", status.Checks["store"])
	}
}

func TestCheckTimeout(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	status := c.CheckReadiness(context.Background())

	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded on timeout", status.Status)
	}
	if status.Checks["slow"].Status != "unhealthy" {
		t.Errorf("slow check = %+v, want unhealthy", status.Checks["slow"])
	}
}

func TestRegisterCheckReplaces(t *testing.T) {
	c := New(0)
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("down") })
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("status = %q, replacement check should win", status.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(0)

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("body status = %q, want ok", status.Status)
	}
}

func TestLivenessHandlerRejectsPost(t *testing.T) {
	c := New(0)

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestReadinessHandlerDegraded(t *testing.T) {
	c := New(0)
	c.RegisterCheck("store", func(ctx context.Context) error { return errors.New("database locked") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("body status = %q, want degraded", status.Status)
	}
}

func TestAdapterCheck(t *testing.T) {
	healthy := map[providers.ID]providers.Adapter{
		providers.Claude: providertest.NewAdapter(providers.Claude),
	}
	if err := AdapterCheck(healthy)(context.Background()); err != nil {
		t.Errorf("healthy adapters failed check: %v", err)
	}

	if err := AdapterCheck(nil)(context.Background()); err == nil {
		t.Error("expected failure with no adapters")
	}
}

func TestSessionCheck(t *testing.T) {
	registry := session.NewRegistry(map[providers.ID]session.Profile{
		providers.Claude: {MaxConcurrent: 1},
	})

	if err := SessionCheck(registry)(context.Background()); err != nil {
		t.Errorf("available session failed check: %v", err)
	}

	// Exhaust the only slot.
	token, err := registry.Acquire(providers.Claude)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := SessionCheck(registry)(context.Background()); err == nil {
		t.Error("expected failure with every session busy")
	}

	registry.Release(token, session.Outcome{Success: true})
	if err := SessionCheck(registry)(context.Background()); err != nil {
		t.Errorf("released session failed check: %v", err)
	}
}
