package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
)

func TestRunStepsOrderAndOptional(t *testing.T) {
	var order []string
	steps := []Step{
		{Name: "first", Hook: HookFunc(func(context.Context, *sqlx.DB) error {
			order = append(order, "first")
			return nil
		})},
		{Name: "flaky", Optional: true, Hook: HookFunc(func(context.Context, *sqlx.DB) error {
			order = append(order, "flaky")
			return errors.New("boom")
		})},
		{Name: "last", Hook: HookFunc(func(context.Context, *sqlx.DB) error {
			order = append(order, "last")
			return nil
		})},
	}
	if err := RunSteps(context.Background(), nil, steps); err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if len(order) != 3 || order[2] != "last" {
		t.Fatalf("order = %v", order)
	}
}

func TestRunStepsRequiredFailure(t *testing.T) {
	sentinel := errors.New("purge failed")
	ran := false
	err := RunSteps(context.Background(), nil, []Step{
		{Name: "purge", Hook: HookFunc(func(context.Context, *sqlx.DB) error { return sentinel })},
		{Name: "after", Hook: HookFunc(func(context.Context, *sqlx.DB) error { ran = true; return nil })},
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if ran {
		t.Fatalf("steps after a required failure must not run")
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	connectErr := errors.New("refused")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, connectErr
		},
	})
	if !errors.Is(err, connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
}
