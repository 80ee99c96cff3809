package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hrbot/core/bootstrap"
	coreconfig "github.com/m3rciful/hrbot/core/config"
)

func blockUntilDone(name string) bootstrap.Frontend {
	return bootstrap.FrontendFunc{FrontendName: name, RunFunc: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}
}

func TestRunFrontendsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunFrontends(ctx, []bootstrap.Frontend{blockUntilDone("a"), blockUntilDone("b")}, time.Now())
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("frontends did not stop")
	}
}

func TestRunFrontendsFailureCancelsOthers(t *testing.T) {
	failing := bootstrap.FrontendFunc{FrontendName: "broken", RunFunc: func(context.Context) error {
		return errors.New("port in use")
	}}
	err := RunFrontends(context.Background(), []bootstrap.Frontend{blockUntilDone("a"), failing}, time.Now())
	require.ErrorContains(t, err, "broken: port in use")
}

func TestRunFrontendsNeedsOne(t *testing.T) {
	require.Error(t, RunFrontends(context.Background(), nil, time.Now()))
}

func TestLoadAppErrors(t *testing.T) {
	_, err := LoadApp(context.Background(), Options{})
	require.ErrorContains(t, err, "config path")

	_, err = LoadApp(context.Background(), Options{
		ConfigPath: "x.yaml",
		LoadConfig: func(string) (*coreconfig.Config, error) { return nil, errors.New("boom") },
	})
	require.ErrorContains(t, err, "failed to load config")

	_, err = LoadApp(context.Background(), Options{
		ConfigPath: "x.yaml",
		LoadConfig: func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (*bootstrap.App, error) {
			return nil, errors.New("no db")
		},
	})
	require.ErrorContains(t, err, "bootstrap failed")
}
