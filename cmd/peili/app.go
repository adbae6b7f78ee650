package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yairfalse/peili/analyzer"
	"github.com/yairfalse/peili/config"
	"github.com/yairfalse/peili/cost"
	"github.com/yairfalse/peili/filter"
	"github.com/yairfalse/peili/internal/api"
	"github.com/yairfalse/peili/inventory"
	"github.com/yairfalse/peili/policy"
	"github.com/yairfalse/peili/provider"
	"github.com/yairfalse/peili/provider/arm"
	"github.com/yairfalse/peili/scope"
	"github.com/yairfalse/peili/service"
	"github.com/yairfalse/peili/telemetry"
)

const tokenEnv = "PEILI_TOKEN"

// app bundles the wired subsystems behind the CLI commands.
type app struct {
	cfg     *config.Config
	svc     *service.Service
	server  *api.Server
	metrics *telemetry.Provider
	store   *scope.Store
}

// newApp wires config, the ARM client, the scope store, and the service.
// withTelemetry also starts the OTEL provider (only the serve command
// wants that). The returned cleanup is safe to call once.
func newApp(ctx context.Context, withTelemetry bool) (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, nil, fmt.Errorf("%s is not set; export a management API bearer token", tokenEnv)
	}

	client, err := arm.New(arm.Config{
		Endpoint:   cfg.Provider.Endpoint,
		APIVersion: cfg.Provider.APIVersion,
		Timeout:    cfg.Provider.Timeout(),
		Tokens:     provider.StaticToken(token),
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := scope.OpenStore(cfg.Scope.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open scope store: %w", err)
	}

	var metrics *telemetry.Provider
	if withTelemetry {
		metrics, err = telemetry.NewProvider(ctx, telemetry.Settings{
			ServiceName: cfg.OTEL.ServiceName,
			Endpoint:    cfg.OTEL.Endpoint,
			Insecure:    cfg.OTEL.Insecure,
			Traces:      cfg.OTEL.Traces.Enabled,
			Metrics:     cfg.OTEL.Metrics.Enabled,
			SampleRate:  cfg.OTEL.Traces.SampleRate,
			Prometheus:  true,
		})
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	tagPolicy, err := policy.NewTagPolicy(ctx, cfg.Compliance.RequiredTags)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	inv := inventory.NewService(client, inventory.Options{
		InventoryTTL: cfg.Cache.InventoryTTL(),
		HealthTTL:    cfg.Cache.HealthTTL(),
		Metrics:      metrics,
	})

	tables := cost.NewTables(cost.Overrides{
		DiskGBMonth:       cfg.Cost.DiskGBMonth,
		PublicAddressFlat: cfg.Cost.PublicAddressFlat,
		LoadBalancerFlat:  cfg.Cost.LoadBalancerFlat,
	})

	svc := service.New(service.Options{
		Resolver:  scope.NewResolver(client, store, cfg.Cache.ScopeSessionTTL()),
		Inventory: inv,
		Pipeline:  filter.New(tagPolicy),
		Deps:      analyzer.NewDependencyExtractor(),
		Orphans:   analyzer.NewDetector(tables, analyzer.WithDetailFetcher(inv)),
		Usage:     cost.NewSimulatedSource(),
		Metrics:   metrics,
	})

	a := &app{
		cfg:     cfg,
		svc:     svc,
		server:  api.NewServer(svc),
		metrics: metrics,
		store:   store,
	}
	cleanup := func() {
		if a.metrics != nil {
			_ = a.metrics.Shutdown(context.Background())
		}
		_ = a.store.Close()
	}
	return a, cleanup, nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		return config.Default(), nil
	}
	return config.Load(flagConfig)
}
