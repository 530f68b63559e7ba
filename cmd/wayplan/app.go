package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wayplan/wayplan/config"
	"github.com/wayplan/wayplan/enrich"
	"github.com/wayplan/wayplan/llm"
	"github.com/wayplan/wayplan/pipeline"
	"github.com/wayplan/wayplan/plan"
	"github.com/wayplan/wayplan/storage"
)

// App wires the pipeline, its collaborators, and plan persistence together
// from one Config.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	store *storage.Store
	pipe  *pipeline.Pipeline
}

// NewApp creates an application instance over the given configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Start builds the pipeline collaborators and, unless persistence is
// disabled, brings up NATS-backed storage.
func (a *App) Start(ctx context.Context) error {
	endpoints := make(map[string]llm.Endpoint, len(a.cfg.Providers.Endpoints))
	for name, ep := range a.cfg.Providers.Endpoints {
		endpoints[name] = llm.Endpoint{
			Provider: name,
			URL:      ep.URL,
			Model:    ep.Model,
			APIKey:   ep.APIKey,
		}
	}

	client := llm.NewClient(endpoints, llm.WithLogger(a.logger))

	synth := plan.NewSynthesizer(client,
		plan.WithGeneration(a.cfg.Providers.Temperature, a.cfg.Providers.MaxTokens),
		plan.WithCallTimeout(a.cfg.Providers.Timeout),
		plan.WithSynthLogger(a.logger),
	)

	gatherOpts := []enrich.GathererOption{
		enrich.WithSearcher(enrich.NewSearchClient("", a.cfg.Search.Timeout)),
		enrich.WithForecaster(enrich.NewWeatherClient("", a.cfg.Weather.APIKey, a.cfg.Weather.Timeout)),
		enrich.WithMaxResults(a.cfg.Search.MaxResults),
		enrich.WithTimeouts(a.cfg.Search.Timeout, a.cfg.Weather.Timeout),
		enrich.WithGatherLogger(a.logger),
	}
	if a.cfg.Search.Digest {
		gatherOpts = append(gatherOpts,
			enrich.WithDigester(enrich.NewDigester(a.cfg.Search.Timeout, a.cfg.Search.DigestMaxChars)))
	}
	gatherer := enrich.NewGatherer(gatherOpts...)

	a.pipe = pipeline.New(gatherer, synth,
		pipeline.WithDefaultProvider(a.cfg.Providers.Default),
		pipeline.WithRetryBackoff(a.cfg.Pipeline.RetryBackoff),
		pipeline.WithLogger(a.logger),
	)

	if a.cfg.NATS.Disabled {
		a.logger.Debug("Plan persistence disabled")
		return nil
	}

	if err := a.startNATS(ctx); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	store, err := storage.NewStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store

	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Debug("Connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		a.logger.Debug("Starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}

		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	return nil
}

// Shutdown gracefully stops NATS.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}

// Plan runs one planning request through the pipeline.
func (a *App) Plan(ctx context.Context, rawText, provider string) (*plan.Plan, error) {
	return a.pipe.Plan(ctx, rawText, provider)
}

// SavePlan persists a plan and returns its assigned ID. Returns an error
// when persistence is disabled.
func (a *App) SavePlan(ctx context.Context, p *plan.Plan) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("plan persistence is disabled")
	}
	return a.store.SavePlan(ctx, p)
}

// GetPlan retrieves a saved plan by ID.
func (a *App) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	if a.store == nil {
		return nil, fmt.Errorf("plan persistence is disabled")
	}
	return a.store.GetPlan(ctx, id)
}

// ListPlans returns saved plans, newest first.
func (a *App) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	if a.store == nil {
		return nil, fmt.Errorf("plan persistence is disabled")
	}
	return a.store.ListPlans(ctx)
}

// DeletePlan removes a saved plan by ID.
func (a *App) DeletePlan(ctx context.Context, id string) error {
	if a.store == nil {
		return fmt.Errorf("plan persistence is disabled")
	}
	return a.store.DeletePlan(ctx, id)
}
