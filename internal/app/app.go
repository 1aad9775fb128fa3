package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graphloader/internal/data/graph"
	"github.com/yungbote/graphloader/internal/data/graph/memgraph"
	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/domain/kg"
	httpapi "github.com/yungbote/graphloader/internal/http"
	httpH "github.com/yungbote/graphloader/internal/http/handlers"
	"github.com/yungbote/graphloader/internal/modules/ingestion"
	"github.com/yungbote/graphloader/internal/observability"
	"github.com/yungbote/graphloader/internal/platform/logger"
	"github.com/yungbote/graphloader/internal/platform/neo4jdb"
	"github.com/yungbote/graphloader/internal/realtime/bus"
)

type Options struct {
	// DryRun swaps Neo4j for the in-memory store.
	DryRun bool
	// StatusLogPath overrides RUNLOG_TEXT_PATH.
	StatusLogPath string
}

type App struct {
	Log       *logger.Logger
	Cfg       Config
	Neo4j     *neo4jdb.Client
	Store     graph.TripleStore
	TextLog   *runlog.TextFile
	RunLog    *runlog.GormStore
	Bus       bus.Bus
	Metrics   *observability.Metrics
	Ingestion *ingestion.Usecases

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	if err := a.wire(ctx, opts); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	log, cfg := a.Log, a.Cfg

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	a.Metrics = observability.Init(log)

	// Graph store
	if opts.DryRun {
		log.Warn("Dry run: using in-memory graph store")
		a.Store = memgraph.New()
	} else {
		client, err := neo4jdb.New(ctx, log, cfg.Neo4j)
		switch {
		case errors.Is(err, neo4jdb.ErrNotConfigured):
			return fmt.Errorf("init neo4j: %w", err)
		case err != nil:
			return fmt.Errorf("init neo4j: %w: %w", kg.ErrStoreUnavailable, err)
		}
		a.Neo4j = client
		a.Store = graph.NewNeo4jStore(client, log)
	}
	if err := a.Store.EnsureConstraints(ctx); err != nil {
		log.Warn("Ensuring entity constraint failed (continuing)", "error", err)
	}

	// Run log
	var sinks runlog.Multi
	textPath := cfg.RunLog.TextPath
	if opts.StatusLogPath != "" {
		textPath = opts.StatusLogPath
	}
	if textPath != "" {
		a.TextLog = runlog.NewTextFile(textPath)
		sinks = append(sinks, a.TextLog)
	}
	store, err := runlog.Open(log, cfg.RunLog)
	switch {
	case errors.Is(err, runlog.ErrNotConfigured):
		log.Debug("No run log database configured")
	case err != nil:
		return fmt.Errorf("init run log: %w", err)
	default:
		a.RunLog = store
		sinks = append(sinks, store)
	}

	// Progress bus
	a.Bus = bus.Noop{}
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis.Addr, cfg.Redis.Channel)
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
		a.Bus = b
	}

	a.Ingestion = ingestion.New(ingestion.UsecasesDeps{
		Log:     log,
		Store:   a.Store,
		RunLog:  sinks,
		Bus:     a.Bus,
		Metrics: a.Metrics,
		Config:  cfg.Ingest,
	})
	return nil
}

// Router builds the admin HTTP surface over the wired ingestion service.
func (a *App) Router() *gin.Engine {
	ready := func(ctx context.Context) error {
		if a.Neo4j == nil {
			return nil
		}
		return a.Neo4j.Driver.VerifyConnectivity(ctx)
	}
	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:           a.Log,
		Metrics:       a.Metrics,
		ServiceName:   a.Cfg.ServiceName,
		HealthHandler: httpH.NewHealthHandler(ready),
		GraphHandler: httpH.NewGraphHandler(httpH.GraphHandlerDeps{
			Log:     a.Log,
			Service: a.Ingestion,
		}),
	})
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("Closing bus failed", "error", err)
		}
	}
	if a.RunLog != nil {
		if err := a.RunLog.Close(); err != nil {
			a.Log.Warn("Closing run log failed", "error", err)
		}
	}
	if a.Neo4j != nil {
		if err := a.Neo4j.Close(ctx); err != nil {
			a.Log.Warn("Closing neo4j failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
