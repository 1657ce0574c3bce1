package main

import (
	"context"
	"log/slog"
	"os"

	"farmsession/internal/adapter/gateway/remote"
	httpadapter "farmsession/internal/adapter/http"
	metricsinmem "farmsession/internal/adapter/metrics/inmemory"
	"farmsession/internal/app/ports"
	"farmsession/internal/app/session"
	"farmsession/internal/platform/config"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	var cfg config.Farm
	if err := config.ParseEnv(&cfg); err != nil {
		config.Fatal(nil, "parse config", "err", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	kpi := metricsinmem.NewRecorder()
	c, err := buildSession(cfg, logger, kpi)
	if err != nil {
		config.Fatal(logger, "build session", "err", err)
	}

	ctx := context.Background()
	// Anonymous sessions have nothing to save to.
	if !c.Identity().Anonymous() {
		worker := session.NewAutosaveWorker(session.NewAutosaveWorkerOptions{
			Controller: c,
			Interval:   cfg.AutosaveInterval,
			Logger:     logger,
		})
		superviseAutosave(ctx, c, worker.Start)
	}

	if err := c.Load(ctx); err != nil {
		// The client can still inspect the error and restart.
		logger.Error("initial load failed", "err", err)
	}

	s := server.Default(server.WithHostPorts(cfg.Addr))
	httpadapter.PlayHandler{Session: c, KPI: kpi, AllowedOrigins: cfg.CORSOrigins}.RegisterRoutes(s)

	logger.Info("farm session listening", "addr", cfg.Addr, "farm_id", cfg.FarmID, "anonymous", c.Identity().Anonymous())
	s.Spin()
}

func buildSession(cfg config.Farm, logger *slog.Logger, metrics ports.SessionMetrics) (*session.Controller, error) {
	id := ports.Identity{
		FarmID:    cfg.FarmID,
		SessionID: cfg.SessionID,
		Signature: cfg.Signature,
		Sender:    cfg.Sender,
	}
	var gateway ports.SessionGateway
	if !id.Anonymous() {
		g, err := remote.New(remote.Options{BaseURL: cfg.LedgerURL, Timeout: cfg.RequestTimeout})
		if err != nil {
			return nil, err
		}
		gateway = g
	}
	return session.New(id, gateway, session.Options{
		MinSaveDuration:   cfg.MinSaveDuration,
		AnonymousReadOnly: cfg.AnonymousReadOnly,
		Logger:            logger,
		Metrics:           metrics,
	})
}

// superviseAutosave runs the autosave loop whenever the session enters
// playing. run returns on its own once the session reaches a terminal state;
// playing signals left over from that run are discarded.
func superviseAutosave(ctx context.Context, c *session.Controller, run func(context.Context)) {
	playing := make(chan struct{}, 1)
	c.OnTransition(func(tr session.Transition) {
		if tr.To != session.StatePlaying {
			return
		}
		select {
		case playing <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-playing:
			}
			for ctx.Err() == nil && c.State() == session.StatePlaying {
				run(ctx)
				select {
				case <-playing:
				default:
				}
			}
		}
	}()
}
