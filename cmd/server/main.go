package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	httpadapter "farmsession/internal/adapter/http"
	metricsinmem "farmsession/internal/adapter/metrics/inmemory"
	gormrepo "farmsession/internal/adapter/repo/gorm"
	"farmsession/internal/adapter/repo/memory"
	"farmsession/internal/app/ledger"
	"farmsession/internal/app/ports"
	"farmsession/internal/app/replay"
	"farmsession/internal/domain/farm"
	"farmsession/internal/platform/config"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		config.Fatal(nil, "parse config", "err", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	uc, err := buildLedger(context.Background(), cfg, logger)
	if err != nil {
		config.Fatal(logger, "build ledger", "err", err)
	}
	if err := seedDemoFarm(context.Background(), uc, cfg); err != nil {
		config.Fatal(logger, "seed demo farm, did the migrations run?", "err", err)
	}

	kpi := metricsinmem.NewRecorder()
	h := httpadapter.LedgerHandler{
		Ledger:   uc,
		ReplayUC: replay.UseCase{Actions: uc.Actions},
		KPI:      kpi,
		Metrics:  kpi,

		AllowedOrigins: cfg.CORSOrigins,
	}
	s := server.Default(server.WithHostPorts(cfg.Addr))
	h.RegisterRoutes(s)

	logger.Info("farm ledger listening", "addr", cfg.Addr, "demo_farm_id", cfg.SeedFarmID, "demo_session_id", cfg.SeedSessionID)
	s.Spin()
}

// buildLedger wires postgres when a DSN is configured and the in-memory
// store otherwise.
func buildLedger(ctx context.Context, cfg config.Server, logger *slog.Logger) (ledger.UseCase, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		logger.Warn("FARM_DB_DSN not set, using in-memory ledger")
		store := memory.NewStore()
		return ledger.UseCase{
			TxManager: memory.NewTxManager(store),
			Farms:     memory.NewFarmRepo(store),
			Actions:   memory.NewActionRepo(store),
			Entries:   memory.NewLedgerRepo(store),
		}, nil
	}

	db, err := gormrepo.OpenPostgres(cfg.DSN, gormrepo.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowThreshold:   cfg.DBSlowThreshold,
		Logger:          logger,
	})
	if err != nil {
		return ledger.UseCase{}, err
	}
	if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
		applied, err := gormrepo.ApplyMigrations(ctx, db, os.DirFS(dir))
		if err != nil {
			return ledger.UseCase{}, err
		}
		logger.Info("migrations applied", "dir", dir, "versions", applied)
	}
	return ledger.UseCase{
		TxManager: gormrepo.NewTxManager(db),
		Farms:     gormrepo.NewFarmRepo(db),
		Actions:   gormrepo.NewActionRepo(db),
		Entries:   gormrepo.NewLedgerRepo(db),
	}, nil
}

func seedDemoFarm(ctx context.Context, uc ledger.UseCase, cfg config.Server) error {
	if cfg.SeedFarmID <= 0 || strings.TrimSpace(cfg.SeedSessionID) == "" {
		return nil
	}
	id := ports.Identity{FarmID: cfg.SeedFarmID, SessionID: cfg.SeedSessionID}
	err := uc.Seed(ctx, id, farm.InitialFarm())
	if errors.Is(err, ports.ErrConflict) {
		return nil
	}
	return err
}
