// Package main is the entry point for the lottery sales engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lotto-engine/internal/config"
	"lotto-engine/internal/draw"
	"lotto-engine/internal/handler"
	"lotto-engine/internal/hierarchy"
	"lotto-engine/internal/pkg/cache"
	"lotto-engine/internal/pkg/db"
	"lotto-engine/internal/quota"
	"lotto-engine/internal/rate"
	"lotto-engine/internal/repository"
	"lotto-engine/internal/rollup"
	"lotto-engine/internal/service"
	"lotto-engine/internal/settle"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	entryRepo := repository.NewEntryRepository(dbPool.Pool)
	dailyQuotaRepo := repository.NewDailyQuotaRepository(dbPool.Pool)
	agentQuotaRepo := repository.NewAgentQuotaRepository(dbPool.Pool)
	limitRepo := repository.NewTicketLimitRepository(dbPool.Pool)
	blockNumberRepo := repository.NewBlockNumberRepository(dbPool.Pool)
	creditRepo := repository.NewCreditLimitRepository(dbPool.Pool)
	rateRepo := repository.NewRateTableRepository(dbPool.Pool)
	windowRepo := repository.NewDrawWindowRepository(dbPool.Pool)
	blockedDateRepo := repository.NewBlockedDateRepository(dbPool.Pool)
	resultRepo := repository.NewResultRepository(dbPool.Pool)
	schemeRepo := repository.NewSchemeRepository(dbPool.Pool)
	summaryRepo := repository.NewSummaryRepository(dbPool.Pool)
	agentRepo := repository.NewAgentRepository(dbPool.Pool)

	// Seed the default payout schemes for every tier and draw that has no
	// table yet, so winnings settle before an admin customizes anything.
	for tier := 1; tier <= 3; tier++ {
		for _, label := range []string{draw.LabelDear1, draw.LabelKerala, draw.LabelDear6, draw.LabelDear8} {
			if err := schemeRepo.SeedDefaults(ctx, tier, label, settle.DefaultSchemeRows()); err != nil {
				log.Fatal().Err(err).Int("tier", tier).Str("draw", label).Msg("Failed to seed payout schemes")
			}
		}
	}

	// In-memory caches
	stop := make(chan struct{})
	rateCache := cache.New(cfg.Cache.RateTTL, cfg.Cache.MaxEntries)
	rateCache.StartSweeper(time.Minute, stop)
	reportCache := cache.New(cfg.Cache.ReportTTL, cfg.Cache.MaxEntries)
	reportCache.StartSweeper(time.Minute, stop)

	// Agent hierarchy index
	tree := hierarchy.NewIndex(agentRepo)
	if err := tree.Refresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to build agent hierarchy")
	}
	tree.StartRefresher(ctx, cfg.Hierarchy.RefreshInterval, stop)

	// Core engine
	gate := draw.NewGate(windowRepo, cfg.Draws.Location())
	ledger := quota.NewLedger(dailyQuotaRepo, agentQuotaRepo, blockNumberRepo)
	rateResolver := rate.NewResolver(rateRepo, rateCache)
	rollupEngine := rollup.NewEngine(summaryRepo, tree)

	// Services
	admission := service.NewAdmissionPipeline(
		gate, blockedDateRepo, limitRepo, ledger, rateResolver,
		creditRepo, entryRepo, rollupEngine, reportCache,
	)
	entryAdmin := service.NewEntryAdminService(entryRepo, gate, reportCache)
	resultService := service.NewResultService(resultRepo, reportCache)
	reportService := service.NewReportService(summaryRepo, entryRepo, resultRepo, schemeRepo, tree, reportCache)
	reconcileService := service.NewReconciliationService(rollupEngine, entryRepo, reportCache)

	// HTTP server
	server := handler.NewServer(&cfg.Server, handler.Deps{
		Pool:         dbPool,
		Admission:    admission,
		EntryAdmin:   entryAdmin,
		Results:      resultService,
		Reports:      reportService,
		Reconcile:    reconcileService,
		Windows:      windowRepo,
		BlockedDates: blockedDateRepo,
		BlockNumbers: blockNumberRepo,
		Credits:      creditRepo,
		RateTables:   rateRepo,
		RateResolver: rateResolver,
		Schemes:      schemeRepo,
		Limits:       limitRepo,
		Agents:       agentRepo,
		Tree:         tree,
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errChan:
		log.Error().Err(err).Msg("HTTP server exited")
	}

	close(stop)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Stop(shutdownCtx)
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: entries and the bill counter
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			number VARCHAR(8) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			count INT NOT NULL,
			unit_rate DOUBLE PRECISION NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			draw_label VARCHAR(32) NOT NULL,
			time_code VARCHAR(16) NOT NULL DEFAULT '',
			agent_id VARCHAR(64) NOT NULL,
			batch_id VARCHAR(16) NOT NULL,
			settlement_date VARCHAR(10) NOT NULL,
			valid BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_entries_batch ON entries(batch_id);
		CREATE INDEX IF NOT EXISTS idx_entries_agent_date ON entries(agent_id, settlement_date);
		CREATE INDEX IF NOT EXISTS idx_entries_date_draw ON entries(settlement_date, draw_label) WHERE valid;

		CREATE TABLE IF NOT EXISTS bill_counter (
			id INT PRIMARY KEY CHECK (id = 1),
			value BIGINT NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: entries tables created")

	// Migration 2: quota ledgers and configuration
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_quota (
			date VARCHAR(10) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			number VARCHAR(8) NOT NULL,
			remaining INT NOT NULL,
			PRIMARY KEY (date, bet_type, number)
		);

		CREATE TABLE IF NOT EXISTS agent_quota (
			date VARCHAR(10) NOT NULL,
			agent_id VARCHAR(64) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			number VARCHAR(8) NOT NULL,
			remaining INT NOT NULL,
			PRIMARY KEY (date, agent_id, bet_type, number)
		);

		CREATE TABLE IF NOT EXISTS ticket_limit_config (
			id INT PRIMARY KEY CHECK (id = 1),
			group1 JSONB NOT NULL DEFAULT '{}',
			group2 JSONB NOT NULL DEFAULT '{}',
			group3 JSONB NOT NULL DEFAULT '{}',
			created_by VARCHAR(64) NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS block_numbers (
			id BIGSERIAL PRIMARY KEY,
			field VARCHAR(8) NOT NULL,
			number VARCHAR(8) NOT NULL,
			draw_time VARCHAR(32) NOT NULL,
			created_by VARCHAR(64) NOT NULL,
			count INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (created_by, field, number, draw_time)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: quota tables created")

	// Migration 3: credit limits, rate tables, draw calendar
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS credit_limits (
			id BIGSERIAL PRIMARY KEY,
			from_user VARCHAR(64) NOT NULL,
			to_user VARCHAR(64) NOT NULL,
			draw_time VARCHAR(32) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			UNIQUE (to_user, draw_time)
		);

		CREATE TABLE IF NOT EXISTS rate_tables (
			agent_id VARCHAR(64) NOT NULL,
			draw VARCHAR(32) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			rate DOUBLE PRECISION NOT NULL,
			assign_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (agent_id, draw, bet_type)
		);

		CREATE TABLE IF NOT EXISTS draw_windows (
			draw_label VARCHAR(32) NOT NULL,
			role VARCHAR(16) NOT NULL,
			block_time VARCHAR(5) NOT NULL,
			unblock_time VARCHAR(5) NOT NULL,
			PRIMARY KEY (draw_label, role)
		);

		CREATE TABLE IF NOT EXISTS blocked_dates (
			ticket VARCHAR(16) NOT NULL,
			date VARCHAR(10) NOT NULL,
			PRIMARY KEY (ticket, date)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: configuration tables created")

	// Migration 4: results and payout schemes
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS draw_results (
			date VARCHAR(10) NOT NULL,
			draw_label VARCHAR(32) NOT NULL,
			prizes TEXT[] NOT NULL,
			others TEXT[] NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (date, draw_label)
		);

		CREATE TABLE IF NOT EXISTS scheme_tables (
			tier INT NOT NULL,
			draw_label VARCHAR(32) NOT NULL,
			group_name VARCHAR(16) NOT NULL,
			scheme VARCHAR(8) NOT NULL DEFAULT '',
			pos INT NOT NULL DEFAULT 0,
			amount DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (tier, draw_label, group_name, scheme, pos)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: settlement tables created")

	// Migration 5: sales summaries and the agent roster
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sales_summaries (
			agent_id VARCHAR(64) NOT NULL,
			date VARCHAR(10) NOT NULL,
			draw_label VARCHAR(32) NOT NULL,
			self_count INT NOT NULL DEFAULT 0,
			self_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			child_count INT NOT NULL DEFAULT 0,
			child_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_count INT NOT NULL DEFAULT 0,
			total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (agent_id, date, draw_label)
		);

		CREATE TABLE IF NOT EXISTS sales_summary_rows (
			agent_id VARCHAR(64) NOT NULL,
			date VARCHAR(10) NOT NULL,
			draw_label VARCHAR(32) NOT NULL,
			scheme VARCHAR(8) NOT NULL,
			count INT NOT NULL DEFAULT 0,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (agent_id, date, draw_label, scheme)
		);

		CREATE TABLE IF NOT EXISTS agents (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) NOT NULL UNIQUE,
			created_by VARCHAR(64) NOT NULL DEFAULT '',
			role VARCHAR(16) NOT NULL DEFAULT 'sub',
			tier INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: rollup tables created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
