// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"lotto-engine/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, createSchema(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// createSchema mirrors the server's migrations for the tables under test.
func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
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

		CREATE TABLE IF NOT EXISTS bill_counter (
			id INT PRIMARY KEY CHECK (id = 1),
			value BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_quota (
			date VARCHAR(10) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			number VARCHAR(8) NOT NULL,
			remaining INT NOT NULL,
			PRIMARY KEY (date, bet_type, number)
		);

		CREATE TABLE IF NOT EXISTS rate_tables (
			agent_id VARCHAR(64) NOT NULL,
			draw VARCHAR(32) NOT NULL,
			bet_type VARCHAR(8) NOT NULL,
			rate DOUBLE PRECISION NOT NULL,
			assign_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (agent_id, draw, bet_type)
		);

		CREATE TABLE IF NOT EXISTS credit_limits (
			id BIGSERIAL PRIMARY KEY,
			from_user VARCHAR(64) NOT NULL,
			to_user VARCHAR(64) NOT NULL,
			draw_time VARCHAR(32) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			UNIQUE (to_user, draw_time)
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
	`)
	return err
}

func TestBillCounterSequence(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntryRepository(pool)
	ctx := context.Background()

	first, err := repo.NextBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "00001", first)

	second, err := repo.NextBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "00002", second)
}

func TestCreateBatchFreezesAmounts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntryRepository(pool)
	ctx := context.Background()

	batch := []model.BetEntry{
		{Number: "123", BetType: model.BetTypeSuper, Count: 2, UnitRate: 10, TotalAmount: 20,
			DrawLabel: "DEAR 1 PM", AgentID: "sub1", BatchID: "00001", SettlementDate: "2026-08-29"},
		{Number: "7", BetType: model.BetTypeA, Count: 3, UnitRate: 12, TotalAmount: 36,
			DrawLabel: "DEAR 1 PM", AgentID: "sub1", BatchID: "00001", SettlementDate: "2026-08-29"},
	}
	persisted, err := repo.CreateBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	stored, err := repo.ListByBatch(ctx, "00001")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 20.0, stored[0].TotalAmount)
	assert.Equal(t, 36.0, stored[1].TotalAmount)

	// A count change reprices from the stored unit rate, not from any
	// current rate table.
	updated, err := repo.UpdateCount(ctx, stored[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.TotalAmount)
	assert.Equal(t, 10.0, updated.UnitRate)
}

func TestInvalidateBatchExcludesFromSoldAmount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEntryRepository(pool)
	ctx := context.Background()

	batch := []model.BetEntry{
		{Number: "123", BetType: model.BetTypeSuper, Count: 2, UnitRate: 10, TotalAmount: 20,
			DrawLabel: "KERALA 3 PM", AgentID: "sub1", BatchID: "00001", SettlementDate: "2026-08-29"},
		{Number: "456", BetType: model.BetTypeSuper, Count: 1, UnitRate: 10, TotalAmount: 10,
			DrawLabel: "LSK 3 PM", AgentID: "sub1", BatchID: "00002", SettlementDate: "2026-08-29"},
	}
	_, err := repo.CreateBatch(ctx, batch)
	require.NoError(t, err)

	// Sold amount covers both spellings of the Kerala draw.
	sold, err := repo.SoldAmount(ctx, "sub1", "2026-08-29", []string{"KERALA 3 PM", "LSK 3 PM"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, sold)

	n, err := repo.InvalidateBatch(ctx, "00002")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sold, err = repo.SoldAmount(ctx, "sub1", "2026-08-29", []string{"KERALA 3 PM", "LSK 3 PM"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, sold)
}

func TestDailyQuotaCommitConcurrentNeverNegative(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewDailyQuotaRepository(pool)
	ctx := context.Background()

	const max = 50
	const workers = 20
	const perWorker = 5

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 20 workers committing 5 each is 100 against a max of
			// 50; the floor must hold.
			err := repo.Commit(ctx, "2026-08-29", model.BetTypeA, "7", max, perWorker)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	remaining, found, err := repo.Remaining(ctx, "2026-08-29", model.BetTypeA, "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.GreaterOrEqual(t, remaining, 0)
	assert.Equal(t, 0, remaining)
}

func TestDailyQuotaCommitSeedsAtMax(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewDailyQuotaRepository(pool)
	ctx := context.Background()

	_, found, err := repo.Remaining(ctx, "2026-08-29", model.BetTypeSuper, "123")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Commit(ctx, "2026-08-29", model.BetTypeSuper, "123", 100, 30))

	remaining, found, err := repo.Remaining(ctx, "2026-08-29", model.BetTypeSuper, "123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 70, remaining)
}

func TestRateTableAliasSharesCanonicalKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRateTableRepository(pool)
	ctx := context.Background()

	saved := &model.RateTable{
		AgentID: "master1",
		Draw:    "LSK 3 PM",
		Rows:    []model.RateRow{{BetType: model.BetTypeSuper, Rate: 9.5}},
	}
	require.NoError(t, repo.Save(ctx, saved))
	assert.Equal(t, "KERALA 3 PM", saved.Draw)

	// Readable under both spellings; one underlying row.
	for _, key := range []string{"KERALA 3 PM", "LSK 3 PM"} {
		table, err := repo.Get(ctx, "master1", key)
		require.NoError(t, err)
		require.NotNil(t, table, "no table under %q", key)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, 9.5, table.Rows[0].Rate)
	}

	require.NoError(t, repo.Delete(ctx, "master1", "LSK 3 PM"))
	table, err := repo.Get(ctx, "master1", "KERALA 3 PM")
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestCreditLimitAliasResolves(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCreditLimitRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.CreditLimit{
		FromUser: "root", ToUser: "sub1", DrawTime: "LSK 3 PM", Amount: 500,
	}))

	limit, err := repo.Resolve(ctx, "sub1", "KERALA 3 PM")
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, 500.0, limit.Amount)

	limit, err = repo.Resolve(ctx, "sub1", "LSK 3 PM")
	require.NoError(t, err)
	require.NotNil(t, limit)

	// A ceiling for a different draw does not govern; the ALL record does.
	require.NoError(t, repo.Upsert(ctx, &model.CreditLimit{
		FromUser: "root", ToUser: "sub2", DrawTime: model.CreditLimitAll, Amount: 100,
	}))
	limit, err = repo.Resolve(ctx, "sub2", "DEAR 1 PM")
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, 100.0, limit.Amount)
}

func TestSchemeSeedDefaults(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSchemeRepository(pool)
	ctx := context.Background()

	defaults := []model.SchemeRow{
		{Group: model.SchemeGroupSuper, Pos: 1, Amount: 5000},
		{Group: model.SchemeGroupSuper, Pos: 0, Amount: 20},
	}
	require.NoError(t, repo.SeedDefaults(ctx, 1, "DEAR 1 PM", defaults))

	table, err := repo.Get(ctx, 1, "DEAR 1 PM")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Len(t, table.Rows, 2)

	// Seeding again must not overwrite an existing table.
	require.NoError(t, repo.Save(ctx, &model.SchemeTable{
		Tier: 1, DrawLabel: "DEAR 1 PM",
		Rows: []model.SchemeRow{{Group: model.SchemeGroupSuper, Pos: 1, Amount: 7000}},
	}))
	require.NoError(t, repo.SeedDefaults(ctx, 1, "DEAR 1 PM", defaults))

	table, err = repo.Get(ctx, 1, "DEAR 1 PM")
	require.NoError(t, err)
	require.NotNil(t, table)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 7000.0, table.Rows[0].Amount)
}

func TestSummaryIncrementsAccumulate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSummaryRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.IncrementSummary(ctx, "master1", "2026-08-29", "DEAR 1 PM", 5, 50, 0, 0))
	require.NoError(t, repo.IncrementSummary(ctx, "master1", "2026-08-29", "DEAR 1 PM", 0, 0, 3, 30))
	require.NoError(t, repo.IncrementRow(ctx, "master1", "2026-08-29", "DEAR 1 PM", "SUPER", 8, 80))

	summaries, err := repo.List(ctx, "master1", "2026-08-29", "2026-08-29", "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 5, s.SelfCount)
	assert.Equal(t, 50.0, s.SelfAmount)
	assert.Equal(t, 3, s.ChildCount)
	assert.Equal(t, 30.0, s.ChildAmount)
	assert.Equal(t, 8, s.TotalCount)
	assert.Equal(t, 80.0, s.TotalAmount)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "SUPER", s.Rows[0].Scheme)

	require.NoError(t, repo.DeleteRange(ctx, "2026-08-29", "2026-08-29"))
	summaries, err = repo.List(ctx, "master1", "2026-08-29", "2026-08-29", "")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
