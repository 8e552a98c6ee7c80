//go:build integration

package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/go-connections/nat"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/models"
)

const (
	testDatabase = "superset"
	testUser     = "data_importer"
	testPassword = "importer-secret"
)

func TestMain(m *testing.M) {
	// Optional overrides such as SHEETLOAD_TEST_MYSQL_IMAGE.
	_ = godotenv.Load("../../.env.test")
	os.Exit(m.Run())
}

func image(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

type endpoint interface {
	Host(ctx context.Context) (string, error)
	MappedPort(ctx context.Context, port nat.Port) (nat.Port, error)
}

func storeConfig(t *testing.T, ctx context.Context, driver string, ctr endpoint, port nat.Port) config.Store {
	t.Helper()
	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	mapped, err := ctr.MappedPort(ctx, port)
	require.NoError(t, err)
	p, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	return config.Store{
		Driver:       driver,
		Host:         host,
		Port:         p,
		Database:     testDatabase,
		User:         testUser,
		Password:     testPassword,
		Table:        "consumption",
		MissingTable: config.MissingTableCreate,
		BatchSize:    2,
	}
}

func startMySQL(t *testing.T, ctx context.Context) config.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctr, err := mysql.Run(ctx,
		image("SHEETLOAD_TEST_MYSQL_IMAGE", "mysql:8.0.36"),
		mysql.WithDatabase(testDatabase),
		mysql.WithUsername(testUser),
		mysql.WithPassword(testPassword),
	)
	if err != nil {
		t.Skipf("Docker unavailable: %v", err)
	}
	t.Cleanup(func() { ctr.Terminate(context.Background()) }) //nolint:errcheck

	return storeConfig(t, ctx, "mysql", ctr, "3306/tcp")
}

func startPostgres(t *testing.T, ctx context.Context) config.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctr, err := postgres.Run(ctx,
		image("SHEETLOAD_TEST_POSTGRES_IMAGE", "postgres:16-alpine"),
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Docker unavailable: %v", err)
	}
	t.Cleanup(func() { ctr.Terminate(context.Background()) }) //nolint:errcheck

	return storeConfig(t, ctx, "postgres", ctr, "5432/tcp")
}

func exerciseStore(t *testing.T, ctx context.Context, cfg config.Store) {
	t.Helper()

	s, err := Open(ctx, cfg, log.Default())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append(ctx, nil)
	require.NoError(t, err, "create policy must create the table")

	cutoff, err := s.MaxEventDate(ctx)
	require.NoError(t, err)
	assert.False(t, cutoff.Valid)

	var records []*models.Record
	for _, row := range [][3]string{
		{"2024-01-01", "coffee", "250"},
		{"2024-01-05", "", "300.25"},
		{"2024-01-10", "tea", ""},
	} {
		r, err := models.NewRecord(row[1]).SetDate(row[0]).SetVolume(row[2]).Build()
		require.NoError(t, err)
		records = append(records, r)
	}

	n, err := s.Append(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cutoff, err = s.MaxEventDate(ctx)
	require.NoError(t, err)
	require.True(t, cutoff.Valid)
	assert.Equal(t, "2024-01-10", cutoff.String())
}

func TestMySQLStore(t *testing.T) {
	ctx := context.Background()
	exerciseStore(t, ctx, startMySQL(t, ctx))
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	exerciseStore(t, ctx, startPostgres(t, ctx))
}

func TestMySQLStore_WrongPassword(t *testing.T) {
	ctx := context.Background()
	cfg := startMySQL(t, ctx)
	cfg.Password = "wrong"

	_, err := Open(ctx, cfg, log.Default())
	assert.Error(t, err)
}
