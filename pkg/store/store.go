package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/models"
)

// timeLayouts covers MAX() results returned as text, notably by SQLite where
// the aggregate loses the column's declared type.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Store is an append-only view of the consumption table.
type Store struct {
	db            *sql.DB
	dialect       dialect
	table         string
	batchSize     int
	createMissing bool
	logger        *log.Logger
}

// Open connects to the configured database and verifies the connection.
// The caller must Close the store.
func Open(ctx context.Context, cfg config.Store, logger *log.Logger) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = d.defaultPort
	}

	db, err := sql.Open(d.driver, d.dsn(cfg, port))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(1)

	logger.Debug("connecting", "driver", cfg.Driver, "host", cfg.Host, "port", port, "database", cfg.Database, "user", cfg.User)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database %s: %w", cfg.Driver, cfg.Database, err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Store{
		db:            db,
		dialect:       d,
		table:         cfg.Table,
		batchSize:     batchSize,
		createMissing: cfg.MissingTable == config.MissingTableCreate,
		logger:        logger,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// MaxEventDate returns the newest event_date in the table. An empty table
// yields an absent cutoff and no error.
func (s *Store) MaxEventDate(ctx context.Context) (models.Cutoff, error) {
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", s.dialect.quote(Columns[0]), s.dialect.quote(s.table))

	var raw any
	if err := s.db.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return models.Cutoff{}, fmt.Errorf("querying max event_date: %w", err)
	}
	if raw == nil {
		return models.Cutoff{}, nil
	}

	t, err := toTime(raw)
	if err != nil {
		return models.Cutoff{}, err
	}
	return models.NewCutoff(t), nil
}

// EnsureTable creates the table when it does not exist yet.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(s.table)); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Append inserts records in a single transaction, batchSize rows per
// statement. Every record is coerced before anything is sent, so a bad volume
// writes nothing.
func (s *Store) Append(ctx context.Context, records []*models.Record) (int64, error) {
	if s.createMissing {
		if err := s.EnsureTable(ctx); err != nil {
			return 0, err
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		args, err := r.Args()
		if err != nil {
			return 0, err
		}
		rows = append(rows, args)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(Columns))
		for _, r := range chunk {
			args = append(args, r...)
		}
		res, err := tx.ExecContext(ctx, s.dialect.insert(s.table, len(chunk)), args...)
		if err != nil {
			return 0, fmt.Errorf("bulk insert into %s: %w", s.table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		} else {
			total += int64(len(chunk))
		}
		s.logger.Debug("inserted chunk", "from", start, "to", end, "table", s.table)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func toTime(raw any) (time.Time, error) {
	var s string
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return time.Time{}, fmt.Errorf("unexpected max event_date type %T", raw)
	}

	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable max event_date %q", s)
}
