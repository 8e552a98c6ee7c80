package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/models"
	"github.com/yurifrl/sheetload/pkg/parser"
	"github.com/yurifrl/sheetload/pkg/store"
)

// Store is the part of the target database the importer needs.
type Store interface {
	MaxEventDate(ctx context.Context) (models.Cutoff, error)
	Append(ctx context.Context, records []*models.Record) (int64, error)
	Close() error
}

// Connector opens a Store. The password has already been set on cfg.
type Connector func(ctx context.Context, cfg config.Store) (Store, error)

// Result summarises a run.
type Result struct {
	Cutoff   models.Cutoff
	Read     int
	Appended int64
	Report   *Report
}

// Importer loads a spreadsheet into the consumption table, appending only
// rows newer than what the table already holds.
type Importer struct {
	cfg     *config.Config
	logger  *log.Logger
	parser  *parser.Parser
	connect Connector
	out     io.Writer
}

func New(cfg *config.Config, logger *log.Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		logger: logger,
		parser: parser.New(logger).WithCharset(cfg.Source.Charset),
		connect: func(ctx context.Context, c config.Store) (Store, error) {
			return store.Open(ctx, c, logger)
		},
		out: os.Stdout,
	}
}

func (i *Importer) WithConnector(connect Connector) *Importer {
	i.connect = connect
	return i
}

// WithOutput redirects the status lines normally printed to stdout.
func (i *Importer) WithOutput(w io.Writer) *Importer {
	i.out = w
	return i
}

// Run appends the new records of the file at path and prints the number of
// rows loaded.
func (i *Importer) Run(ctx context.Context, path, password string) (*Result, error) {
	res, st, err := i.prepare(ctx, path, password)
	if err != nil {
		return nil, err
	}
	defer i.release(st)

	toAppend := res.Report.RecordsToAppend()
	for _, r := range toAppend {
		if err := r.Coerce(); err != nil {
			return nil, fmt.Errorf("coercing volume: %w", err)
		}
	}

	n, err := st.Append(ctx, toAppend)
	if err != nil {
		return nil, fmt.Errorf("appending to %s: %w", i.cfg.Store.Table, err)
	}
	res.Appended = n

	i.logger.Info("import finished", "read", res.Read, "skipped", res.Report.SkippedCount(), "appended", n)
	fmt.Fprintf(i.out, "Data imported successfully! %d rows loaded to %s.\n", n, i.cfg.Store.Table)
	return res, nil
}

// Plan runs every step except the write and returns the report.
func (i *Importer) Plan(ctx context.Context, path, password string) (*Result, error) {
	res, st, err := i.prepare(ctx, path, password)
	if err != nil {
		return nil, err
	}
	i.release(st)
	return res, nil
}

// prepare loads and transforms the source, connects and filters by the
// cutoff. On success the caller owns the returned store.
func (i *Importer) prepare(ctx context.Context, path, password string) (*Result, Store, error) {
	records, err := i.load(path)
	if err != nil {
		return nil, nil, err
	}

	storeCfg := i.cfg.Store
	storeCfg.Password = password
	st, err := i.connect(ctx, storeCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrStoreConnection, err)
	}

	cutoff := i.cutoff(ctx, st)
	report := BuildReport(records, cutoff)
	i.logger.Debug("filtered records", "cutoff", cutoff, "read", len(records), "new", report.AppendCount())

	return &Result{Cutoff: cutoff, Read: len(records), Report: report}, st, nil
}

func (i *Importer) load(path string) ([]*models.Record, error) {
	i.logger.Debug("reading source", "path", path)

	table, err := i.parser.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	records, err := i.cfg.Source.Columns.Transform(table, i.cfg.Source.DateLayouts)
	if err != nil {
		return nil, fmt.Errorf("transforming %s: %w", path, err)
	}
	i.logger.Debug("transformed source", "rows", len(table.Rows), "records", len(records))
	return records, nil
}

// cutoff never fails: any query problem degrades to an absent cutoff.
func (i *Importer) cutoff(ctx context.Context, st Store) models.Cutoff {
	cutoff, err := st.MaxEventDate(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCutoffQuery, err)
		i.logger.Debug("importing without cutoff", "error", err)
		fmt.Fprintln(i.out, Diagnostic(err))
		return models.Cutoff{}
	}
	if !cutoff.Valid {
		i.logger.Info("target table is empty, importing every record", "table", i.cfg.Store.Table)
		return cutoff
	}
	fmt.Fprintf(i.out, "Max event_date detected: %s\n", cutoff)
	return cutoff
}

func (i *Importer) release(st Store) {
	if err := st.Close(); err != nil {
		i.logger.Warn("failed to close store", "error", err)
	}
}
