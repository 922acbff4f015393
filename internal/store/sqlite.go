// Package store exports the experiment table and summaries to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/report"
	"github.com/KaramelBytes/abeval-cli/internal/utils"
)

// DefaultTable is the table the processed dataset is written to.
const DefaultTable = "marketing_ab"

const summaryTable = "summary_metrics"

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNoSummary is returned when no summary has been saved yet.
var ErrNoSummary = errors.New("no summary stored")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database file at path and runs migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	connStr := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// a single writer keeps transactions on one connection
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, path: path}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logging.GetLogger(ctx).Debug("database opened", zap.String("path", path))
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

func (db *DB) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS summary_metrics (
			run_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT,
			variant_A_rows INTEGER NOT NULL,
			variant_B_rows INTEGER NOT NULL,
			mean_conv_A REAL,
			mean_conv_B REAL,
			abs_diff_B_minus_A REAL,
			rel_uplift_pct REAL,
			t_statistic REAL,
			p_value REAL,
			ci_low REAL,
			ci_high REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_metrics_created_at ON summary_metrics(created_at)`,
	}
	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// ReplaceTable drops table name and recreates it from the dataset's raw
// rows. Column affinity is inferred per column: INTEGER when every non-empty
// cell is an integer, REAL when every one is numeric, TEXT otherwise. Empty
// cells become NULL.
func (db *DB) ReplaceTable(ctx context.Context, name string, ds *dataset.Dataset) (int, error) {
	if !identRe.MatchString(name) {
		return 0, fmt.Errorf("invalid table name %q", name)
	}
	if name == summaryTable {
		return 0, fmt.Errorf("table name %q is reserved", name)
	}
	if ds == nil || len(ds.Header) == 0 {
		return 0, errors.New("dataset has no columns")
	}
	types := inferColumnTypes(ds.Header, ds.Rows)

	cols := make([]string, len(ds.Header))
	placeholders := make([]string, len(ds.Header))
	for i, h := range ds.Header {
		cols[i] = fmt.Sprintf("%s %s", quoteIdent(h), types[i])
		placeholders[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))); err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(ds.Header))
	for r, row := range ds.Rows {
		for i := range ds.Header {
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			args[i] = convertCell(cell, types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", r+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logging.GetLogger(ctx).Info("table replaced",
		zap.String("table", name),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("columns", len(ds.Header)))
	return len(ds.Rows), nil
}

// CountRows returns the number of rows in table name.
func (db *DB) CountRows(ctx context.Context, name string) (int, error) {
	if !identRe.MatchString(name) {
		return 0, fmt.Errorf("invalid table name %q", name)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// SaveSummary appends s under a new run id and returns that id.
func (db *DB) SaveSummary(ctx context.Context, s report.Summary, source string) (string, error) {
	runID := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO summary_metrics (
			run_id, created_at, source, variant_A_rows, variant_B_rows,
			mean_conv_A, mean_conv_B, abs_diff_B_minus_A, rel_uplift_pct,
			t_statistic, p_value, ci_low, ci_high
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(timeLayout), source, s.RowsA, s.RowsB,
		nullable(s.MeanA), nullable(s.MeanB), nullable(s.AbsDiff), nullable(s.RelUpliftPct),
		nullable(s.TStatistic), nullable(s.PValue), nullable(s.CILow), nullable(s.CIHigh),
	)
	if err != nil {
		return "", fmt.Errorf("insert summary: %w", err)
	}
	return runID, nil
}

// LatestSummary returns the most recently saved summary and its run id.
// NULL values read back as NaN.
func (db *DB) LatestSummary(ctx context.Context) (report.Summary, string, error) {
	row := db.QueryRowContext(ctx, `SELECT run_id, variant_A_rows, variant_B_rows,
			mean_conv_A, mean_conv_B, abs_diff_B_minus_A, rel_uplift_pct,
			t_statistic, p_value, ci_low, ci_high
		FROM summary_metrics ORDER BY created_at DESC, rowid DESC LIMIT 1`)

	var (
		s     report.Summary
		runID string
		f     [8]sql.NullFloat64
	)
	err := row.Scan(&runID, &s.RowsA, &s.RowsB, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Summary{}, "", ErrNoSummary
		}
		return report.Summary{}, "", fmt.Errorf("read summary: %w", err)
	}
	dst := []*float64{&s.MeanA, &s.MeanB, &s.AbsDiff, &s.RelUpliftPct, &s.TStatistic, &s.PValue, &s.CILow, &s.CIHigh}
	for i, nf := range f {
		*dst[i] = math.NaN()
		if nf.Valid {
			*dst[i] = nf.Float64
		}
	}
	return s, runID, nil
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func inferColumnTypes(header []string, rows [][]string) []string {
	types := make([]string, len(header))
	for i := range header {
		isInt, isReal, seen := true, true, false
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[i])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
				break
			}
		}
		switch {
		case !seen || !isReal:
			types[i] = "TEXT"
		case isInt:
			types[i] = "INTEGER"
		default:
			types[i] = "REAL"
		}
	}
	return types
}

func convertCell(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "REAL":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return nullable(f)
		}
	}
	return v
}
