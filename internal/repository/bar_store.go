package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinNarrative/internal/domain/models"
	domrepo "FinNarrative/internal/domain/repository"
	pkgch "FinNarrative/pkg/clickhouse"
	applogger "FinNarrative/pkg/logger"
)

const (
	DailyBarsTable = "daily_bars"
	ProviderCH     = "clickhouse"

	insertChunk = 2000
)

// DailyBarsSchema returns the DDL for the bar table. Re-ingested bars
// replace older versions of the same (symbol, date).
func DailyBarsSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    symbol      LowCardinality(String),
    date        Date,
    open        Float64,
    high        Float64,
    low         Float64,
    close       Float64,
    volume      Float64,
    source      LowCardinality(String),
    event_id    String,
    ingested_at DateTime64(3) DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (symbol, date)`, database, DailyBarsTable),
	}
}

// CHBarStore stores daily bars in ClickHouse and serves them back as a
// PriceSource.
type CHBarStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var (
	_ domrepo.BarStorage  = (*CHBarStore)(nil)
	_ domrepo.NamedSource = (*CHBarStore)(nil)
)

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{ch: ch, db: ch.DB(), table: ch.Database() + "." + DailyBarsTable}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l.Component("clickhouse") }

func (s *CHBarStore) Name() string { return ProviderCH }

func (s *CHBarStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, DailyBarsSchema(s.ch.Database()))
}

func (s *CHBarStore) Store(ctx context.Context, bar models.DailyBar) error {
	return s.StoreBatch(ctx, []models.DailyBar{bar})
}

func (s *CHBarStore) StoreBatch(ctx context.Context, bars []models.DailyBar) error {
	start := time.Now()
	written := 0
	for from := 0; from < len(bars); from += insertChunk {
		to := from + insertChunk
		if to > len(bars) {
			to = len(bars)
		}
		q, args := buildInsert(s.table, bars[from:to])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(args)/insertColumns),
				applogger.Error(err),
			)
			return fmt.Errorf("insert bars: %w", err)
		}
		written += len(args) / insertColumns
	}
	s.l.Debug("clickhouse insert ok",
		applogger.String("table", s.table),
		applogger.Int("rows", written),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

const insertColumns = 9

// buildInsert renders a multi-row insert, skipping bars without a symbol,
// date or positive close.
func buildInsert(table string, bars []models.DailyBar) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*insertColumns)
	for _, b := range bars {
		if b.Symbol == "" || b.Date.IsZero() || b.Close <= 0 {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Source, b.EventID)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume, source, event_id) VALUES %s",
		table, strings.Join(values, ", "))
	return q, args
}

func (s *CHBarStore) Query(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	q := fmt.Sprintf(`
        SELECT symbol, date, open, high, low, close, volume, source, event_id
        FROM %s FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC`, s.table)
	return s.scan(ctx, "query", q, symbol, from, to)
}

// DailyBars implements PriceSource over stored history.
func (s *CHBarStore) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	q := fmt.Sprintf(`
        SELECT symbol, date, open, high, low, close, volume, source, event_id
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date DESC
        LIMIT ?`, s.table)
	bars, err := s.scan(ctx, "latest", q, symbol, n)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("clickhouse %s: %w", symbol, models.ErrSymbolNotFound)
	}
	reverse(bars)
	return bars, nil
}

func (s *CHBarStore) scan(ctx context.Context, op, q string, args ...interface{}) ([]models.DailyBar, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error", applogger.String("op", op), applogger.Error(err))
		return nil, fmt.Errorf("%s bars: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.DailyBar, 0, 256)
	for rows.Next() {
		var b models.DailyBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Source, &b.EventID); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = b.Date.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse query ok",
		applogger.String("op", op),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHBarStore) Close() error {
	return nil
}

func reverse(bars []models.DailyBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
