package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	pkgch "github.com/IanaraFer/dataSite-sub000/pkg/clickhouse"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
)

const chInsertChunk = 2000

// CHSeriesStore implements SeriesStore backed by the ClickHouse daily_series table.
type CHSeriesStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, l *applogger.Logger) *CHSeriesStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSeriesStore{db: ch.DB(), l: l}
}

func (s *CHSeriesStore) LoadSeries(ctx context.Context, seriesID string, limit int) ([]models.Point, error) {
	start := time.Now()
	q := `
		SELECT day, value
		FROM daily_series FINAL
		WHERE series_id = ?
		ORDER BY day DESC`
	args := []any{seriesID}
	if limit > 0 {
		q += "\n\t\tLIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse load_series query error",
			applogger.String("series_id", seriesID),
			applogger.Int("limit", limit),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	out := make([]models.Point, 0, 256)
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			s.l.Error("clickhouse load_series scan error", applogger.String("series_id", seriesID), applogger.Error(err))
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Date = dayOf(p.Date)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, domrepo.ErrSeriesNotFound
	}
	reversePoints(out)

	s.l.Debug("clickhouse load_series ok",
		applogger.String("series_id", seriesID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHSeriesStore) SaveSeries(ctx context.Context, seriesID string, points []models.Point) error {
	points = normalize(points)
	now := time.Now().UTC()
	for start := 0; start < len(points); start += chInsertChunk {
		end := start + chInsertChunk
		if end > len(points) {
			end = len(points)
		}
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*4)
		for _, p := range points[start:end] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, seriesID, p.Date, p.Value, now)
		}
		q := "INSERT INTO daily_series (series_id, day, value, updated_at) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save_series error",
				applogger.String("series_id", seriesID),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("save series: %w", err)
		}
	}
	return nil
}

func (s *CHSeriesStore) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT series_id FROM daily_series ORDER BY series_id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan series id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
