package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
	pkgpg "github.com/IanaraFer/dataSite-sub000/pkg/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSeriesStore implements SeriesStore on Postgres. Saving upserts by (series_id, day).
type PGSeriesStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGSeriesStore(pg *pkgpg.Client, l *applogger.Logger) *PGSeriesStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &PGSeriesStore{pool: pg.Pool(), l: l}
}

func (s *PGSeriesStore) LoadSeries(ctx context.Context, seriesID string, limit int) ([]models.Point, error) {
	start := time.Now()
	const q = `
		SELECT day, value
		FROM daily_series
		WHERE series_id = $1
		ORDER BY day DESC
		LIMIT NULLIF($2, 0)`

	rows, err := s.pool.Query(ctx, q, seriesID, max(limit, 0))
	if err != nil {
		s.l.Error("postgres load_series query error", applogger.String("series_id", seriesID), applogger.Error(err))
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	var out []models.Point
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
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

	s.l.Debug("postgres load_series ok",
		applogger.String("series_id", seriesID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *PGSeriesStore) SaveSeries(ctx context.Context, seriesID string, points []models.Point) error {
	const q = `
		INSERT INTO daily_series (series_id, day, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (series_id, day) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	points = normalize(points)
	if len(points) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(q, seriesID, p.Date, p.Value)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		s.l.Error("postgres save_series error",
			applogger.String("series_id", seriesID),
			applogger.Int("rows", len(points)),
			applogger.Error(err),
		)
		return fmt.Errorf("save series: %w", err)
	}
	return nil
}

func (s *PGSeriesStore) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT series_id FROM daily_series ORDER BY series_id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan series ids: %w", err)
	}
	return ids, nil
}
