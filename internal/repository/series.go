package repository

import (
	"sort"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// normalize truncates dates to UTC days and keeps the last value seen for a
// day, so stores upsert whole days.
func normalize(points []models.Point) []models.Point {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[dayOf(p.Date)] = p.Value
	}
	out := make([]models.Point, 0, len(byDay))
	for d, v := range byDay {
		out = append(out, models.Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// tail returns the last limit points; limit <= 0 keeps everything.
func tail(points []models.Point, limit int) []models.Point {
	if limit > 0 && len(points) > limit {
		return points[len(points)-limit:]
	}
	return points
}

func reversePoints(p []models.Point) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
