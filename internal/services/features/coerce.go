package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/IanaraFer/dataSite-sub000/pkg/util"
)

var (
	ErrEmptySeries   = errors.New("series has no rows")
	ErrMissingColumn = errors.New("column missing")
	ErrBadDate       = errors.New("unparseable date")
	ErrBadTarget     = errors.New("non-numeric target")
	ErrNoTarget      = errors.New("target column is entirely null")
)

// toTime coerces a row value to a daily calendar instant.
func toTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, ErrBadDate
		}
		return util.TruncateDay(val), nil
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, ErrBadDate
		}
		return util.TruncateDay(*val), nil
	case string:
		t, ok := util.ParseTime(val)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, val)
		}
		return util.TruncateDay(t), nil
	case int64:
		return util.TruncateDay(time.Unix(val, 0).UTC()), nil
	case int:
		return util.TruncateDay(time.Unix(int64(val), 0).UTC()), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, ErrBadDate
		}
		return util.TruncateDay(time.Unix(int64(val), 0).UTC()), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, val.String())
		}
		return util.TruncateDay(time.Unix(n, 0).UTC()), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrBadDate, v)
	}
}

// toFloat coerces a row value to a target number. Nulls come back as NaN.
func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		if math.IsInf(val, 0) {
			return 0, fmt.Errorf("%w: infinite", ErrBadTarget)
		}
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadTarget, val.String())
		}
		return f, nil
	case string:
		if val == "" {
			return math.NaN(), nil
		}
		f, ok := util.ParseFloat(val)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrBadTarget, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrBadTarget, v)
	}
}
