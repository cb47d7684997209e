package forecast

import (
	"errors"
	"fmt"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// Kind tags an engine failure. The tag leads the message of every error record.
type Kind string

const (
	KindFeature       Kind = "FeatureError"
	KindUnavailable   Kind = "BackendUnavailable"
	KindTraining      Kind = "TrainingError"
	KindValidation    Kind = "ValidationError"
	KindForecast      Kind = "ForecastError"
	KindEnsembleEmpty Kind = "EnsembleEmpty"
)

type Error struct {
	Kind    Kind
	Backend models.BackendTag
	Err     error
}

func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Backend, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, tag models.BackendTag, err error) *Error {
	return &Error{Kind: kind, Backend: tag, Err: err}
}

// wrap keeps an existing engine error and classifies anything else as kind.
func wrap(kind Kind, tag models.BackendTag, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(kind, tag, err)
}

// KindOf extracts the tag of an engine error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
