package recorder

import (
	"errors"

	"github.com/climascope/climascope/internal/analyzer"
)

// Multi fans records out to multiple analyzer.Recorder implementations.
// If one recorder fails, the remaining recorders still receive the record;
// errors are joined.
type Multi struct {
	recorders []analyzer.Recorder
}

// NewMulti creates a Multi that fans out to the given recorders.
func NewMulti(recorders ...analyzer.Recorder) *Multi {
	return &Multi{recorders: recorders}
}

// Measurement delivers the reading to every wrapped recorder.
func (m *Multi) Measurement(x analyzer.Measurement) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Measurement(x); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OutOfRange delivers the anomaly to every wrapped recorder.
func (m *Multi) OutOfRange(x analyzer.Measurement, cause string) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.OutOfRange(x, cause); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Context delivers the context entry to every wrapped recorder.
func (m *Multi) Context(x analyzer.Measurement, relatedTo string, pos analyzer.Position) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Context(x, relatedTo, pos); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
