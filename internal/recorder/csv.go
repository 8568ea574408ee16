package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/climascope/climascope/internal/analyzer"
)

// Default filenames within the recorder directory.
const (
	DefaultMeasurementsFile = "measurements.csv"
	DefaultOutOfRangeFile   = "out_of_range.csv"
	DefaultContextFile      = "context_data.csv"
)

// Column headers written once at open. Downstream tooling keys on these.
var (
	measurementsHeader = []string{"Temperature (°C)", "Humidity (%)", "Timestamp"}
	outOfRangeHeader   = []string{"Temperature (°C)", "Humidity (%)", "Timestamp", "Context"}
	contextHeader      = []string{"Temperature (°C)", "Humidity (%)", "Timestamp", "Related To", "Position"}
)

// Files names the three CSV files, relative to the recorder directory.
// Empty fields fall back to the defaults.
type Files struct {
	Measurements string
	OutOfRange   string
	Context      string
}

// CSV is an analyzer.Recorder backed by three CSV files. Opening truncates
// any prior contents and writes the headers; every row is flushed as it is
// written so a crash loses at most the in-flight row.
type CSV struct {
	mu           sync.Mutex
	measurements *table
	outOfRange   *table
	contexts     *table
}

type table struct {
	f *os.File
	w *csv.Writer
}

// Open creates (or truncates) the three CSV files under dir and writes their
// headers. dir is created if missing.
func Open(dir string, files Files) (*CSV, error) {
	if files.Measurements == "" {
		files.Measurements = DefaultMeasurementsFile
	}
	if files.OutOfRange == "" {
		files.OutOfRange = DefaultOutOfRangeFile
	}
	if files.Context == "" {
		files.Context = DefaultContextFile
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: create dir: %w", err)
	}

	c := &CSV{}
	var err error
	if c.measurements, err = openTable(filepath.Join(dir, files.Measurements), measurementsHeader); err != nil {
		return nil, err
	}
	if c.outOfRange, err = openTable(filepath.Join(dir, files.OutOfRange), outOfRangeHeader); err != nil {
		c.Close() //nolint:errcheck
		return nil, err
	}
	if c.contexts, err = openTable(filepath.Join(dir, files.Context), contextHeader); err != nil {
		c.Close() //nolint:errcheck
		return nil, err
	}
	return c, nil
}

// Measurement appends one reading to the measurements table.
func (c *CSV) Measurement(m analyzer.Measurement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measurements.append(measurementFields(m))
}

// OutOfRange appends one anomaly row with its cause label.
func (c *CSV) OutOfRange(m analyzer.Measurement, cause string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outOfRange.append(append(measurementFields(m), cause))
}

// Context appends one context row with its trigger reference and position.
func (c *CSV) Context(m analyzer.Measurement, relatedTo string, pos analyzer.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contexts.append(append(measurementFields(m), relatedTo, string(pos)))
}

// Close flushes and closes all three files.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, t := range []*table{c.measurements, c.outOfRange, c.contexts} {
		if t == nil {
			continue
		}
		t.w.Flush()
		if err := t.w.Error(); err != nil {
			errs = append(errs, err)
		}
		if err := t.f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openTable(path string, header []string) (*table, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %q: %w", path, err)
	}
	t := &table{f: f, w: csv.NewWriter(f)}
	if err := t.append(header); err != nil {
		f.Close() //nolint:errcheck
		return nil, fmt.Errorf("recorder: write header %q: %w", path, err)
	}
	return t, nil
}

func (t *table) append(record []string) error {
	if err := t.w.Write(record); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

func measurementFields(m analyzer.Measurement) []string {
	return []string{
		strconv.FormatFloat(m.Temperature, 'g', -1, 64),
		strconv.FormatFloat(m.Humidity, 'g', -1, 64),
		analyzer.FormatTime(m.Timestamp),
	}
}
