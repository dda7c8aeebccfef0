// Package table reads and writes the result formats produced by sweeps and
// single runs: the sweep CSV, the run report and the rule table.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"lifegraph/internal/explore"
	"lifegraph/pkg/metrics"
	"lifegraph/pkg/rules"
)

var (
	ErrHeader = errors.New("unexpected CSV header")
	ErrRow    = errors.New("malformed CSV row")
	ErrSeries = errors.New("series mode result without series")
)

// FinalHeader is the sweep CSV header in final-state mode.
var FinalHeader = []string{"rule", "rulestr", "rho", "H", "G", "D", "avg_pop", "activity", "final_alive"}

// SeriesHeader is the sweep CSV header in time-series mode.
var SeriesHeader = []string{"rule", "rulestr", "iter", "rho", "H", "G", "D"}

// SweepWriter writes sweep results as CSV. It implements explore.Sink.
type SweepWriter struct {
	w      *csv.Writer
	closer io.Closer
	series bool
}

var _ explore.Sink = (*SweepWriter)(nil)

// NewSweepWriter writes to w, emitting the header first when header is set.
func NewSweepWriter(w io.Writer, series, header bool) (*SweepWriter, error) {
	sw := &SweepWriter{w: csv.NewWriter(w), series: series}
	if header {
		if err := sw.w.Write(sw.Header()); err != nil {
			return nil, err
		}
		sw.w.Flush()
		if err := sw.w.Error(); err != nil {
			return nil, err
		}
	}
	return sw, nil
}

// OpenSweepFile opens path for appending. The header is only written when
// the file is new or empty, so resumed sweeps extend the same table.
func OpenSweepFile(path string, series bool) (*SweepWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	sw, err := NewSweepWriter(f, series, info.Size() == 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "write header to %s", path)
	}
	sw.closer = f
	return sw, nil
}

// Header returns the header for the writer's mode.
func (s *SweepWriter) Header() []string {
	if s.series {
		return SeriesHeader
	}
	return FinalHeader
}

// Write appends the rows of one result and flushes them, so a crash never
// leaves a rule half written in the buffer.
func (s *SweepWriter) Write(r explore.Result) error {
	idx := strconv.FormatUint(uint64(r.Index), 10)
	if s.series {
		if len(r.Series) == 0 {
			return errors.Wrapf(ErrSeries, "rule %d", r.Index)
		}
		for it, sc := range r.Series {
			row := []string{idx, r.Rule, strconv.Itoa(it), ff(sc.Rho), ff(sc.H), ff(sc.G), ff(sc.D)}
			if err := s.w.Write(row); err != nil {
				return err
			}
		}
	} else {
		m := r.Metrics
		row := []string{idx, r.Rule, ff(m.Rho), ff(m.H), ff(m.G), ff(m.D),
			ff(m.AveragePopulation), ff(m.Activity), ff(m.FinalAlive)}
		if err := s.w.Write(row); err != nil {
			return err
		}
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file, if any.
func (s *SweepWriter) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadSweep parses a final-mode sweep CSV.
func ReadSweep(r io.Reader) ([]explore.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(FinalHeader)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	for i, h := range FinalHeader {
		if header[i] != h {
			return nil, errors.Wrapf(ErrHeader, "column %d is %q, want %q", i, header[i], h)
		}
	}

	// A rule can appear twice when a sweep was interrupted between writing
	// its row and recording it; the later row wins, at the first position.
	var out []explore.Result
	seen := make(map[rules.Index]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		idx, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrRow, "line %d: rule %q", line, rec[0])
		}
		vals := make([]float64, len(rec)-2)
		for i, f := range rec[2:] {
			if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, errors.Wrapf(ErrRow, "line %d: %s=%q", line, FinalHeader[i+2], f)
			}
		}
		res := explore.Result{
			Index: rules.Index(idx),
			Rule:  rec[1],
			Metrics: metrics.Summary{
				Scalars: metrics.Scalars{Rho: vals[0], H: vals[1], G: vals[2], D: vals[3]},
				Dynamics: metrics.Dynamics{
					AveragePopulation: vals[4],
					Activity:          vals[5],
					FinalAlive:        vals[6],
				},
			},
		}
		if at, ok := seen[res.Index]; ok {
			out[at] = res
			continue
		}
		seen[res.Index] = len(out)
		out = append(out, res)
	}
}
