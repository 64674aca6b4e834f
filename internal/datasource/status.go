package datasource

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// TourDataStatus summarises the matches available for one tour
type TourDataStatus struct {
	Tour         models.Tour `json:"tour"`
	TotalMatches int         `json:"total_matches"`
	EarliestDate string      `json:"earliest_date,omitempty"`
	LatestDate   string      `json:"latest_date,omitempty"`
	Files        []string    `json:"files"`
}

// DataStatus summarises what a match source would feed into training
type DataStatus struct {
	Source      string           `json:"source"`
	Tours       []TourDataStatus `json:"tours"`
	CurrentDate string           `json:"current_date"`
}

// DataStatusReporter is implemented by match sources that can describe their data
type DataStatusReporter interface {
	DataStatus(ctx context.Context) (*DataStatus, error)
}

// tourSpan accumulates the match count and date range of one tour
type tourSpan struct {
	status   TourDataStatus
	earliest time.Time
	latest   time.Time
}

func newTourSpan(tour models.Tour) *tourSpan {
	return &tourSpan{status: TourDataStatus{Tour: tour, Files: []string{}}}
}

func (t *tourSpan) add(matches []models.Match) {
	for _, m := range matches {
		t.status.TotalMatches++
		if t.earliest.IsZero() || m.Date.Before(t.earliest) {
			t.earliest = m.Date
		}
		if m.Date.After(t.latest) {
			t.latest = m.Date
		}
	}
}

func (t *tourSpan) finish() TourDataStatus {
	out := t.status
	if !t.earliest.IsZero() {
		out.EarliestDate = t.earliest.UTC().Format(models.DateLayout)
		out.LatestDate = t.latest.UTC().Format(models.DateLayout)
	}
	return out
}

// DataStatus reads every configured file and reports, per tour, how many
// matches would be used for training, their date range and the files found.
func (s *CSVMatchSource) DataStatus(ctx context.Context) (*DataStatus, error) {
	now := s.now().UTC()
	end := s.endYear
	if end == 0 {
		end = now.Year()
	}

	out := &DataStatus{Source: csvSourceName, Tours: []TourDataStatus{}, CurrentDate: now.Format(models.DateLayout)}
	for _, tour := range s.tours {
		span := newTourSpan(tour)
		for year := s.startYear; year <= end; year++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path, ok := s.locate(tour, year)
			if !ok {
				continue
			}
			matches, err := s.readFile(path, tour, now)
			if err != nil {
				return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, path, err)
			}
			span.status.Files = append(span.status.Files, filepath.Base(path))
			span.add(matches)
		}
		out.Tours = append(out.Tours, span.finish())
	}
	return out, nil
}

// DataStatus groups the in-memory matches by tour; matches without a tour are reported under an empty tour
func (s *SliceMatchSource) DataStatus(ctx context.Context) (*DataStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spans := make(map[models.Tour]*tourSpan)
	for _, m := range s.matches {
		span, ok := spans[m.Tour]
		if !ok {
			span = newTourSpan(m.Tour)
			spans[m.Tour] = span
		}
		span.add([]models.Match{m})
	}

	out := &DataStatus{Source: sliceSourceName, Tours: make([]TourDataStatus, 0, len(spans)), CurrentDate: time.Now().UTC().Format(models.DateLayout)}
	for _, span := range spans {
		out.Tours = append(out.Tours, span.finish())
	}
	sort.Slice(out.Tours, func(i, j int) bool { return out.Tours[i].Tour < out.Tours[j].Tour })
	return out, nil
}
