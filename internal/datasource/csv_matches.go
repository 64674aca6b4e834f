package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/models"
)

const csvSourceName = "csv_matches"

var csvDateLayouts = []string{"20060102", models.DateLayout, "02/01/2006"}

// column aliases, first match wins
var csvColumns = map[string][]string{
	"date":       {"tourney_date", "date"},
	"tournament": {"tourney_name", "tournament"},
	"surface":    {"surface"},
	"winner":     {"winner_name", "winner"},
	"loser":      {"loser_name", "loser"},
	"score":      {"score"},
	"wsets":      {"wsets"},
	"lsets":      {"lsets"},
	"comment":    {"comment"},
}

// CSVMatchSource reads yearly match files laid out as {dir}/{tour}/{tour}_matches_{year}.csv
type CSVMatchSource struct {
	dir       string
	tours     []models.Tour
	startYear int
	endYear   int
	now       func() time.Time
	logger    *logrus.Logger
}

// NewCSVMatchSource creates a source over dir. endYear 0 means the current year.
func NewCSVMatchSource(dir string, tours []models.Tour, startYear, endYear int, logger *logrus.Logger) *CSVMatchSource {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &CSVMatchSource{
		dir:       dir,
		tours:     tours,
		startYear: startYear,
		endYear:   endYear,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *CSVMatchSource) Name() string {
	return csvSourceName
}

// Matches reads every configured file and returns the matches sorted by date.
// Walkovers and matches dated after today are dropped.
func (s *CSVMatchSource) Matches(ctx context.Context) (MatchStream, error) {
	now := s.now().UTC()
	end := s.endYear
	if end == 0 {
		end = now.Year()
	}

	var all []models.Match
	for _, tour := range s.tours {
		for year := s.startYear; year <= end; year++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path, ok := s.locate(tour, year)
			if !ok {
				s.logger.WithFields(logrus.Fields{"tour": tour, "year": year}).Debug("No match file found")
				continue
			}
			matches, err := s.readFile(path, tour, now)
			if err != nil {
				return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, path, err)
			}
			all = append(all, matches...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })
	return NewSliceMatchSource(nil).stream(all), nil
}

func (s *CSVMatchSource) locate(tour models.Tour, year int) (string, bool) {
	name := fmt.Sprintf("%s_matches_%d.csv", tour, year)
	for _, p := range []string{
		filepath.Join(s.dir, string(tour), name),
		filepath.Join(s.dir, name),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("path", p).Warn("Cannot stat match file")
		}
	}
	return "", false
}

func (s *CSVMatchSource) readFile(path string, tour models.Tour, now time.Time) ([]models.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	matches, stats, err := ParseMatchesCSV(f, tour, now)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"file":       filepath.Base(path),
		"matches":    len(matches),
		"walkovers":  stats.Walkovers,
		"future":     stats.Future,
		"bad_dates":  stats.BadDates,
		"bad_scores": stats.BadScores,
	}).Info("Loaded match file")
	return matches, nil
}

// CSVStats counts rows dropped while parsing
type CSVStats struct {
	Rows      int
	Walkovers int
	Future    int
	BadDates  int
	BadScores int
}

// ParseMatchesCSV parses one match file. Rows with an unknown surface are kept
// with the raw label so the training pass can report them.
func ParseMatchesCSV(r io.Reader, tour models.Tour, now time.Time) ([]models.Match, CSVStats, error) {
	var stats CSVStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("reading header: %w", err)
	}
	idx := indexColumns(header)
	if idx["date"] < 0 || idx["winner"] < 0 || idx["loser"] < 0 {
		return nil, stats, fmt.Errorf("%w: missing date, winner or loser column", ErrInvalidData)
	}

	var matches []models.Match
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		col := func(name string) string {
			i := idx[name]
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, ok := parseCSVDate(col("date"))
		if !ok {
			stats.BadDates++
			continue
		}
		if date.After(now) {
			stats.Future++
			continue
		}

		score, ok := rowScore(col("score"), col("wsets"), col("lsets"), col("comment"))
		if score.Walkover {
			stats.Walkovers++
			continue
		}
		if !ok {
			stats.BadScores++
		}

		surface, err := models.ParseSurface(col("surface"))
		if err != nil {
			surface = models.Surface(strings.ToLower(col("surface")))
		}

		winnerName, loserName := col("winner"), col("loser")
		matches = append(matches, models.Match{
			Date:       date,
			Surface:    surface,
			Tour:       tour,
			Tournament: col("tournament"),
			WinnerKey:  models.NormalizeKey(winnerName),
			LoserKey:   models.NormalizeKey(loserName),
			WinnerName: winnerName,
			LoserName:  loserName,
			WinnerSets: score.WinnerSets,
			LoserSets:  score.LoserSets,
			Retired:    score.Retired,
		})
	}
	return matches, stats, nil
}

func indexColumns(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make(map[string]int, len(csvColumns))
	for name, aliases := range csvColumns {
		idx[name] = -1
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				idx[name] = i
				break
			}
		}
	}
	return idx
}

func parseCSVDate(raw string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// rowScore prefers the score string and falls back to set columns
func rowScore(score, wsets, lsets, comment string) (Score, bool) {
	if score != "" {
		return ParseScore(score)
	}

	var s Score
	switch strings.ToLower(comment) {
	case "walkover", "w/o":
		s.Walkover = true
		return s, true
	case "retired", "ret", "disqualified":
		s.Retired = true
	}
	w, errW := strconv.Atoi(wsets)
	l, errL := strconv.Atoi(lsets)
	if errW != nil || errL != nil {
		return s, false
	}
	s.WinnerSets, s.LoserSets = w, l
	if s.Retired && s.WinnerSets <= s.LoserSets {
		s.WinnerSets = s.LoserSets + 1
	}
	return s, true
}
