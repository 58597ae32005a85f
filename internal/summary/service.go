package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/metrics"
	"github.com/mrwolf/yojeum-server/internal/models"
)

// ErrNoRecord is returned when the selected day has no journal entry
var ErrNoRecord = errors.New("no record for date")

// Store is the slice of the database the service needs
type Store interface {
	GetRecord(date string) (*models.DailyRecord, error)
	RecordWindow(from, to string) (map[string]models.DailyRecord, error)
	SaveSummary(date, sentence, mode, rule string, seed int) error
}

// Service loads records, generates the day's sentence and remembers it
type Service struct {
	store    Store
	location *time.Location
	lookback int
	log      zerolog.Logger
}

// NewService creates a summary service
func NewService(store Store, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, location: loc, lookback: LookbackDays, log: log}
}

// SetLookback changes how many prior days feed the recent context
func (s *Service) SetLookback(days int) {
	if days > 0 {
		s.lookback = days
	}
}

// Summarize generates the sentence for dateKey (YYYY-MM-DD)
func (s *Service) Summarize(ctx context.Context, dateKey string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	date, err := models.ParseDateKey(dateKey, s.location)
	if err != nil {
		return Result{}, fmt.Errorf("parsing date %q: %w", dateKey, err)
	}

	record, err := s.store.GetRecord(dateKey)
	if err != nil {
		return Result{}, fmt.Errorf("loading record: %w", err)
	}
	if record == nil {
		return Result{}, ErrNoRecord
	}

	from := models.DateKey(date.AddDate(0, 0, -s.lookback))
	to := models.DateKey(date.AddDate(0, 0, -1))
	window, err := s.store.RecordWindow(from, to)
	if err != nil {
		return Result{}, fmt.Errorf("loading recent records: %w", err)
	}

	recent := AnalyzeRecent(Days(window), date, s.lookback)
	result := GenerateWithContext(date, Today{
		Energy: record.Energy,
		Tags:   record.Tags,
		Memo:   record.Memo,
	}, recent)

	if err := s.store.SaveSummary(dateKey, result.Sentence, string(result.Mode), result.Rule, result.Seed); err != nil {
		// The sentence is reproducible, so a failed save only loses history
		s.log.Warn().Err(err).Str("date", dateKey).Msg("saving summary failed")
	}

	metrics.SummariesGenerated.WithLabelValues(string(result.Mode)).Inc()
	s.log.Info().
		Str("date", dateKey).
		Str("mode", string(result.Mode)).
		Str("rule", result.Rule).
		Int("recent_records", result.Recent.RecordCount).
		Msg("summary generated")

	return result, nil
}
