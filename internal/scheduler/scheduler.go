package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/metrics"
	"github.com/mrwolf/yojeum-server/internal/models"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

const (
	jobDailyLetter = "daily_letter"
	actorOwner     = "owner"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	scheduler  gocron.Scheduler
	db         *db.DB
	vault      *vault.Vault
	summaries  *summary.Service
	fonts      *sharecard.FontSet
	timezone   *time.Location
	letterHour int
	now        func() time.Time
	log        zerolog.Logger
}

// Config holds scheduler configuration
type Config struct {
	Timezone   *time.Location
	LetterHour int
}

// New creates a new scheduler
func New(database *db.DB, v *vault.Vault, svc *summary.Service, fonts *sharecard.FontSet, cfg Config, log zerolog.Logger) (*Scheduler, error) {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(tz))
	if err != nil {
		return nil, err
	}

	if fonts == nil {
		fonts = sharecard.FallbackFontSet()
	}

	return &Scheduler{
		scheduler:  s,
		db:         database,
		vault:      v,
		summaries:  svc,
		fonts:      fonts,
		timezone:   tz,
		letterHour: cfg.LetterHour,
		now:        time.Now,
		log:        log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start registers the nightly letter job and starts the scheduler
func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(s.letterHour), 0, 0))),
		gocron.NewTask(s.nightlyLetter),
		gocron.WithName("daily-letter"),
	)
	if err != nil {
		return fmt.Errorf("registering daily letter job: %w", err)
	}

	s.scheduler.Start()
	s.log.Info().Int("hour", s.letterHour).Str("tz", s.timezone.String()).Msg("scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// JobNames lists the registered jobs
func (s *Scheduler) JobNames() []string {
	var names []string
	for _, j := range s.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) nightlyLetter() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	today := models.DateKey(s.now().In(s.timezone))
	if _, err := s.GenerateNow(ctx, today); err != nil && !errors.Is(err, summary.ErrNoRecord) {
		s.log.Error().Err(err).Str("date", today).Msg("daily letter failed")
	}
}

// GenerateNow writes the letter and share card for date immediately and
// returns the letter's vault-relative path. A day without a record returns
// summary.ErrNoRecord and is tracked as skipped.
func (s *Scheduler) GenerateNow(ctx context.Context, date string) (string, error) {
	runID, err := s.db.StartSchedulerRun(actorOwner, jobDailyLetter)
	if err != nil {
		return "", fmt.Errorf("tracking run: %w", err)
	}

	path, err := s.generate(ctx, date)

	status := "completed"
	errMsg := ""
	switch {
	case errors.Is(err, summary.ErrNoRecord):
		status = "skipped"
		s.log.Info().Str("date", date).Msg("no record, skipping daily letter")
	case err != nil:
		status = "failed"
		errMsg = err.Error()
	}

	if cerr := s.db.CompleteSchedulerRun(runID, errMsg); cerr != nil {
		s.log.Warn().Err(cerr).Int64("run", runID).Msg("completing run")
	}
	metrics.SchedulerRuns.WithLabelValues(status).Inc()

	return path, err
}

func (s *Scheduler) generate(ctx context.Context, date string) (string, error) {
	res, err := s.summaries.Summarize(ctx, date)
	if err != nil {
		return "", err
	}

	record, err := s.db.GetRecord(date)
	if err != nil {
		return "", fmt.Errorf("loading record: %w", err)
	}
	if record == nil {
		return "", summary.ErrNoRecord
	}

	day, err := models.ParseDateKey(date, s.timezone)
	if err != nil {
		return "", err
	}

	card, err := sharecard.Compose(res.Sentence, s.fonts)
	if err != nil {
		return "", fmt.Errorf("rendering card: %w", err)
	}
	cardPath, err := s.vault.Downloads().Save(sharecard.DownloadName(day), card.PNG)
	if err != nil {
		return "", err
	}

	letterPath, err := s.vault.WriteLetter(vault.Letter{
		Date:     date,
		Mode:     string(res.Mode),
		Rule:     res.Rule,
		Energy:   string(record.Energy),
		Tags:     summary.NormalizeTags(record.Tags),
		Memo:     record.Memo,
		Sentence: res.Sentence,
		Card:     s.vault.Rel(cardPath),
		Created:  s.now(),
	})
	if err != nil {
		return "", err
	}

	s.log.Info().Str("date", date).Str("letter", letterPath).Msg("daily letter written")
	return letterPath, nil
}
