package summary

import (
	"time"

	"github.com/mrwolf/yojeum-server/internal/models"
)

// Mode says whether the sentence references recent days
type Mode string

const (
	ModeContextual Mode = "contextual"
	ModeStandalone Mode = "standalone"
)

// Today is the selected day's own input
type Today struct {
	Energy models.Energy
	Tags   []string
	Memo   string
}

// Result is a generated sentence plus how it was chosen
type Result struct {
	Date      string
	Sentence  string
	Mode      Mode
	Rule      string
	Seed      int
	Sentiment Sentiment
	Recent    RecentContext
}

// Seed derives the selection seed from the calendar date: day of month plus
// zero-based month times 31. Same date, same seed, in every session.
func Seed(date time.Time) int {
	return date.Day() + (int(date.Month())-1)*31
}

// Generate picks the sentence for date. It is a pure function of the date,
// today's input and the records in the lookback window.
func Generate(src RecordSource, date time.Time, today Today) Result {
	recent := AnalyzeRecent(src, date, LookbackDays)
	return GenerateWithContext(date, today, recent)
}

// GenerateWithContext picks the sentence given an already analyzed window
func GenerateWithContext(date time.Time, today Today, recent RecentContext) Result {
	in := Input{
		Energy:    today.Energy,
		Tags:      NormalizeTags(today.Tags),
		Memo:      today.Memo,
		Recent:    recent,
		Sentiment: ClassifySentiment(today.Memo),
	}
	seed := Seed(date)

	mode := ModeStandalone
	rules := StandaloneRules
	if recent.HasRecentData && recent.RecordCount >= MinPatternRecords {
		mode = ModeContextual
		rules = ContextualRules
	}

	name, pool := selectPool(rules, in)

	return Result{
		Date:      models.DateKey(date),
		Sentence:  pick(pool, seed),
		Mode:      mode,
		Rule:      name,
		Seed:      seed,
		Sentiment: in.Sentiment,
		Recent:    recent,
	}
}
