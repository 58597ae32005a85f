package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/mrwolf/yojeum-server/internal/models"
)

// LookbackDays is the window the page uses for "요즘" (lately)
const LookbackDays = 7

// Pattern thresholds
const (
	MinPatternRecords = 2
	DominantFraction  = 0.6
	MinSomeLowDays    = 2
	MinTagRepeats     = 2
	MaxFrequentTags   = 3
)

// EnergyPattern is the coarse energy trend over recent days
type EnergyPattern string

const (
	PatternNeutral    EnergyPattern = "neutral"
	PatternMostlyLow  EnergyPattern = "mostly_low"
	PatternMostlyHigh EnergyPattern = "mostly_high"
	PatternSomeLow    EnergyPattern = "some_low"
)

// RecordSource is a read-only, day-keyed view of the journal
type RecordSource interface {
	Record(dateKey string) (models.DailyRecord, bool)
}

// Days is an in-memory RecordSource keyed by YYYY-MM-DD
type Days map[string]models.DailyRecord

// Record implements RecordSource
func (d Days) Record(dateKey string) (models.DailyRecord, bool) {
	r, ok := d[dateKey]
	return r, ok
}

// RecentContext summarises the days preceding the selected date
type RecentContext struct {
	HasRecentData bool
	RecordCount   int
	EnergyPattern EnergyPattern
	FrequentTags  []string       // most frequent first, at most 3
	LastEnergy    *models.Energy // nil when no prior record exists
}

// NormalizeTag strips the tag marker
func NormalizeTag(tag string) string {
	return strings.Replace(tag, "#", "", 1)
}

// NormalizeTags strips the marker from every tag
func NormalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = NormalizeTag(t)
	}
	return out
}

// AnalyzeRecent walks the `days` calendar days before selected (selected itself excluded)
func AnalyzeRecent(src RecordSource, selected time.Time, days int) RecentContext {
	var energies []models.Energy
	tagCounts := make(map[string]int)
	var tagOrder []string // first-encountered order

	for i := 1; i <= days; i++ {
		key := models.DateKey(selected.AddDate(0, 0, -i))
		record, ok := src.Record(key)
		if !ok {
			continue
		}
		energies = append(energies, record.Energy)

		for _, tag := range record.Tags {
			clean := NormalizeTag(tag)
			if _, seen := tagCounts[clean]; !seen {
				tagOrder = append(tagOrder, clean)
			}
			tagCounts[clean]++
		}
	}

	rc := RecentContext{
		HasRecentData: len(energies) > 0,
		RecordCount:   len(energies),
		EnergyPattern: classifyPattern(energies),
		FrequentTags:  frequentTags(tagOrder, tagCounts),
	}
	if len(energies) > 0 {
		last := energies[0]
		rc.LastEnergy = &last
	}
	return rc
}

// classifyPattern applies the rules in fixed priority order, first match wins
func classifyPattern(energies []models.Energy) EnergyPattern {
	total := len(energies)
	if total < MinPatternRecords {
		return PatternNeutral
	}

	var low, high int
	for _, e := range energies {
		switch e {
		case models.EnergyLow:
			low++
		case models.EnergyHigh:
			high++
		}
	}

	switch {
	case float64(low)/float64(total) > DominantFraction:
		return PatternMostlyLow
	case float64(high)/float64(total) > DominantFraction:
		return PatternMostlyHigh
	case low >= MinSomeLowDays:
		return PatternSomeLow
	default:
		return PatternNeutral
	}
}

func frequentTags(order []string, counts map[string]int) []string {
	var tags []string
	for _, tag := range order {
		if counts[tag] >= MinTagRepeats {
			tags = append(tags, tag)
		}
	}

	// Stable so ties keep first-encountered order
	sort.SliceStable(tags, func(i, j int) bool {
		return counts[tags[i]] > counts[tags[j]]
	})

	if len(tags) > MaxFrequentTags {
		tags = tags[:MaxFrequentTags]
	}
	return tags
}
