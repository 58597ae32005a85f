package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/yojeum-server/internal/models"
)

var selectedDay = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

// daysBefore builds a Days source where energies[0] is the day before selectedDay
func daysBefore(energies ...models.Energy) Days {
	d := Days{}
	for i, e := range energies {
		key := models.DateKey(selectedDay.AddDate(0, 0, -(i + 1)))
		d[key] = models.DailyRecord{Date: key, Energy: e}
	}
	return d
}

func TestAnalyzeRecentEnergyPatterns(t *testing.T) {
	low, neutral, high := models.EnergyLow, models.EnergyNeutral, models.EnergyHigh

	tests := []struct {
		name     string
		energies []models.Energy
		want     EnergyPattern
	}{
		{"no records", nil, PatternNeutral},
		{"single low record is not a pattern", []models.Energy{low}, PatternNeutral},
		{"three low days", []models.Energy{low, low, low}, PatternMostlyLow},
		{"three high days", []models.Energy{high, high, high}, PatternMostlyHigh},
		{"two of three low is above 0.6", []models.Energy{low, neutral, low}, PatternMostlyLow},
		{"three of five low is exactly 0.6", []models.Energy{low, low, low, high, neutral}, PatternSomeLow},
		{"two low among four", []models.Energy{low, high, low, neutral}, PatternSomeLow},
		{"mixed", []models.Energy{high, neutral, low}, PatternNeutral},
		{"low wins before high is checked", []models.Energy{low, low}, PatternMostlyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := AnalyzeRecent(daysBefore(tt.energies...), selectedDay, LookbackDays)
			assert.Equal(t, tt.want, rc.EnergyPattern)
			assert.Equal(t, len(tt.energies), rc.RecordCount)
			assert.Equal(t, len(tt.energies) > 0, rc.HasRecentData)
		})
	}
}

func TestAnalyzeRecentSkipsMissingDaysAndExcludesSelected(t *testing.T) {
	src := Days{
		"2024-03-15": {Date: "2024-03-15", Energy: models.EnergyHigh}, // selected day itself
		"2024-03-13": {Date: "2024-03-13", Energy: models.EnergyLow},
		"2024-03-08": {Date: "2024-03-08", Energy: models.EnergyLow},  // 7 days back
		"2024-03-07": {Date: "2024-03-07", Energy: models.EnergyHigh}, // 8 days back, outside
	}

	rc := AnalyzeRecent(src, selectedDay, LookbackDays)

	assert.Equal(t, 2, rc.RecordCount)
	assert.Equal(t, PatternMostlyLow, rc.EnergyPattern)
	require.NotNil(t, rc.LastEnergy)
	assert.Equal(t, models.EnergyLow, *rc.LastEnergy)
}

func TestAnalyzeRecentCrossesMonthBoundary(t *testing.T) {
	selected := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := Days{
		"2024-02-29": {Energy: models.EnergyHigh},
		"2024-02-28": {Energy: models.EnergyHigh},
	}

	rc := AnalyzeRecent(src, selected, LookbackDays)

	assert.Equal(t, 2, rc.RecordCount)
	assert.Equal(t, PatternMostlyHigh, rc.EnergyPattern)
}

func TestAnalyzeRecentLastEnergyNilWithoutRecords(t *testing.T) {
	rc := AnalyzeRecent(Days{}, selectedDay, LookbackDays)
	assert.Nil(t, rc.LastEnergy)
	assert.False(t, rc.HasRecentData)
	assert.Empty(t, rc.FrequentTags)
}

func TestAnalyzeRecentFrequentTags(t *testing.T) {
	src := Days{
		"2024-03-14": {Energy: models.EnergyNeutral, Tags: []string{"#운동", "#공부", "#독서"}},
		"2024-03-13": {Energy: models.EnergyNeutral, Tags: []string{"공부", "#독서", "#친구"}},
		"2024-03-12": {Energy: models.EnergyNeutral, Tags: []string{"#공부", "#운동", "#가족"}},
		"2024-03-11": {Energy: models.EnergyNeutral, Tags: []string{"#가족", "#친구", "#독서"}},
	}

	rc := AnalyzeRecent(src, selectedDay, LookbackDays)

	// 공부 3, 독서 3, 운동 2, 친구 2, 가족 2. Ties keep first-seen order.
	assert.Equal(t, []string{"공부", "독서", "운동"}, rc.FrequentTags)
}

func TestAnalyzeRecentSingleOccurrenceTagsIgnored(t *testing.T) {
	src := Days{
		"2024-03-14": {Energy: models.EnergyNeutral, Tags: []string{"#운동"}},
		"2024-03-13": {Energy: models.EnergyNeutral, Tags: []string{"#공부"}},
	}

	rc := AnalyzeRecent(src, selectedDay, LookbackDays)
	assert.Empty(t, rc.FrequentTags)
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "운동", NormalizeTag("#운동"))
	assert.Equal(t, "운동", NormalizeTag("운동"))
	assert.Equal(t, "a#b", NormalizeTag("#a#b"))
}
