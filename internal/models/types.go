package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical day key format
const DateLayout = "2006-01-02"

// Energy is the journal's coarse mood/activity level
type Energy string

const (
	EnergyLow     Energy = "low"
	EnergyNeutral Energy = "neutral"
	EnergyHigh    Energy = "high"
)

// ParseEnergy accepts both the API values and the Korean labels used by the web page
func ParseEnergy(s string) (Energy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "낮음":
		return EnergyLow, nil
	case "neutral", "보통":
		return EnergyNeutral, nil
	case "high", "높음":
		return EnergyHigh, nil
	default:
		return "", fmt.Errorf("unknown energy %q", s)
	}
}

// Label returns the Korean label shown on the page
func (e Energy) Label() string {
	switch e {
	case EnergyLow:
		return "낮음"
	case EnergyHigh:
		return "높음"
	default:
		return "보통"
	}
}

// DailyRecord is one journal entry, keyed by its calendar date
type DailyRecord struct {
	Date      string    `json:"date"`
	Energy    Energy    `json:"energy"`
	Tags      []string  `json:"tags"`
	Memo      string    `json:"memo,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateKey formats a time as the canonical day key
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key in the given location
func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// RecordRequest is the body of PUT /records/{date}
type RecordRequest struct {
	Energy string   `json:"energy"`
	Tags   []string `json:"tags"`
	Memo   string   `json:"memo"`
}

// RecordsResponse is returned by the records list endpoint
type RecordsResponse struct {
	Records []DailyRecord `json:"records"`
}

// SummaryResponse is returned by the summary endpoint
type SummaryResponse struct {
	Date     string `json:"date"`
	Sentence string `json:"sentence"`
	Mode     string `json:"mode"`
}

// ShareResponse is returned after a share action
type ShareResponse struct {
	ShareID  string   `json:"share_id"`
	Strategy string   `json:"strategy"`
	Outcome  string   `json:"outcome"`
	File     string   `json:"file,omitempty"`
	Messages []string `json:"messages"`
}

// ShareLogEntry is one recorded share action
type ShareLogEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Strategy  string    `json:"strategy"`
	Outcome   string    `json:"outcome"`
	FileName  string    `json:"file_name,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SharesResponse is returned by the share log endpoint
type SharesResponse struct {
	Shares []ShareLogEntry `json:"shares"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Vault    string `json:"vault"`
	Sharing  string `json:"sharing"`
	Version  string `json:"version"`
}

// Status constants
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
)
