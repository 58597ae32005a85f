package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/models"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

const version = "1.0.0"

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// LetterGenerator triggers the nightly letter for a single day
type LetterGenerator interface {
	GenerateNow(ctx context.Context, date string) (string, error)
}

type Handlers struct {
	db        *db.DB
	vault     *vault.Vault
	summaries *summary.Service
	fonts     *sharecard.FontSet
	sharer    sharecard.Sharer
	letters   LetterGenerator
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

func NewHandlers(d Deps) *Handlers {
	fonts := d.Fonts
	if fonts == nil {
		fonts = sharecard.FallbackFontSet()
	}
	return &Handlers{
		db:        d.DB,
		vault:     d.Vault,
		summaries: d.Summaries,
		fonts:     fonts,
		sharer:    d.Sharer,
		letters:   d.Letters,
		loc:       d.Config.Location(),
		now:       time.Now,
		log:       d.Log,
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   models.StatusOK,
		Database: h.checkDatabase(),
		Vault:    h.checkVault(),
		Sharing:  h.sharingMode(),
		Version:  version,
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) checkDatabase() string {
	if err := h.db.Ping(); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (h *Handlers) checkVault() string {
	if !h.vault.Writable() {
		return "error: not writable"
	}
	return "writable"
}

func (h *Handlers) sharingMode() string {
	return string(sharecard.Probe(h.sharer, sharecard.MIMEPNG))
}

// dateParam validates the {date} URL parameter
func (h *Handlers) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "date")
	if _, err := models.ParseDateKey(key, h.loc); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "INVALID_DATE")
		return "", false
	}
	return key, true
}

// PutRecord handles PUT /records/{date}
func (h *Handlers) PutRecord(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	var req models.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	energy, err := models.ParseEnergy(req.Energy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_ENERGY")
		return
	}

	rec := models.DailyRecord{
		Date:      date,
		Energy:    energy,
		Tags:      req.Tags,
		Memo:      req.Memo,
		UpdatedAt: h.now(),
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	if err := h.db.UpsertRecord(rec); err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("storing record")
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// GetRecord handles GET /records/{date}
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	rec, err := h.db.GetRecord(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no record for "+date, "NOT_FOUND")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /records/{date}
func (h *Handlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	err := h.db.DeleteRecord(date)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no record for "+date, "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRecords handles GET /records
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since != "" {
		if _, err := models.ParseDateKey(since, h.loc); err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD", "INVALID_DATE")
			return
		}
	}

	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_LIMIT")
		return
	}

	records, err := h.db.ListRecords(since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if records == nil {
		records = []models.DailyRecord{}
	}

	writeJSON(w, http.StatusOK, models.RecordsResponse{Records: records})
}

func queryLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

// summarize runs the generator and writes the error response itself on failure
func (h *Handlers) summarize(w http.ResponseWriter, r *http.Request, date string) (summary.Result, bool) {
	res, err := h.summaries.Summarize(r.Context(), date)
	if errors.Is(err, summary.ErrNoRecord) {
		writeError(w, http.StatusNotFound, "no record for "+date, "NOT_FOUND")
		return res, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("generating summary")
		writeError(w, http.StatusInternalServerError, "summary generation failed", "SUMMARY_FAILED")
		return res, false
	}
	return res, true
}

// Summary handles GET /summary/{date}
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	res, ok := h.summarize(w, r, date)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, models.SummaryResponse{
		Date:     date,
		Sentence: res.Sentence,
		Mode:     string(res.Mode),
	})
}

func (h *Handlers) composeCard(w http.ResponseWriter, r *http.Request, date string) (sharecard.Card, bool) {
	res, ok := h.summarize(w, r, date)
	if !ok {
		return sharecard.Card{}, false
	}

	card, err := sharecard.Compose(res.Sentence, h.fonts)
	if err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("rendering card")
		writeError(w, http.StatusInternalServerError, "image generation failed", "RENDER_FAILED")
		return card, false
	}
	return card, true
}

// Card handles GET /summary/{date}/card.png as a file download
func (h *Handlers) Card(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	card, ok := h.composeCard(w, r, date)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", card.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sharecard.DownloadName(h.now().In(h.loc))))
	w.Header().Set("Content-Length", strconv.Itoa(len(card.PNG)))
	w.WriteHeader(http.StatusOK)
	w.Write(card.PNG)
}

// Share handles POST /summary/{date}/share
func (h *Handlers) Share(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	card, ok := h.composeCard(w, r, date)
	if !ok {
		return
	}

	rec := &sharecard.Recorder{}
	composer := &sharecard.Composer{
		Sharer:     h.sharer,
		Downloader: h.vault.Downloads(),
		Notifier:   sharecard.MultiNotifier{rec, sharecard.LogNotifier{Log: h.log}},
		Clock:      func() time.Time { return h.now().In(h.loc) },
		Log:        h.log.With().Str("date", date).Logger(),
	}

	res, shareErr := composer.Share(r.Context(), card)

	file := ""
	if res.File != "" {
		file = h.vault.Rel(res.File)
	}
	errMsg := ""
	switch {
	case shareErr != nil:
		errMsg = shareErr.Error()
	case res.ShareErr != nil:
		errMsg = res.ShareErr.Error()
	}

	id, err := h.db.LogShare(date, string(res.Strategy), string(res.Outcome), file, errMsg)
	if err != nil {
		h.log.Warn().Err(err).Str("date", date).Msg("recording share")
	}
	if err := h.vault.LogShare(vault.ShareLog{
		ID:       id,
		Date:     date,
		Strategy: string(res.Strategy),
		Outcome:  string(res.Outcome),
		File:     file,
		Error:    errMsg,
	}); err != nil {
		h.log.Warn().Err(err).Str("date", date).Msg("appending share log")
	}

	resp := models.ShareResponse{
		ShareID:  id,
		Strategy: string(res.Strategy),
		Outcome:  string(res.Outcome),
		File:     file,
		Messages: rec.Texts(),
	}

	if shareErr != nil {
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Shares handles GET /shares
func (h *Handlers) Shares(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_LIMIT")
		return
	}

	shares, err := h.db.RecentShares(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	if shares == nil {
		shares = []models.ShareLogEntry{}
	}

	writeJSON(w, http.StatusOK, models.SharesResponse{Shares: shares})
}

// GenerateLetter handles POST /letters/{date} and runs the nightly job for one day
func (h *Handlers) GenerateLetter(w http.ResponseWriter, r *http.Request) {
	if h.letters == nil {
		writeError(w, http.StatusServiceUnavailable, "letter generator not configured", "NOT_CONFIGURED")
		return
	}

	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	path, err := h.letters.GenerateNow(r.Context(), date)
	if errors.Is(err, summary.ErrNoRecord) {
		writeError(w, http.StatusNotFound, "no record for "+date, "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "GENERATION_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": models.StatusOK,
		"date":   date,
		"letter": path,
	})
}
