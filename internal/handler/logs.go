package handler

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"isuclicker-api/internal/journal"
	"isuclicker-api/pkg/apierror"
	"isuclicker-api/pkg/response"
)

// LogHandler serves the mutation journal to operators.
type LogHandler struct {
	journal *journal.Writer
}

// NewLogHandler creates a log handler. w may be nil when journaling is off.
func NewLogHandler(w *journal.Writer) *LogHandler {
	return &LogHandler{journal: w}
}

// GetJournal handles GET /api/v1/admin/journal?hour=YYYY-MM-DD-HH&room=&page=&limit=
func (h *LogHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		response.Error(w, apierror.ServiceUnavailable("journal is disabled"))
		return
	}

	q := r.URL.Query()
	hour := q.Get("hour")
	if hour == "" {
		hour = time.Now().UTC().Format("2006-01-02-15")
	} else if _, err := time.Parse("2006-01-02-15", hour); err != nil {
		response.Error(w, apierror.ValidationError("invalid hour",
			apierror.FieldError{Field: "hour", Message: "expected YYYY-MM-DD-HH"}))
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := journal.ReadFile(h.journal.PathForHour(hour))
	// the current hour's file is still open and ends in an unfinished frame
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, io.ErrUnexpectedEOF) {
		log.Printf("[LogHandler] Reading journal %s: %v", hour, err)
	}

	room := q.Get("room")
	filtered := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		if room == "" || e.Room == room {
			filtered = append(filtered, e)
		}
	}

	total := int64(len(filtered))
	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	response.JSONWithMeta(w, http.StatusOK, filtered[start:end], page, limit, total)
}
