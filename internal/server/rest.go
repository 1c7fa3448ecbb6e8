package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/repositories"
	"github.com/desertthunder/moodx/internal/shared"
)

const (
	entriesPath  = "/rest/v1/mood_entries"
	profilesPath = "/rest/v1/profiles"
)

// entryQuery is a parsed table request.
type entryQuery struct {
	filter    repositories.EntryFilter
	zeroLimit bool
}

// parseEntryQuery reads select, order, limit and eq.<value> filters.
func parseEntryQuery(values url.Values) (entryQuery, error) {
	q := entryQuery{filter: repositories.EntryFilter{Eq: map[string]string{}}}

	for key, vals := range values {
		if len(vals) != 1 {
			return q, fmt.Errorf("%w: parameter %q given %d times", shared.ErrInvalidInput, key, len(vals))
		}
		val := vals[0]

		switch key {
		case "select":
		case "order":
			col, dir, _ := strings.Cut(val, ".")
			switch dir {
			case "", "desc":
			case "asc":
				q.filter.Asc = true
			default:
				return q, fmt.Errorf("%w: order direction %q", shared.ErrInvalidInput, dir)
			}
			q.filter.Order = col
		case "limit":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return q, fmt.Errorf("%w: limit %q", shared.ErrInvalidInput, val)
			}
			q.filter.Limit = n
			q.zeroLimit = n == 0
		default:
			v, ok := strings.CutPrefix(val, "eq.")
			if !ok {
				return q, fmt.Errorf("%w: unsupported filter %s=%s", shared.ErrInvalidInput, key, val)
			}
			q.filter.Eq[key] = v
		}
	}
	return q, nil
}

// scope restricts the query to the caller's rows. It reports false when the query can match nothing.
func (q *entryQuery) scope(p principal) bool {
	if p.service {
		return true
	}
	if _, ok := q.filter.Eq["user_id"]; ok && !q.filter.IsOwnedBy(p.owner) {
		return false
	}
	q.filter.Eq["user_id"] = p.owner
	return true
}

// restHandler serves the /rest/v1 tables.
type restHandler struct {
	s *Server
}

func (h *restHandler) Routes() []string {
	return []string{
		"GET " + entriesPath,
		"POST " + entriesPath,
		"PATCH " + entriesPath,
		"DELETE " + entriesPath,
		"GET " + profilesPath,
	}
}

func (h *restHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.s.identify(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.authenticated() {
		writeError(w, fmt.Errorf("%w: bearer token required", shared.ErrNotAuthenticated))
		return
	}

	if r.URL.Path == profilesPath {
		h.listProfiles(w, r, p)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.list(w, r, p)
	case http.MethodPost:
		h.insert(w, r, p)
	case http.MethodPatch:
		h.update(w, r, p)
	case http.MethodDelete:
		h.delete(w, r, p)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "method not allowed"})
	}
}

func (h *restHandler) list(w http.ResponseWriter, r *http.Request, p principal) {
	ctx := r.Context()
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	rows := []models.Entry{}
	visible := q.scope(p)
	if visible && !q.zeroLimit && r.Method != http.MethodHead {
		if rows, err = h.s.entries.List(ctx, q.filter); err != nil {
			writeError(w, err)
			return
		}
	}

	if prefers(r, "count=exact") {
		total := 0
		if visible {
			if total, err = h.s.entries.Count(ctx, q.filter); err != nil {
				writeError(w, err)
				return
			}
		}
		w.Header().Set("Content-Range", contentRange(len(rows), total))
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *restHandler) insert(w http.ResponseWriter, r *http.Request, p principal) {
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, err)
		return
	}

	var entries []models.Entry
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(raw, &entries); err != nil {
			writeError(w, fmt.Errorf("%w: malformed rows: %v", shared.ErrInvalidInput, err))
			return
		}
	} else {
		var e models.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			writeError(w, fmt.Errorf("%w: malformed row: %v", shared.ErrInvalidInput, err))
			return
		}
		entries = []models.Entry{e}
	}

	for i := range entries {
		e := &entries[i]
		if e.Owner == "" {
			e.Owner = p.owner
		}
		if !p.canAccess(e.Owner) {
			writeError(w, fmt.Errorf("%w: row owner does not match token", shared.ErrForbidden))
			return
		}
		if e.Timestamp == 0 {
			e.Timestamp = time.Now().UnixMilli()
		}
		if e.Date == "" {
			e.Date = models.DateOf(time.UnixMilli(e.Timestamp))
		}
	}

	saved := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		row, err := h.s.entries.Insert(r.Context(), e)
		if err != nil {
			writeError(w, err)
			return
		}
		saved = append(saved, row)
	}

	if prefers(r, "return=representation") {
		writeJSON(w, http.StatusCreated, saved)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *restHandler) update(w http.ResponseWriter, r *http.Request, p principal) {
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	if patch.Empty() {
		writeError(w, fmt.Errorf("%w: patch sets no columns", shared.ErrInvalidInput))
		return
	}

	rows := []models.Entry{}
	if q.scope(p) {
		if rows, err = h.s.entries.Update(r.Context(), q.filter, patch); err != nil {
			writeError(w, err)
			return
		}
	}
	h.respondRows(w, r, rows)
}

func (h *restHandler) delete(w http.ResponseWriter, r *http.Request, p principal) {
	q, err := parseEntryQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	rows := []models.Entry{}
	if q.scope(p) {
		if rows, err = h.s.entries.Delete(r.Context(), q.filter); err != nil {
			writeError(w, err)
			return
		}
	}
	h.respondRows(w, r, rows)
}

func (h *restHandler) respondRows(w http.ResponseWriter, r *http.Request, rows []models.Entry) {
	if !prefers(r, "return=representation") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rows == nil {
		rows = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *restHandler) listProfiles(w http.ResponseWriter, r *http.Request, p principal) {
	ctx := r.Context()
	if !p.service {
		profile, err := h.s.profiles.Get(ctx, p.owner)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []models.Profile{*profile})
		return
	}

	profiles, err := h.s.profiles.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// contentRange renders "first-last/total", or "*/total" when no rows were returned.
func contentRange(n, total int) string {
	if n == 0 {
		return fmt.Sprintf("*/%d", total)
	}
	return fmt.Sprintf("0-%d/%d", n-1, total)
}
