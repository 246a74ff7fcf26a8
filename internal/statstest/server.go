// Package statstest runs an in-process fake of the remote statistics
// service for boundary and workflow tests. It speaks the real wire format:
// decimal-string numerics, most-recent-first history, the rank endpoint's
// 400-with-detail rejection of unknown codes.
package statstest

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kitaoji/hensachi/internal/domain/subject"
)

const defaultHistoryLimit = 10

type submission struct {
	id        int64
	userHash  string
	value     float64
	createdAt time.Time
}

type userMetric struct {
	unit        string
	submissions []submission
}

// Server is the fake collaborator. Zero-value maps are populated by New.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	nextID  int64
	ranks   map[string]float64 // code -> top percent
	metrics map[string]*userMetric

	// FailSubmit and FailHistory force 500s for workflow failure tests.
	FailSubmit  bool
	FailHistory bool
}

// New starts a fake service seeded with the full 22-tier ladder and one
// user metric, "typing-speed".
func New() *Server {
	s := &Server{
		nextID:  1,
		ranks:   map[string]float64{},
		metrics: map[string]*userMetric{"typing-speed": {unit: "wpm"}},
	}

	// Plausible top-percent spread over the ladder, strongest smallest.
	ladder := subject.Ladder()
	for i, opt := range ladder {
		frac := float64(len(ladder)-i) / float64(len(ladder)+1)
		s.ranks[opt.Code] = math.Round(frac*10000) / 100
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/apex/rank/hensachi/", s.handleRank)
	mux.HandleFunc("/api/datasets/", s.handleDatasets)
	mux.HandleFunc("/api/u/", s.handleUserMetric)
	s.Server = httptest.NewServer(mux)

	return s
}

// BaseURL is the API base to point a client at.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// Seed records submissions directly, bypassing HTTP.
func (s *Server) Seed(slug, userHash string, values ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	um := s.metric(slug)
	for i, v := range values {
		um.submissions = append(um.submissions, submission{
			id:        s.nextID,
			userHash:  userHash,
			value:     v,
			createdAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		})
		s.nextID++
	}
}

func (s *Server) metric(slug string) *userMetric {
	um, ok := s.metrics[slug]
	if !ok {
		um = &userMetric{}
		s.metrics[slug] = um
	}
	return um
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/apex/rank/hensachi/"), "/")

	s.mu.Lock()
	top, ok := s.ranks[code]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"detail":    "unknown rank_code",
			"rank_code": code,
		})
		return
	}

	bottom := 100 - top
	writeJSON(w, http.StatusOK, map[string]any{
		"game":           "apex-legends",
		"metric":         "rank",
		"rank_code":      code,
		"hensachi":       dec(50 + invNorm(bottom/100)*10),
		"top_percent":    dec(top),
		"bottom_percent": dec(bottom),
		"meta":           map[string]any{"season": "fake"},
	})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/datasets/")
	switch {
	case rest == "":
		writeJSON(w, http.StatusOK, []map[string]any{
			{"slug": "japan-mountains", "name": "Mountains of Japan", "description": "elevation data"},
		})
	case strings.HasSuffix(rest, "/metrics/"):
		writeJSON(w, http.StatusOK, []map[string]any{
			{"key": "elevation", "name": "Elevation", "unit": "m"},
		})
	case strings.HasSuffix(rest, "/hensachi/"):
		s.handleMetricScores(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
	}
}

func (s *Server) handleMetricScores(w http.ResponseWriter, r *http.Request) {
	// One fixed table, highest score first, as the real service sorts.
	values := []struct {
		key  string
		name string
		v    float64
	}{
		{"fuji", "Mt. Fuji", 3776},
		{"kita", "Mt. Kita", 3193},
		{"hotaka", "Mt. Hotaka", 3190},
	}

	mean, std := meanStd([]float64{3776, 3193, 3190})
	rows := make([]map[string]any, len(values))
	for i, it := range values {
		rows[i] = map[string]any{
			"item":     map[string]any{"key": it.key, "name": it.name, "meta": map[string]any{}},
			"value":    dec(it.v),
			"hensachi": dec(hensachi(it.v, mean, std)),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dataset": "japan-mountains",
		"metric":  "elevation",
		"unit":    "m",
		"count":   len(rows),
		"mean":    dec(mean),
		"std":     dec(std),
		"results": rows,
	})
}

func (s *Server) handleUserMetric(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/u/"), "/"), "/")
	if len(parts) < 2 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
		return
	}
	slug := parts[0]

	s.mu.Lock()
	um, ok := s.metrics[slug]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
		return
	}

	switch parts[1] {
	case "submit":
		s.handleSubmit(w, r, slug, um)
	case "hensachi":
		s.handleUserScore(w, slug, um, parts)
	case "history":
		s.handleHistory(w, r, slug, um)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, slug string, um *userMetric) {
	if s.FailSubmit {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
		return
	}

	var req struct {
		UserHash string   `json:"user_hash"`
		Value    *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserHash == "" || req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "user_hash and value required"})
		return
	}

	s.mu.Lock()
	um.submissions = append(um.submissions, submission{
		id:        s.nextID,
		userHash:  req.UserHash,
		value:     *req.Value,
		createdAt: time.Now().UTC(),
	})
	s.nextID++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"detail": "ok"})
}

func (s *Server) handleUserScore(w http.ResponseWriter, slug string, um *userMetric, parts []string) {
	if len(parts) != 3 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
		return
	}
	x, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "x must be number"})
		return
	}

	s.mu.Lock()
	all := make([]float64, len(um.submissions))
	for i, sub := range um.submissions {
		all[i] = sub.value
	}
	s.mu.Unlock()

	if len(all) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "no data yet"})
		return
	}

	mean, std := meanStd(all)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_metric": slug,
		"x":           dec(x),
		"hensachi":    dec(hensachi(x, mean, std)),
		"mean":        dec(mean),
		"std":         dec(std),
		"count":       len(all),
		"unit":        um.unit,
		"diff":        dec(x - mean),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, slug string, um *userMetric) {
	if s.FailHistory {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
		return
	}

	userHash := r.URL.Query().Get("user_hash")
	if userHash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "user_hash required"})
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = defaultHistoryLimit
	}
	limit = max(1, min(limit, 100))

	s.mu.Lock()
	var items []map[string]any
	for i := len(um.submissions) - 1; i >= 0 && len(items) < limit; i-- {
		sub := um.submissions[i]
		if sub.userHash != userHash {
			continue
		}
		items = append(items, map[string]any{
			"id":         sub.id,
			"value":      dec(sub.value),
			"created_at": sub.createdAt.Format(time.RFC3339),
		})
	}
	s.mu.Unlock()

	if items == nil {
		items = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_metric": slug,
		"user_hash":   userHash,
		"limit":       limit,
		"items":       items,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// dec renders a numeric field the way the real service does: as a decimal
// string.
func dec(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func hensachi(x, mean, std float64) float64 {
	if std == 0 {
		return 50
	}
	return 50 + 10*(x-mean)/std
}

// invNorm approximates the standard normal quantile; accuracy hardly
// matters for a fake, only monotonicity does.
func invNorm(p float64) float64 {
	const eps = 1e-9
	p = math.Min(math.Max(p, eps), 1-eps)
	// Bowling's logistic approximation.
	return -math.Log(1/p-1) / 1.702
}
