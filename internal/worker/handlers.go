package worker

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/internal/privacy"
	"github.com/thebtf/usageref/pkg/models"
)

// writeJSON writes a JSON response with proper error handling.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidArgument, err)
	}
	return nil
}

// statusFor maps domain and store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, db.ErrNonUniqueResult):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and writes the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Str("error", privacy.RedactSecrets(err.Error())).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// handleHealth reports service and database health.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.store.HealthCheck(r.Context())
	status := http.StatusOK
	if info.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  info.Status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"db":      info,
	})
}

// Response types. Entities keep their state unexported, so handlers render
// them through these.

type teamRef struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type memberResponse struct {
	Team    *teamRef        `json:"team"`
	Address *models.Address `json:"address"`
	Name    string          `json:"name"`
	ID      int64           `json:"id"`
	Age     int             `json:"age"`
}

type rosterEntry struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
	Age  int    `json:"age"`
}

type teamResponse struct {
	Name    string        `json:"name"`
	Members []rosterEntry `json:"members"`
	ID      int64         `json:"id"`
}

type productResponse struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type orderResponse struct {
	Member  memberResponse  `json:"member"`
	Product productResponse `json:"product"`
	ID      int64           `json:"id"`
}

type ageStatsResponse struct {
	Sum   *int64   `json:"sum"`
	Avg   *float64 `json:"avg"`
	Min   *int64   `json:"min"`
	Max   *int64   `json:"max"`
	Count int64    `json:"count"`
}

type teamStatsResponse struct {
	TeamName *string `json:"team_name"`
	ageStatsResponse
}

func newMemberResponse(m *models.Member) memberResponse {
	resp := memberResponse{ID: m.ID(), Name: m.Name(), Age: m.Age()}
	if t := m.Team(); t != nil {
		resp.Team = &teamRef{ID: t.ID(), Name: t.Name()}
	}
	if addr := m.Address(); !addr.IsZero() {
		resp.Address = &addr
	}
	return resp
}

func newMemberResponses(members []*models.Member) []memberResponse {
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, newMemberResponse(m))
	}
	return out
}

func newTeamResponse(t *models.Team) teamResponse {
	roster := t.Members()
	resp := teamResponse{ID: t.ID(), Name: t.Name(), Members: make([]rosterEntry, 0, len(roster))}
	for _, m := range roster {
		resp.Members = append(resp.Members, rosterEntry{ID: m.ID(), Name: m.Name(), Age: m.Age()})
	}
	return resp
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{ID: p.ID(), Name: p.Name()}
}

func newOrderResponse(o *models.Orders) orderResponse {
	return orderResponse{
		ID:      o.ID(),
		Member:  newMemberResponse(o.Member()),
		Product: newProductResponse(o.Product()),
	}
}

func newAgeStatsResponse(st models.AgeStats) ageStatsResponse {
	return ageStatsResponse{
		Count: st.Count,
		Sum:   nullInt(st.Sum),
		Avg:   nullFloat(st.Avg),
		Min:   nullInt(st.Min),
		Max:   nullInt(st.Max),
	}
}

func newTeamStatsResponses(stats []models.TeamAgeStats) []teamStatsResponse {
	out := make([]teamStatsResponse, 0, len(stats))
	for _, st := range stats {
		resp := teamStatsResponse{ageStatsResponse: newAgeStatsResponse(st.AgeStats)}
		if st.TeamName.Valid {
			name := st.TeamName.String
			resp.TeamName = &name
		}
		out = append(out, resp)
	}
	return out
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func (s *Service) handleMaintenanceStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.maintenance.Stats())
}

// handleMaintenanceRun triggers a maintenance run without waiting for it.
func (s *Service) handleMaintenanceRun(w http.ResponseWriter, r *http.Request) {
	s.maintenance.RunNow(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
