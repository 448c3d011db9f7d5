package worker

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/thebtf/usageref/internal/db"
	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
	"github.com/thebtf/usageref/pkg/models"
)

// parseMinAvg reads the min_avg HAVING threshold, defaulting to 0.
func parseMinAvg(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("min_avg")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid min_avg %q", models.ErrInvalidArgument, raw)
	}
	return v, nil
}

// handleAgeReport returns aggregate statistics over all member ages.
// With ?age=N it also lists the distinct matching ages.
func (s *Service) handleAgeReport(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queries.AgeStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := map[string]any{"stats": newAgeStatsResponse(stats)}
	if raw := r.URL.Query().Get("age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid age %q", models.ErrInvalidArgument, raw))
			return
		}
		distinct, err := s.queries.DistinctAges(r.Context(), age)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp["distinct"] = distinct
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTeamReport groups members by team name and keeps groups whose
// average age exceeds min_avg.
func (s *Service) handleTeamReport(w http.ResponseWriter, r *http.Request) {
	minAvg, err := parseMinAvg(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.queries.TeamAgeStats(r.Context(), minAvg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTeamStatsResponses(stats))
}

func (s *Service) handleMemberItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.queries.MemberItems(r.Context(), dbgorm.ParsePageParams(r, s.config.PageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleOrderLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.queries.OrderLines(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

type summaryResponse struct {
	Ages    ageStatsResponse    `json:"ages"`
	Teams   []teamStatsResponse `json:"teams"`
	Average *float64            `json:"average_age"`
}

// handleSummary runs the overall and per-team aggregates concurrently.
func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	minAvg, err := parseMinAvg(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := s.store.WithTimeout(r.Context(), dbgorm.SlowQueryTimeout, "summary report")
	defer cancel()

	var (
		stats     models.AgeStats
		teamStats []models.TeamAgeStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.queries.AgeStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		teamStats, err = s.queries.TeamAgeStats(gctx, minAvg)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	resp := summaryResponse{
		Ages:  newAgeStatsResponse(stats),
		Teams: newTeamStatsResponses(teamStats),
	}
	if stats.Count > 0 {
		avg, err := s.queries.AverageAge(ctx)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		if err == nil {
			resp.Average = &avg
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
