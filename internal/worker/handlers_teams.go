package worker

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
	"github.com/thebtf/usageref/pkg/models"
)

func (s *Service) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	team, err := models.NewTeam(0, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.teams.Persist(r.Context(), team); err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Int64("id", team.ID()).Str("name", team.Name()).Msg("Team persisted")
	writeJSON(w, http.StatusCreated, newTeamResponse(team))
}

func (s *Service) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.teams.List(r.Context(), dbgorm.ParsePageParams(r, s.config.PageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, newTeamResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	team, err := s.teams.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTeamResponse(team))
}

// handleAddTeamMember appends a stored member to a team roster. The member's
// own team binding is not changed.
func (s *Service) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MemberID <= 0 {
		writeError(w, r, fmt.Errorf("%w: member_id is required", models.ErrInvalidArgument))
		return
	}

	team, err := s.teams.AddMember(r.Context(), id, req.MemberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTeamResponse(team))
}
