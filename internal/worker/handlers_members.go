package worker

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/usageref/internal/db"
	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
	"github.com/thebtf/usageref/pkg/models"
)

type memberRequest struct {
	Address *models.Address `json:"address"`
	Name    *string         `json:"name"`
	Age     *int            `json:"age"`
	TeamID  int64           `json:"team_id"`
}

// handleCreateMember constructs a member, optionally bound to a team, and
// persists it.
func (s *Service) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil || req.Age == nil {
		writeError(w, r, fmt.Errorf("%w: name and age are required", models.ErrInvalidArgument))
		return
	}

	var opts []models.MemberOption
	if req.Address != nil {
		opts = append(opts, models.WithAddress(*req.Address))
	}
	member, err := models.NewMember(0, *req.Age, *req.Name, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.TeamID != 0 {
		team, err := s.teams.Find(r.Context(), req.TeamID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := member.JoinTeam(team); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.members.Persist(r.Context(), member); err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Int64("id", member.ID()).Str("name", member.Name()).Msg("Member persisted")
	writeJSON(w, http.StatusCreated, newMemberResponse(member))
}

// handleListMembers returns a page of members ordered by id.
func (s *Service) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.List(r.Context(), dbgorm.ParsePageParams(r, s.config.PageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponses(members))
}

// handleSearchMembers looks a member up by name, optionally narrowed by age.
// A name shared by several members answers 409.
func (s *Service) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeError(w, r, fmt.Errorf("%w: name is required", models.ErrInvalidArgument))
		return
	}

	var (
		member *models.Member
		err    error
	)
	if rawAge := q.Get("age"); rawAge != "" {
		age, convErr := strconv.Atoi(rawAge)
		if convErr != nil {
			writeError(w, r, fmt.Errorf("%w: invalid age %q", models.ErrInvalidArgument, rawAge))
			return
		}
		member, err = s.members.FindByNameAndAge(r.Context(), name, age)
	} else {
		member, err = s.members.FindByName(r.Context(), name)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

func (s *Service) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	member, err := s.members.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

// handleJoinTeam binds a member to a team. The team roster is left as is.
func (s *Service) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		TeamID int64 `json:"team_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TeamID <= 0 {
		writeError(w, r, fmt.Errorf("%w: team_id is required", models.ErrInvalidArgument))
		return
	}

	member, err := s.members.JoinTeam(r.Context(), id, req.TeamID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(member))
}

// handleMergeMember applies a partial update to a stored member through Merge.
func (s *Service) handleMergeMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TeamID != 0 {
		writeError(w, r, fmt.Errorf("%w: use PUT /api/members/%d/team to bind a team", models.ErrInvalidArgument, id))
		return
	}

	current, err := s.members.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name, age, addr := current.Name(), current.Age(), current.Address()
	if req.Name != nil {
		name = *req.Name
	}
	if req.Age != nil {
		age = *req.Age
	}
	if req.Address != nil {
		addr = *req.Address
	}

	updated, err := models.NewMember(id, age, name, models.WithAddress(addr))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if team := current.Team(); team != nil {
		if err := updated.JoinTeam(team); err != nil {
			writeError(w, r, err)
			return
		}
	}

	merged, err := s.members.Merge(r.Context(), updated)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberResponse(merged))
}

func (s *Service) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Int64("id", id).Msg("Member removed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListMemberOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok, err := s.members.Contains(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	} else if !ok {
		writeError(w, r, fmt.Errorf("member %d: %w", id, db.ErrNotFound))
		return
	}

	orders, err := s.orders.ListByMember(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}
