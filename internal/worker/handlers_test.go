package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "invalid argument", err: fmt.Errorf("x: %w", models.ErrInvalidArgument), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("x: %w", db.ErrNotFound), want: http.StatusNotFound},
		{name: "conflict", err: fmt.Errorf("x: %w", models.ErrConflict), want: http.StatusConflict},
		{name: "non unique", err: fmt.Errorf("x: %w", db.ErrNonUniqueResult), want: http.StatusConflict},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	rr := doJSON(t, svc.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	decode(t, rr, &resp)
	assert.Equal(t, "test", resp["version"])
	assert.Contains(t, []any{"healthy", "degraded"}, resp["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestMembers_CreateAndGet(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	teamID := createTeam(t, h, "teamA")
	created := createMember(t, h, map[string]any{
		"name":    "kim",
		"age":     21,
		"team_id": teamID,
		"address": map[string]string{"city": "Seoul", "street": "Gangnam"},
	})
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.Team)
	assert.Equal(t, "teamA", created.Team.Name)

	rr := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/members/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got memberResponse
	decode(t, rr, &got)
	assert.Equal(t, "kim", got.Name)
	assert.Equal(t, 21, got.Age)
	require.NotNil(t, got.Address)
	assert.Equal(t, models.NewAddress("Seoul", "Gangnam"), *got.Address)
}

func TestMembers_CreateValidation(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	tests := []struct {
		body map[string]any
		name string
		want int
	}{
		{name: "negative age", body: map[string]any{"name": "kim", "age": -1}, want: http.StatusBadRequest},
		{name: "empty name", body: map[string]any{"name": "", "age": 3}, want: http.StatusBadRequest},
		{name: "missing age", body: map[string]any{"name": "kim"}, want: http.StatusBadRequest},
		{name: "unknown team", body: map[string]any{"name": "kim", "age": 3, "team_id": 999}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/members", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestMembers_GetErrors(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/members/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/api/members/42", nil).Code)
}

func TestMembers_ListPagination(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	for i := 0; i < 15; i++ {
		createMember(t, h, map[string]any{"name": fmt.Sprintf("member%d", i), "age": i})
	}

	rr := doJSON(t, h, http.MethodGet, "/api/members?limit=10&offset=0", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page []memberResponse
	decode(t, rr, &page)
	assert.Len(t, page, 10)
	assert.Equal(t, "member0", page[0].Name)

	rr = doJSON(t, h, http.MethodGet, "/api/members?limit=10&offset=10", nil)
	decode(t, rr, &page)
	assert.Len(t, page, 5)
	assert.Equal(t, "member10", page[0].Name)
}

func TestMembers_Search(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	createMember(t, h, map[string]any{"name": "kim", "age": 10})
	createMember(t, h, map[string]any{"name": "lee", "age": 20})
	createMember(t, h, map[string]any{"name": "lee", "age": 30})

	rr := doJSON(t, h, http.MethodGet, "/api/members/search?name=kim", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got memberResponse
	decode(t, rr, &got)
	assert.Equal(t, 10, got.Age)

	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodGet, "/api/members/search?name=lee", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, "/api/members/search?name=park", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/members/search", nil).Code)

	rr = doJSON(t, h, http.MethodGet, "/api/members/search?name=lee&age=30", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &got)
	assert.Equal(t, 30, got.Age)
}

func TestMembers_JoinTeamAndRoster(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	teamA := createTeam(t, h, "teamA")
	teamB := createTeam(t, h, "teamB")
	m := createMember(t, h, map[string]any{"name": "kim", "age": 21})

	path := fmt.Sprintf("/api/members/%d/team", m.ID)
	rr := doJSON(t, h, http.MethodPut, path, map[string]any{"team_id": teamA})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Binding again, to the same or another team, conflicts.
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPut, path, map[string]any{"team_id": teamA}).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPut, path, map[string]any{"team_id": teamB}).Code)

	// JoinTeam leaves the roster empty.
	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/teams/%d", teamA), nil)
	var team teamResponse
	decode(t, rr, &team)
	assert.Empty(t, team.Members)

	rosterPath := fmt.Sprintf("/api/teams/%d/members", teamA)
	rr = doJSON(t, h, http.MethodPost, rosterPath, map[string]any{"member_id": m.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, rr, &team)
	require.Len(t, team.Members, 1)
	assert.Equal(t, m.ID, team.Members[0].ID)

	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPost, rosterPath, map[string]any{"member_id": m.ID}).Code)
}

func TestMembers_MergeAndRemove(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	teamID := createTeam(t, h, "teamA")
	m := createMember(t, h, map[string]any{"name": "kim", "age": 21, "team_id": teamID})
	path := fmt.Sprintf("/api/members/%d", m.ID)

	rr := doJSON(t, h, http.MethodPatch, path, map[string]any{"name": "park"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var merged memberResponse
	decode(t, rr, &merged)
	assert.Equal(t, "park", merged.Name)
	assert.Equal(t, 21, merged.Age)
	require.NotNil(t, merged.Team)
	assert.Equal(t, teamID, merged.Team.ID)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPatch, path, map[string]any{"age": -5}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPatch, path, map[string]any{"team_id": teamID}).Code)

	rr = doJSON(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodDelete, path, nil).Code)
}

func TestTeams_DuplicateName(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	createTeam(t, h, "teamA")
	rr := doJSON(t, h, http.MethodPost, "/api/teams", map[string]any{"name": "teamA"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/teams", map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/teams", nil)
	var teams []teamResponse
	decode(t, rr, &teams)
	assert.Len(t, teams, 1)
}

func TestOrders_CreateAndGet(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	m := createMember(t, h, map[string]any{"name": "kim", "age": 21})
	rr := doJSON(t, h, http.MethodPost, "/api/products", map[string]any{"name": "book"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var product productResponse
	decode(t, rr, &product)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPost, "/api/products", map[string]any{"name": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPost, "/api/orders", map[string]any{"member_id": m.ID}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPost, "/api/orders", map[string]any{"member_id": m.ID, "product_id": 999}).Code)

	rr = doJSON(t, h, http.MethodPost, "/api/orders", map[string]any{"member_id": m.ID, "product_id": product.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var order orderResponse
	decode(t, rr, &order)
	assert.Equal(t, "kim", order.Member.Name)
	assert.Equal(t, "book", order.Product.Name)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/members/%d/orders", m.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var orders []orderResponse
	decode(t, rr, &orders)
	assert.Len(t, orders, 1)

	rr = doJSON(t, h, http.MethodGet, "/api/reports/orders", nil)
	var lines []models.OrderLine
	decode(t, rr, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, models.OrderLine{MemberName: "kim", ProductName: "book", OrderID: order.ID}, lines[0])
}

// reportStats mirrors ageStatsResponse with exported fields for decoding.
type reportStats struct {
	TeamName *string  `json:"team_name"`
	Sum      *int64   `json:"sum"`
	Avg      *float64 `json:"avg"`
	Min      *int64   `json:"min"`
	Max      *int64   `json:"max"`
	Count    int64    `json:"count"`
}

func TestReports_EmptyStore(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	rr := doJSON(t, h, http.MethodGet, "/api/reports/ages", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Stats reportStats `json:"stats"`
	}
	decode(t, rr, &resp)
	assert.Equal(t, int64(0), resp.Stats.Count)
	assert.Nil(t, resp.Stats.Sum)
	assert.Nil(t, resp.Stats.Avg)

	rr = doJSON(t, h, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary struct {
		Average *float64      `json:"average_age"`
		Teams   []reportStats `json:"teams"`
		Ages    reportStats   `json:"ages"`
	}
	decode(t, rr, &summary)
	assert.Nil(t, summary.Average)
	assert.Empty(t, summary.Teams)
}

func TestReports_Aggregates(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	teamA := createTeam(t, h, "teamA")
	teamB := createTeam(t, h, "teamB")
	createMember(t, h, map[string]any{"name": "a1", "age": 10, "team_id": teamA})
	createMember(t, h, map[string]any{"name": "a2", "age": 20, "team_id": teamA})
	createMember(t, h, map[string]any{"name": "b1", "age": 30, "team_id": teamB})
	createMember(t, h, map[string]any{"name": "b2", "age": 40, "team_id": teamB})
	createMember(t, h, map[string]any{"name": "loner", "age": 40})

	rr := doJSON(t, h, http.MethodGet, "/api/reports/ages?age=40", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var ages struct {
		Distinct []int      `json:"distinct"`
		Stats    reportStats `json:"stats"`
	}
	decode(t, rr, &ages)
	assert.Equal(t, int64(5), ages.Stats.Count)
	require.NotNil(t, ages.Stats.Sum)
	assert.Equal(t, int64(140), *ages.Stats.Sum)
	require.NotNil(t, ages.Stats.Min)
	assert.Equal(t, int64(10), *ages.Stats.Min)
	assert.Equal(t, []int{40}, ages.Distinct)

	rr = doJSON(t, h, http.MethodGet, "/api/reports/teams?min_avg=20", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var teams []reportStats
	decode(t, rr, &teams)
	names := make([]string, 0, len(teams))
	for _, st := range teams {
		if st.TeamName != nil {
			names = append(names, *st.TeamName)
		}
	}
	assert.Equal(t, []string{"teamB"}, names)
	assert.Len(t, teams, 2) // teamB and the no-team group

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/reports/teams?min_avg=x", nil).Code)

	rr = doJSON(t, h, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary struct {
		Average *float64      `json:"average_age"`
		Teams   []reportStats `json:"teams"`
		Ages    reportStats   `json:"ages"`
	}
	decode(t, rr, &summary)
	require.NotNil(t, summary.Average)
	assert.InDelta(t, 28.0, *summary.Average, 0.001)
	assert.Len(t, summary.Teams, 3)

	rr = doJSON(t, h, http.MethodGet, "/api/reports/member-items?limit=2", nil)
	var items []models.MemberItem
	decode(t, rr, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].Name)
}

func TestMaintenanceRoutes(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()
	h := svc.Handler()

	rr := doJSON(t, h, http.MethodGet, "/api/maintenance", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats map[string]any
	decode(t, rr, &stats)
	assert.Equal(t, true, stats["enabled"])

	svc.maintenance.Run(context.Background())
	rr = doJSON(t, h, http.MethodGet, "/api/maintenance", nil)
	decode(t, rr, &stats)
	assert.EqualValues(t, 1, stats["total_runs"])
}
