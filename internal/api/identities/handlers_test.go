package identities

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/db"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/roster"
	"github.com/estrellaangel/VolleyTech/internal/testutil"
)

func setupIdentitiesTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	clock := testutil.FixedClock{Time: time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)}

	resolver = nil
	directory = nil
	initOnce = sync.Once{}
	InitHandlers(identity.NewResolver(db.NewRefStore(database), clock), testutil.Directory())

	t.Cleanup(func() {
		resolver = nil
		directory = nil
		initOnce = sync.Once{}
	})
	return database
}

func withSession(req *http.Request, teamID string, role roster.Role) *http.Request {
	session := &authz.Session{User: roster.User{ID: "user_coach_001"}, TeamID: teamID, Role: role}
	return req.WithContext(authz.ContextWithSession(req.Context(), session))
}

func post(path, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{
			name:       "full identity",
			body:       `{"source":"balltime","fullName":"  Caroline   TOBERMAN ","jerseyNumber":12,"teamLabel":"Varsity","seasonLabel":"2025-2026"}`,
			wantStatus: http.StatusOK,
			wantKey:    "balltime|2025-2026|varsity|caroline toberman|12",
		},
		{
			name:       "name only",
			body:       `{"source":"hudl","fullName":"Madison Maxwell"}`,
			wantStatus: http.StatusOK,
			wantKey:    "hudl|||madison maxwell|",
		},
		{"unknown source", `{"source":"maxpreps","fullName":"A B"}`, http.StatusBadRequest, ""},
		{"no name", `{"source":"hudl","fullName":"  42 "}`, http.StatusBadRequest, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleKey(rec, post("/api/v1/identities/key", test.body))
			if rec.Code != test.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, test.wantStatus, rec.Body.String())
			}
			if test.wantKey == "" {
				return
			}
			var resp keyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.ExternalKey != test.wantKey {
				t.Fatalf("key = %q, want %q", resp.ExternalKey, test.wantKey)
			}
		})
	}
}

func TestLinkThenResolve(t *testing.T) {
	setupIdentitiesTest(t)

	row := `{"source":"balltime","fullName":"Caroline Toberman","jerseyNumber":12,"teamLabel":"Varsity","seasonLabel":"2025-2026"}`

	rec := httptest.NewRecorder()
	HandleResolve(rec, withSession(post("/api/v1/identities/resolve", row), "team_001", roster.RoleCoach))
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var before resolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.Status != identity.StatusUnmatched {
		t.Fatalf("status before link = %q", before.Status)
	}
	if len(before.RosterCandidates) == 0 || before.RosterCandidates[0].PlayerID != "p_001" || before.RosterCandidates[0].Reason != identity.ReasonNameAndJersey {
		t.Fatalf("roster candidates = %+v", before.RosterCandidates)
	}

	link := `{"teamId":"team_001","playerId":"p_001","identity":` + row + `,"displayNameFromSource":"Caroline Toberman"}`
	rec = httptest.NewRecorder()
	HandleLink(rec, withSession(post("/api/v1/identities/links", link), "team_001", roster.RoleCoach))
	if rec.Code != http.StatusCreated {
		t.Fatalf("link status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	HandleResolve(rec, withSession(post("/api/v1/identities/resolve", row), "team_001", roster.RoleDirector))
	var after resolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.Status != identity.StatusMatched || after.PlayerID != "p_001" || len(after.RosterCandidates) != 0 {
		t.Fatalf("resolution after link = %+v", after)
	}

	conflict := `{"teamId":"team_001","playerId":"p_002","identity":` + row + `}`
	rec = httptest.NewRecorder()
	HandleLink(rec, withSession(post("/api/v1/identities/links", conflict), "team_001", roster.RoleCoach))
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflicting link status = %d, want 409", rec.Code)
	}
}

func TestHandleLinkRejects(t *testing.T) {
	setupIdentitiesTest(t)

	tests := []struct {
		name       string
		body       string
		teamID     string
		role       roster.Role
		wantStatus int
	}{
		{"player cannot link", `{"teamId":"team_001","playerId":"p_001","identity":{"source":"hudl","externalPlayerId":"h-1"}}`, "team_001", roster.RolePlayer, http.StatusForbidden},
		{"player not on team", `{"teamId":"team_001","playerId":"p_999","identity":{"source":"hudl","externalPlayerId":"h-1"}}`, "team_001", roster.RoleCoach, http.StatusBadRequest},
		{"missing team", `{"playerId":"p_001","identity":{"source":"hudl","externalPlayerId":"h-1"}}`, "team_001", roster.RoleCoach, http.StatusBadRequest},
		{"empty identity", `{"teamId":"team_001","playerId":"p_001","identity":{"source":"hudl"}}`, "team_001", roster.RoleCoach, http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleLink(rec, withSession(post("/api/v1/identities/links", test.body), test.teamID, test.role))
			if rec.Code != test.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, test.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleResolveRequiresSession(t *testing.T) {
	setupIdentitiesTest(t)

	rec := httptest.NewRecorder()
	HandleResolve(rec, post("/api/v1/identities/resolve", `{"source":"hudl","externalPlayerId":"h-1"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleResolveRequiresRosterEditor(t *testing.T) {
	database := setupIdentitiesTest(t)

	link := `{"teamId":"team_001","playerId":"p_001","identity":{"source":"hudl","externalPlayerId":"h-1"}}`
	rec := httptest.NewRecorder()
	HandleLink(rec, withSession(post("/api/v1/identities/links", link), "team_001", roster.RoleCoach))
	if rec.Code != http.StatusCreated {
		t.Fatalf("link status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// A resolve that got through would stamp this later time.
	linkedAt := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)
	resolver = identity.NewResolver(db.NewRefStore(database), testutil.FixedClock{Time: linkedAt.Add(48 * time.Hour)})

	tests := []struct {
		name   string
		teamID string
		role   roster.Role
	}{
		{"player", "team_001", roster.RolePlayer},
		{"parent", "team_001", roster.RoleParent},
		{"coach without team", "", roster.RoleCoach},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleResolve(rec, withSession(post("/api/v1/identities/resolve", `{"source":"hudl","externalPlayerId":"h-1"}`), test.teamID, test.role))
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
		})
	}

	refs, err := db.NewRefStore(database).FindRefsByExternalID(context.Background(), identity.SourceHudl, "h-1")
	if err != nil || len(refs) != 1 {
		t.Fatalf("find ref: %v %+v", err, refs)
	}
	if got := refs[0].LastMatchedAt; got == nil || !got.Equal(linkedAt) {
		t.Fatalf("lastMatchedAt = %v, want untouched %v", got, linkedAt)
	}
}

func TestHandlePlayerRefs(t *testing.T) {
	setupIdentitiesTest(t)

	link := `{"teamId":"team_001","playerId":"p_001","identity":{"source":"hudl","externalPlayerId":"h-12"}}`
	rec := httptest.NewRecorder()
	HandleLink(rec, withSession(post("/api/v1/identities/links", link), "team_001", roster.RoleCoach))
	if rec.Code != http.StatusCreated {
		t.Fatalf("link status = %d, body = %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name       string
		playerID   string
		teamID     string
		role       roster.Role
		wantStatus int
		wantRefs   int
	}{
		{"linked player", "p_001", "team_001", roster.RolePlayer, http.StatusOK, 1},
		{"no links yet", "p_002", "team_001", roster.RoleCoach, http.StatusOK, 0},
		{"player on another team", "p_001", "team_002", roster.RoleDirector, http.StatusNotFound, 0},
		{"no team", "p_001", "", roster.RoleCoach, http.StatusForbidden, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/identities/players/"+test.playerID+"/refs", nil)
			req.SetPathValue("playerId", test.playerID)
			rec := httptest.NewRecorder()
			HandlePlayerRefs(rec, withSession(req, test.teamID, test.role))
			if rec.Code != test.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, test.wantStatus, rec.Body.String())
			}
			if test.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Refs []json.RawMessage `json:"refs"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Refs == nil || len(resp.Refs) != test.wantRefs {
				t.Fatalf("refs = %s, want %d", rec.Body.String(), test.wantRefs)
			}
		})
	}
}
