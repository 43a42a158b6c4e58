package testutil

import "github.com/estrellaangel/VolleyTech/internal/roster"

// Directory returns a small two-team roster: a coach on team_001, a parent
// whose kid plays on team_001, a director over both teams and a player.
func Directory() *roster.Directory {
	return &roster.Directory{
		Teams: []roster.Team{
			{ID: "team_001", Name: "16U National", SeasonLabel: "2025-2026"},
			{ID: "team_002", Name: "15U Regional", SeasonLabel: "2025-2026"},
		},
		Users: []roster.User{
			{ID: "user_coach_001", Email: "coach@example.com", DisplayName: "Coach Taylor"},
			{ID: "user_parent_001", Email: "parent@example.com", DisplayName: "Parent Morgan"},
			{ID: "user_player_001", Email: "player@example.com", DisplayName: "Caroline T."},
			{ID: "user_director_001", Email: "director@example.com", DisplayName: "Director Lee"},
		},
		Memberships: []roster.Membership{
			{TeamID: "team_001", UserID: "user_coach_001", Role: roster.RoleCoach, IsActive: true},
			{TeamID: "team_001", UserID: "user_player_001", Role: roster.RolePlayer, IsActive: true},
			{TeamID: "team_001", UserID: "user_director_001", Role: roster.RoleDirector, IsActive: true},
			{TeamID: "team_002", UserID: "user_director_001", Role: roster.RoleDirector, IsActive: true},
		},
		GuardianLinks: []roster.GuardianLink{
			{ParentUserID: "user_parent_001", PlayerID: "p_001", Relationship: roster.RelationshipMom},
		},
		Players: []roster.Player{
			{ID: "p_001", TeamID: "team_001", FirstName: "Caroline", LastName: "Toberman", JerseyNumber: 12, IsActive: true, UserID: "user_player_001"},
			{ID: "p_002", TeamID: "team_001", FirstName: "Madison", LastName: "Maxwell", JerseyNumber: 3, IsActive: true},
		},
	}
}
