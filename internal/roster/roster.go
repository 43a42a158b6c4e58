// internal/roster/roster.go
package roster

import (
	"errors"
	"time"
)

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrUnknownTeam = errors.New("unknown team")
	ErrInvalidRole = errors.New("invalid role")
)

type Role string

const (
	RoleDirector Role = "director"
	RoleCoach    Role = "coach"
	RoleParent   Role = "parent"
	RolePlayer   Role = "player"
)

var rolePriority = map[Role]int{
	RoleDirector: 4,
	RoleCoach:    3,
	RoleParent:   2,
	RolePlayer:   1,
}

func (r Role) Valid() bool {
	_, ok := rolePriority[r]
	return ok
}

// Outranks reports whether r carries more privilege than other.
func (r Role) Outranks(other Role) bool {
	return rolePriority[r] > rolePriority[other]
}

type Team struct {
	ID          string    `yaml:"id" json:"id"`
	ClubID      string    `yaml:"club_id,omitempty" json:"clubId,omitempty"`
	Name        string    `yaml:"name" json:"name"`
	SeasonLabel string    `yaml:"season_label,omitempty" json:"seasonLabel,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty" json:"updatedAt"`
}

type User struct {
	ID          string `yaml:"id" json:"id"`
	Email       string `yaml:"email" json:"email"`
	DisplayName string `yaml:"display_name" json:"displayName"`
}

// Membership grants a user a role on one team. Inactive memberships grant
// nothing.
type Membership struct {
	ID       string `yaml:"id,omitempty" json:"id"`
	TeamID   string `yaml:"team_id" json:"teamId"`
	UserID   string `yaml:"user_id" json:"userId"`
	Role     Role   `yaml:"role" json:"role"`
	IsActive bool   `yaml:"is_active" json:"isActive"`
}

type Relationship string

const (
	RelationshipMom      Relationship = "mom"
	RelationshipDad      Relationship = "dad"
	RelationshipGuardian Relationship = "guardian"
	RelationshipOther    Relationship = "other"
)

// GuardianLink ties a parent account to a player profile.
type GuardianLink struct {
	ID           string       `yaml:"id,omitempty" json:"id"`
	ParentUserID string       `yaml:"parent_user_id" json:"parentUserId"`
	PlayerID     string       `yaml:"player_id" json:"playerId"`
	Relationship Relationship `yaml:"relationship,omitempty" json:"relationship,omitempty"`
}

type Position string

const (
	PositionSetter              Position = "Setter"
	PositionOutsideHitter       Position = "Outside Hitter"
	PositionMiddleBlocker       Position = "Middle Blocker"
	PositionOpposite            Position = "Opposite"
	PositionLibero              Position = "Libero"
	PositionDefensiveSpecialist Position = "Defensive Specialist"
	PositionUnknown             Position = "Unknown"
)

// Player is an internal player profile. ID is the stable id external refs
// point at.
type Player struct {
	ID             string   `yaml:"id" json:"id"`
	TeamID         string   `yaml:"team_id" json:"teamId"`
	UserID         string   `yaml:"user_id,omitempty" json:"userId,omitempty"`
	FirstName      string   `yaml:"first_name" json:"firstName"`
	LastName       string   `yaml:"last_name" json:"lastName"`
	Position       Position `yaml:"position" json:"position"`
	JerseyNumber   int      `yaml:"jersey_number" json:"jerseyNumber"`
	Captain        bool     `yaml:"captain,omitempty" json:"captain"`
	Email          string   `yaml:"email" json:"email"`
	Phone          string   `yaml:"phone,omitempty" json:"phone,omitempty"`
	GraduationYear int      `yaml:"graduation_year,omitempty" json:"graduationYear,omitempty"`
	HeightInInches int      `yaml:"height_in_inches,omitempty" json:"heightInInches,omitempty"`
	Notes          string   `yaml:"notes,omitempty" json:"notes,omitempty"`
	IsActive       bool     `yaml:"is_active" json:"isActive"`
}

func (p Player) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
