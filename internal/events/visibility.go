// internal/events/visibility.go
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidVisibility = errors.New("invalid event visibility")

type Scope string

const (
	ScopeTeam     Scope = "team"
	ScopePersonal Scope = "personal"
)

// Visibility says who can see an event. It is either TeamVisibility or
// PersonalVisibility.
type Visibility interface {
	Scope() Scope
	isVisibility()
}

type TeamVisibility struct {
	TeamID string
}

type PersonalVisibility struct {
	OwnerUserID string
}

func (TeamVisibility) Scope() Scope { return ScopeTeam }

func (PersonalVisibility) Scope() Scope { return ScopePersonal }

func (TeamVisibility) isVisibility() {}

func (PersonalVisibility) isVisibility() {}

type visibilityWire struct {
	Scope       Scope  `json:"scope" yaml:"scope"`
	TeamID      string `json:"teamId,omitempty" yaml:"team_id,omitempty"`
	OwnerUserID string `json:"ownerUserId,omitempty" yaml:"owner_user_id,omitempty"`
}

func (v TeamVisibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(visibilityWire{Scope: ScopeTeam, TeamID: v.TeamID})
}

func (v *TeamVisibility) UnmarshalJSON(data []byte) error {
	var w visibilityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return v.fromWire(w)
}

func (v *TeamVisibility) UnmarshalYAML(node *yaml.Node) error {
	var w visibilityWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	return v.fromWire(w)
}

func (v *TeamVisibility) fromWire(w visibilityWire) error {
	if w.Scope != ScopeTeam || w.TeamID == "" {
		return fmt.Errorf("%w: want team scope with teamId", ErrInvalidVisibility)
	}
	v.TeamID = w.TeamID
	return nil
}

func (v PersonalVisibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(visibilityWire{Scope: ScopePersonal, OwnerUserID: v.OwnerUserID})
}

func (v *PersonalVisibility) UnmarshalJSON(data []byte) error {
	var w visibilityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Scope != ScopePersonal || w.OwnerUserID == "" {
		return fmt.Errorf("%w: want personal scope with ownerUserId", ErrInvalidVisibility)
	}
	v.OwnerUserID = w.OwnerUserID
	return nil
}

// ParseVisibility decodes either visibility form by its scope.
func ParseVisibility(data []byte) (Visibility, error) {
	var w visibilityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVisibility, err)
	}
	switch w.Scope {
	case ScopeTeam:
		var v TeamVisibility
		if err := v.fromWire(w); err != nil {
			return nil, err
		}
		return v, nil
	case ScopePersonal:
		if w.OwnerUserID == "" {
			return nil, fmt.Errorf("%w: ownerUserId is required", ErrInvalidVisibility)
		}
		return PersonalVisibility{OwnerUserID: w.OwnerUserID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidVisibility, w.Scope)
	}
}
