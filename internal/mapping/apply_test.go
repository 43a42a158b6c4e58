package mapping

import (
	"testing"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
)

func TestApplyDropsUnmappedColumns(t *testing.T) {
	profile := &profiles.Profile{Map: map[string]catalog.StatKey{
		"Player": catalog.PlayerName,
		"K":      catalog.Kills,
	}}
	row := Row{"Player": "Jane Doe", "K": "5", "ignored": "x"}

	got := Apply(row, profile)
	if len(got) != 2 {
		t.Fatalf("got %d fields, want 2: %v", len(got), got)
	}
	if got[catalog.PlayerName] != "Jane Doe" || got[catalog.Kills] != "5" {
		t.Fatalf("unexpected record %v", got)
	}
}

func TestApplyKeepsValuesUncoerced(t *testing.T) {
	profile := &profiles.Profile{Map: map[string]catalog.StatKey{"Digs": catalog.Digs}}
	got := Apply(Row{"Digs": 12.0}, profile)
	if v, ok := got[catalog.Digs].(float64); !ok || v != 12.0 {
		t.Fatalf("expected raw float64 12, got %#v", got[catalog.Digs])
	}
}

func TestApplyEmptyProfile(t *testing.T) {
	if got := Apply(Row{"Kills": "1"}, &profiles.Profile{}); len(got) != 0 {
		t.Fatalf("expected empty record, got %v", got)
	}
	if got := Apply(Row{"Kills": "1"}, nil); len(got) != 0 {
		t.Fatalf("expected empty record for nil profile, got %v", got)
	}
}

func TestApplyColumnsLaterColumnWins(t *testing.T) {
	profile := &profiles.Profile{Map: map[string]catalog.StatKey{
		"Kills":       catalog.Kills,
		"Total Kills": catalog.Kills,
	}}
	got := ApplyColumns([]string{"Total Kills", "Kills", "Extra"}, []string{"9", "7"}, profile)
	if got[catalog.Kills] != "7" {
		t.Fatalf("kills = %v, want 7", got[catalog.Kills])
	}
}
