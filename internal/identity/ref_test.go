package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExternalPlayerRefJSONIdentityLink(t *testing.T) {
	matched := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)
	ref := ExternalPlayerRef{
		PlayerID: "p_001",
		Source:   SourceBalltime,
		Link: IdentityLink{
			ExternalKey: "balltime|2025-2026|varsity|caroline toberman|12",
			Identity: Identity{
				FullNameNormalized: "caroline toberman",
				JerseyNumber:       intPtr(12),
				TeamLabel:          "Varsity",
				SeasonLabel:        "2025-2026",
			},
		},
		DisplayNameFromSource: "Toberman, Caroline",
		LastMatchedAt:         &matched,
	}

	body, err := json.Marshal(ref)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"kind":"identity"`) {
		t.Fatalf("expected identity discriminant in %s", body)
	}

	var decoded ExternalPlayerRef
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	link, ok := decoded.Link.(IdentityLink)
	if !ok {
		t.Fatalf("expected IdentityLink, got %T", decoded.Link)
	}
	if link.Identity.JerseyNumber == nil || *link.Identity.JerseyNumber != 12 {
		t.Fatalf("jersey lost in round trip: %+v", link.Identity)
	}
	if decoded.LastMatchedAt == nil || !decoded.LastMatchedAt.Equal(matched) {
		t.Fatalf("lastMatchedAt = %v, want %v", decoded.LastMatchedAt, matched)
	}
}

func TestUnmarshalLinkIDKind(t *testing.T) {
	link, err := UnmarshalLink([]byte(`{"kind":"id","externalPlayerId":"bt-991"}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	idLink, ok := link.(IDLink)
	if !ok || idLink.ExternalPlayerID != "bt-991" {
		t.Fatalf("unexpected link %#v", link)
	}
}

func TestUnmarshalLinkRejectsUnknownKind(t *testing.T) {
	_, err := UnmarshalLink([]byte(`{"kind":"email","value":"x"}`))
	if !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
	_, err = UnmarshalLink([]byte(`{"kind":"id"}`))
	if !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink for missing id, got %v", err)
	}
}

func TestMarshalRefWithoutLinkFails(t *testing.T) {
	if _, err := json.Marshal(ExternalPlayerRef{PlayerID: "p_001"}); err == nil {
		t.Fatal("expected error for ref without link")
	}
}
