// internal/identity/ref.go
package identity

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExternalPlayerRef records that an internal player corresponds to a vendor
// record. ID is the storage surrogate and is zero until persisted.
type ExternalPlayerRef struct {
	ID                    int64
	PlayerID              string
	Source                Source
	Link                  ExternalLink
	DisplayNameFromSource string
	LastMatchedAt         *time.Time
	Notes                 string
}

type refJSON struct {
	ID                    int64           `json:"id,omitempty"`
	PlayerID              string          `json:"playerId"`
	Source                Source          `json:"source"`
	Link                  json.RawMessage `json:"link"`
	DisplayNameFromSource string          `json:"displayNameFromSource,omitempty"`
	LastMatchedAt         *time.Time      `json:"lastMatchedAt,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
}

func (r ExternalPlayerRef) MarshalJSON() ([]byte, error) {
	if r.Link == nil {
		return nil, fmt.Errorf("%w: ref for player %q has no link", ErrInvalidLink, r.PlayerID)
	}
	link, err := json.Marshal(r.Link)
	if err != nil {
		return nil, err
	}
	return json.Marshal(refJSON{
		ID:                    r.ID,
		PlayerID:              r.PlayerID,
		Source:                r.Source,
		Link:                  link,
		DisplayNameFromSource: r.DisplayNameFromSource,
		LastMatchedAt:         r.LastMatchedAt,
		Notes:                 r.Notes,
	})
}

func (r *ExternalPlayerRef) UnmarshalJSON(data []byte) error {
	var raw refJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	link, err := UnmarshalLink(raw.Link)
	if err != nil {
		return err
	}
	*r = ExternalPlayerRef{
		ID:                    raw.ID,
		PlayerID:              raw.PlayerID,
		Source:                raw.Source,
		Link:                  link,
		DisplayNameFromSource: raw.DisplayNameFromSource,
		LastMatchedAt:         raw.LastMatchedAt,
		Notes:                 raw.Notes,
	}
	return nil
}
