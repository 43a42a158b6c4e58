// internal/identity/link.go
package identity

import (
	"encoding/json"
	"fmt"
)

// LinkKind is the JSON discriminant of an ExternalLink.
type LinkKind string

const (
	LinkKindID       LinkKind = "id"
	LinkKindIdentity LinkKind = "identity"
)

// ExternalLink ties an internal player to a vendor record. It is either an
// IDLink or an IdentityLink; no other implementations exist.
type ExternalLink interface {
	Kind() LinkKind
	isExternalLink()
}

// IDLink uses the vendor's own stable player id.
type IDLink struct {
	ExternalPlayerID string
}

// IdentityLink uses a composite key built by BuildKey, plus the parts it was
// built from for display and audit.
type IdentityLink struct {
	ExternalKey string
	Identity    Identity
}

type Identity struct {
	FullNameNormalized string `json:"fullNameNormalized"`
	JerseyNumber       *int   `json:"jerseyNumber,omitempty"`
	TeamLabel          string `json:"teamLabel,omitempty"`
	SeasonLabel        string `json:"seasonLabel,omitempty"`
}

func (IDLink) Kind() LinkKind { return LinkKindID }

func (IDLink) isExternalLink() {}

func (IdentityLink) Kind() LinkKind { return LinkKindIdentity }

func (IdentityLink) isExternalLink() {}

type idLinkJSON struct {
	Kind             LinkKind `json:"kind"`
	ExternalPlayerID string   `json:"externalPlayerId"`
}

type identityLinkJSON struct {
	Kind        LinkKind `json:"kind"`
	ExternalKey string   `json:"externalKey"`
	Identity    Identity `json:"identity"`
}

func (l IDLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(idLinkJSON{Kind: LinkKindID, ExternalPlayerID: l.ExternalPlayerID})
}

func (l IdentityLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityLinkJSON{Kind: LinkKindIdentity, ExternalKey: l.ExternalKey, Identity: l.Identity})
}

// UnmarshalLink decodes a link object by its "kind" field.
func UnmarshalLink(data []byte) (ExternalLink, error) {
	var head struct {
		Kind LinkKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	switch head.Kind {
	case LinkKindID:
		var raw idLinkJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
		if raw.ExternalPlayerID == "" {
			return nil, fmt.Errorf("%w: externalPlayerId is required", ErrInvalidLink)
		}
		return IDLink{ExternalPlayerID: raw.ExternalPlayerID}, nil
	case LinkKindIdentity:
		var raw identityLinkJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
		if raw.ExternalKey == "" {
			return nil, fmt.Errorf("%w: externalKey is required", ErrInvalidLink)
		}
		return IdentityLink{ExternalKey: raw.ExternalKey, Identity: raw.Identity}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidLink, head.Kind)
	}
}

// LinkValue returns the lookup value of a link: the vendor id or the key.
func LinkValue(link ExternalLink) (string, error) {
	switch l := link.(type) {
	case IDLink:
		return l.ExternalPlayerID, nil
	case IdentityLink:
		return l.ExternalKey, nil
	default:
		return "", fmt.Errorf("%w: unsupported link type %T", ErrInvalidLink, link)
	}
}
