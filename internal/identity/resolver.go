// internal/identity/resolver.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/normalize"
)

// RefStore persists ExternalPlayerRef records. Lookups return every ref that
// carries the given link value so callers can detect collisions.
type RefStore interface {
	FindRefsByExternalID(ctx context.Context, source Source, externalPlayerID string) ([]ExternalPlayerRef, error)
	FindRefsByExternalKey(ctx context.Context, source Source, externalKey string) ([]ExternalPlayerRef, error)
	RefsForPlayer(ctx context.Context, playerID string) ([]ExternalPlayerRef, error)
	CreateRef(ctx context.Context, ref ExternalPlayerRef) (ExternalPlayerRef, error)
	TouchRef(ctx context.Context, id int64, matchedAt time.Time) error
}

// TxRefStore is a RefStore that can run several calls in one transaction.
// CreateRef must report a link that is already taken as ErrKeyConflict.
type TxRefStore interface {
	RefStore
	InTx(ctx context.Context, fn func(RefStore) error) error
}

// errLinkRaced marks a create that lost to a concurrent writer.
var errLinkRaced = fmt.Errorf("%w: linked concurrently", ErrKeyConflict)

// Clock is swapped out in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusUnmatched MatchStatus = "unmatched"
	StatusAmbiguous MatchStatus = "ambiguous"
)

// RowIdentity is the identity portion of one export row.
type RowIdentity struct {
	Source           Source `json:"source"`
	ExternalPlayerID string `json:"externalPlayerId,omitempty"`
	FullName         string `json:"fullName,omitempty"`
	JerseyNumber     *int   `json:"jerseyNumber,omitempty"`
	TeamLabel        string `json:"teamLabel,omitempty"`
	SeasonLabel      string `json:"seasonLabel,omitempty"`
}

func (r RowIdentity) keyInput() KeyInput {
	return KeyInput{
		Source:       r.Source,
		FullName:     r.FullName,
		JerseyNumber: r.JerseyNumber,
		TeamLabel:    r.TeamLabel,
		SeasonLabel:  r.SeasonLabel,
	}
}

// Resolution is the outcome of resolving one row. ExternalKey is set whenever
// the row had a name, so an unmatched row can be linked without rebuilding it.
type Resolution struct {
	Status      MatchStatus        `json:"status"`
	PlayerID    string             `json:"playerId,omitempty"`
	Ref         *ExternalPlayerRef `json:"ref,omitempty"`
	ExternalKey string             `json:"externalKey,omitempty"`
	Candidates  []string           `json:"candidates,omitempty"`
}

// LinkRequest is a coach-confirmed association between a row identity and
// an internal player.
type LinkRequest struct {
	PlayerID              string      `json:"playerId"`
	Identity              RowIdentity `json:"identity"`
	DisplayNameFromSource string      `json:"displayNameFromSource,omitempty"`
	Notes                 string      `json:"notes,omitempty"`
}

type Resolver struct {
	store RefStore
	clock Clock

	// linkMu serializes Link within the process; the store's unique
	// constraints cover other processes.
	linkMu sync.Mutex
}

// NewResolver returns a Resolver over store. A nil clock uses wall time.
func NewResolver(store RefStore, clock Clock) *Resolver {
	if clock == nil {
		clock = realClock{}
	}
	return &Resolver{store: store, clock: clock}
}

// Resolve finds the internal player for row. A vendor id is tried first;
// when it has no ref and the row has a name, the identity key is tried.
// Refs that point at more than one player make the row ambiguous and
// nothing is touched.
func (r *Resolver) Resolve(ctx context.Context, row RowIdentity) (Resolution, error) {
	if _, err := ParseSource(string(row.Source)); err != nil {
		return Resolution{}, err
	}
	externalID := strings.TrimSpace(row.ExternalPlayerID)
	hasName := normalize.Name(row.FullName) != ""
	if externalID == "" && !hasName {
		return Resolution{}, ErrInvalidIdentity
	}

	logger := log.Ctx(ctx).With().Str("source", string(row.Source)).Logger()
	res := Resolution{Status: StatusUnmatched}

	if externalID != "" {
		refs, err := r.store.FindRefsByExternalID(ctx, row.Source, externalID)
		if err != nil {
			return Resolution{}, fmt.Errorf("find refs by external id: %w", err)
		}
		if len(refs) > 0 {
			return r.settle(ctx, res, refs)
		}
	}

	if !hasName {
		return res, nil
	}

	in := row.keyInput()
	if KeyHasSeparatorConflict(in) {
		logger.Warn().Str("team_label", row.TeamLabel).Str("season_label", row.SeasonLabel).Msg("Identity label contains key separator")
	}
	res.ExternalKey = BuildKey(in)

	refs, err := r.store.FindRefsByExternalKey(ctx, row.Source, res.ExternalKey)
	if err != nil {
		return Resolution{}, fmt.Errorf("find refs by external key: %w", err)
	}
	return r.settle(ctx, res, refs)
}

func (r *Resolver) settle(ctx context.Context, res Resolution, refs []ExternalPlayerRef) (Resolution, error) {
	players := distinctPlayers(refs)
	switch len(players) {
	case 0:
		res.Status = StatusUnmatched
		return res, nil
	case 1:
	default:
		log.Ctx(ctx).Warn().Strs("player_ids", players).Msg("External identity matches multiple players")
		res.Status = StatusAmbiguous
		res.Candidates = players
		return res, nil
	}

	ref := refs[0]
	now := r.clock.Now()
	if err := r.store.TouchRef(ctx, ref.ID, now); err != nil {
		return Resolution{}, fmt.Errorf("touch external ref: %w", err)
	}
	ref.LastMatchedAt = &now

	res.Status = StatusMatched
	res.PlayerID = ref.PlayerID
	res.Ref = &ref
	return res, nil
}

// Link records that req.Identity belongs to req.PlayerID. Linking the same
// player twice returns the existing ref. Linking an identity already held by
// another player fails with ErrKeyConflict.
func (r *Resolver) Link(ctx context.Context, req LinkRequest) (ExternalPlayerRef, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		return ExternalPlayerRef{}, fmt.Errorf("%w: player id is required", ErrInvalidLink)
	}
	row := req.Identity
	source, err := ParseSource(string(row.Source))
	if err != nil {
		return ExternalPlayerRef{}, err
	}
	row.Source = source

	link, err := linkForRow(row)
	if err != nil {
		return ExternalPlayerRef{}, err
	}

	r.linkMu.Lock()
	defer r.linkMu.Unlock()

	ref, created, err := r.linkInTx(ctx, playerID, source, link, req)
	if errors.Is(err, errLinkRaced) {
		// The winner has committed, so a second pass either finds our own
		// player or reports who holds the link.
		ref, created, err = r.linkInTx(ctx, playerID, source, link, req)
	}
	if err != nil {
		return ExternalPlayerRef{}, err
	}

	if created {
		log.Ctx(ctx).Info().
			Str("player_id", playerID).
			Str("source", string(source)).
			Str("link_kind", string(link.Kind())).
			Msg("External player ref linked")
	}
	return ref, nil
}

func (r *Resolver) linkInTx(ctx context.Context, playerID string, source Source, link ExternalLink, req LinkRequest) (ExternalPlayerRef, bool, error) {
	var (
		ref     ExternalPlayerRef
		created bool
	)
	run := func(store RefStore) error {
		var err error
		ref, created, err = r.linkWith(ctx, store, playerID, source, link, req)
		return err
	}

	var err error
	if tx, ok := r.store.(TxRefStore); ok {
		err = tx.InTx(ctx, run)
	} else {
		err = run(r.store)
	}
	return ref, created, err
}

func (r *Resolver) linkWith(ctx context.Context, store RefStore, playerID string, source Source, link ExternalLink, req LinkRequest) (ExternalPlayerRef, bool, error) {
	existing, err := findByLink(ctx, store, source, link)
	if err != nil {
		return ExternalPlayerRef{}, false, err
	}
	for _, ref := range existing {
		if ref.PlayerID != playerID {
			return ExternalPlayerRef{}, false, fmt.Errorf("%w: held by player %s", ErrKeyConflict, ref.PlayerID)
		}
	}

	now := r.clock.Now()
	if len(existing) > 0 {
		ref := existing[0]
		if err := store.TouchRef(ctx, ref.ID, now); err != nil {
			return ExternalPlayerRef{}, false, fmt.Errorf("touch external ref: %w", err)
		}
		ref.LastMatchedAt = &now
		return ref, false, nil
	}

	created, err := store.CreateRef(ctx, ExternalPlayerRef{
		PlayerID:              playerID,
		Source:                source,
		Link:                  link,
		DisplayNameFromSource: strings.TrimSpace(req.DisplayNameFromSource),
		LastMatchedAt:         &now,
		Notes:                 req.Notes,
	})
	if errors.Is(err, ErrKeyConflict) {
		return ExternalPlayerRef{}, false, errLinkRaced
	}
	if err != nil {
		return ExternalPlayerRef{}, false, fmt.Errorf("create external ref: %w", err)
	}
	return created, true, nil
}

// PlayerRefs lists the vendor identities linked to playerID.
func (r *Resolver) PlayerRefs(ctx context.Context, playerID string) ([]ExternalPlayerRef, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidLink)
	}
	refs, err := r.store.RefsForPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list refs for player: %w", err)
	}
	return refs, nil
}

func findByLink(ctx context.Context, store RefStore, source Source, link ExternalLink) ([]ExternalPlayerRef, error) {
	switch l := link.(type) {
	case IDLink:
		refs, err := store.FindRefsByExternalID(ctx, source, l.ExternalPlayerID)
		if err != nil {
			return nil, fmt.Errorf("find refs by external id: %w", err)
		}
		return refs, nil
	case IdentityLink:
		refs, err := store.FindRefsByExternalKey(ctx, source, l.ExternalKey)
		if err != nil {
			return nil, fmt.Errorf("find refs by external key: %w", err)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: unsupported link type %T", ErrInvalidLink, link)
	}
}

// linkForRow prefers the vendor id when the row has one.
func linkForRow(row RowIdentity) (ExternalLink, error) {
	if id := strings.TrimSpace(row.ExternalPlayerID); id != "" {
		return IDLink{ExternalPlayerID: id}, nil
	}
	name := normalize.Name(row.FullName)
	if name == "" {
		return nil, ErrInvalidIdentity
	}
	return IdentityLink{
		ExternalKey: BuildKey(row.keyInput()),
		Identity: Identity{
			FullNameNormalized: name,
			JerseyNumber:       row.JerseyNumber,
			TeamLabel:          strings.TrimSpace(row.TeamLabel),
			SeasonLabel:        strings.TrimSpace(row.SeasonLabel),
		},
	}, nil
}

func distinctPlayers(refs []ExternalPlayerRef) []string {
	seen := make(map[string]struct{}, len(refs))
	var players []string
	for _, ref := range refs {
		if _, ok := seen[ref.PlayerID]; ok {
			continue
		}
		seen[ref.PlayerID] = struct{}{}
		players = append(players, ref.PlayerID)
	}
	return players
}
