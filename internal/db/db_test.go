package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/identity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func TestEnsureForeignKeysEnabledDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "bare path", dsn: "data.db", want: "data.db?_fk=1"},
		{name: "existing query", dsn: "data.db?cache=shared", want: "data.db?cache=shared&_fk=1"},
		{name: "already set", dsn: "data.db?_fk=0", want: "data.db?_fk=0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ensureForeignKeysEnabledDSN(test.dsn); got != test.want {
				t.Fatalf("ensureForeignKeysEnabledDSN(%q) = %q, want %q", test.dsn, got, test.want)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	q := NewQueries(nil, DialectPostgres)
	got := q.rebind("UPDATE t SET a = ? WHERE b = ? AND c = 'id'")
	want := "UPDATE t SET a = $1 WHERE b = $2 AND c = 'id'"
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}
	if sqlite := NewQueries(nil, DialectSQLite).rebind("a = ?"); sqlite != "a = ?" {
		t.Fatalf("sqlite rebind changed query: %q", sqlite)
	}
}

func TestKV(t *testing.T) {
	database := newTestDB(t)
	kv := NewKV(database)
	ctx := context.Background()

	if _, found, err := kv.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) found=%v err=%v", found, err)
	}

	created, err := kv.SetIfAbsent(ctx, "k", "v1")
	if err != nil || !created {
		t.Fatalf("SetIfAbsent first: created=%v err=%v", created, err)
	}
	created, err = kv.SetIfAbsent(ctx, "k", "v2")
	if err != nil || created {
		t.Fatalf("SetIfAbsent second: created=%v err=%v", created, err)
	}
	if value, _, _ := kv.Get(ctx, "k"); value != "v1" {
		t.Fatalf("value after SetIfAbsent = %q, want v1", value)
	}

	if err := kv.Set(ctx, "k", "v3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if value, found, _ := kv.Get(ctx, "k"); !found || value != "v3" {
		t.Fatalf("value after Set = %q (found=%v), want v3", value, found)
	}
}

func TestRefStoreRoundTrip(t *testing.T) {
	database := newTestDB(t)
	store := NewRefStore(database)
	ctx := context.Background()

	jersey := 12
	matched := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)
	created, err := store.CreateRef(ctx, identity.ExternalPlayerRef{
		PlayerID: "p_001",
		Source:   identity.SourceBalltime,
		Link: identity.IdentityLink{
			ExternalKey: "balltime|2025-2026|varsity|caroline toberman|12",
			Identity: identity.Identity{
				FullNameNormalized: "caroline toberman",
				JerseyNumber:       &jersey,
				TeamLabel:          "Varsity",
				SeasonLabel:        "2025-2026",
			},
		},
		DisplayNameFromSource: "Toberman, Caroline",
		LastMatchedAt:         &matched,
	})
	if err != nil {
		t.Fatalf("create ref: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected generated id")
	}

	if _, err := store.CreateRef(ctx, identity.ExternalPlayerRef{
		PlayerID: "p_002",
		Source:   identity.SourceHudl,
		Link:     identity.IDLink{ExternalPlayerID: "h-2"},
	}); err != nil {
		t.Fatalf("create id ref: %v", err)
	}

	refs, err := store.FindRefsByExternalKey(ctx, identity.SourceBalltime, "balltime|2025-2026|varsity|caroline toberman|12")
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if len(refs) != 1 || refs[0].PlayerID != "p_001" {
		t.Fatalf("unexpected refs %+v", refs)
	}
	link, ok := refs[0].Link.(identity.IdentityLink)
	if !ok || link.Identity.JerseyNumber == nil || *link.Identity.JerseyNumber != 12 {
		t.Fatalf("unexpected link %#v", refs[0].Link)
	}
	if refs[0].LastMatchedAt == nil || !refs[0].LastMatchedAt.Equal(matched) {
		t.Fatalf("lastMatchedAt = %v, want %v", refs[0].LastMatchedAt, matched)
	}

	if refs, _ := store.FindRefsByExternalKey(ctx, identity.SourceHudl, "balltime|2025-2026|varsity|caroline toberman|12"); len(refs) != 0 {
		t.Fatalf("key lookup must be scoped by source, got %+v", refs)
	}

	idRefs, err := store.FindRefsByExternalID(ctx, identity.SourceHudl, "h-2")
	if err != nil || len(idRefs) != 1 {
		t.Fatalf("find by id: %v %+v", err, idRefs)
	}
	if _, ok := idRefs[0].Link.(identity.IDLink); !ok {
		t.Fatalf("expected IDLink, got %T", idRefs[0].Link)
	}

	touchedAt := matched.Add(24 * time.Hour)
	if err := store.TouchRef(ctx, created.ID, touchedAt); err != nil {
		t.Fatalf("touch: %v", err)
	}
	byPlayer, err := store.RefsForPlayer(ctx, "p_001")
	if err != nil || len(byPlayer) != 1 {
		t.Fatalf("refs for player: %v %+v", err, byPlayer)
	}
	if !byPlayer[0].LastMatchedAt.Equal(touchedAt) {
		t.Fatalf("lastMatchedAt after touch = %v, want %v", byPlayer[0].LastMatchedAt, touchedAt)
	}

	if err := store.TouchRef(ctx, 9999, touchedAt); err == nil {
		t.Fatal("expected error touching missing ref")
	}
}

func TestResolverOverSQLite(t *testing.T) {
	database := newTestDB(t)
	resolver := identity.NewResolver(NewRefStore(database), nil)
	ctx := context.Background()
	jersey := 7

	row := identity.RowIdentity{Source: identity.SourceBalltime, FullName: "Milani Lee", JerseyNumber: &jersey, TeamLabel: "Varsity", SeasonLabel: "2025-2026"}
	if _, err := resolver.Link(ctx, identity.LinkRequest{PlayerID: "p_003", Identity: row}); err != nil {
		t.Fatalf("link: %v", err)
	}

	res, err := resolver.Resolve(ctx, row)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != identity.StatusMatched || res.PlayerID != "p_003" {
		t.Fatalf("unexpected resolution %+v", res)
	}

	_, err = resolver.Link(ctx, identity.LinkRequest{PlayerID: "p_004", Identity: row})
	if !errors.Is(err, identity.ErrKeyConflict) {
		t.Fatalf("expected ErrKeyConflict, got %v", err)
	}
}

func TestRefStoreRejectsDuplicateLinks(t *testing.T) {
	database := newTestDB(t)
	store := NewRefStore(database)
	ctx := context.Background()

	keyRef := func(playerID string) identity.ExternalPlayerRef {
		return identity.ExternalPlayerRef{
			PlayerID: playerID,
			Source:   identity.SourceBalltime,
			Link: identity.IdentityLink{
				ExternalKey: "balltime|||jane doe|",
				Identity:    identity.Identity{FullNameNormalized: "jane doe"},
			},
		}
	}
	idRef := func(playerID string) identity.ExternalPlayerRef {
		return identity.ExternalPlayerRef{PlayerID: playerID, Source: identity.SourceHudl, Link: identity.IDLink{ExternalPlayerID: "h-1"}}
	}

	tests := []struct {
		name   string
		first  identity.ExternalPlayerRef
		second identity.ExternalPlayerRef
	}{
		{name: "identity key", first: keyRef("p_001"), second: keyRef("p_002")},
		{name: "external id", first: idRef("p_001"), second: idRef("p_002")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := store.CreateRef(ctx, test.first); err != nil {
				t.Fatalf("create first: %v", err)
			}
			if _, err := store.CreateRef(ctx, test.second); !errors.Is(err, identity.ErrKeyConflict) {
				t.Fatalf("create second err = %v, want ErrKeyConflict", err)
			}
		})
	}

	// The same key under another source is a different identity.
	other := keyRef("p_003")
	other.Source = identity.SourceHudl
	if _, err := store.CreateRef(ctx, other); err != nil {
		t.Fatalf("create under other source: %v", err)
	}
}

func TestRefStoreInTxRollsBack(t *testing.T) {
	database := newTestDB(t)
	store := NewRefStore(database)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx identity.RefStore) error {
		if _, err := tx.CreateRef(ctx, identity.ExternalPlayerRef{
			PlayerID: "p_001",
			Source:   identity.SourceHudl,
			Link:     identity.IDLink{ExternalPlayerID: "h-9"},
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() err = %v, want boom", err)
	}

	refs, err := store.FindRefsByExternalID(ctx, identity.SourceHudl, "h-9")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("refs after rollback = %+v, want none", refs)
	}
}
