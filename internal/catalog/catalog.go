// internal/catalog/catalog.go
package catalog

// StatKey identifies a canonical stat column.
type StatKey string

const (
	PlayerName      StatKey = "playerName"
	JerseyNumber    StatKey = "jerseyNumber"
	MatchDate       StatKey = "matchDate"
	Opponent        StatKey = "opponent"
	Kills           StatKey = "kills"
	Errors          StatKey = "errors"
	Attempts        StatKey = "attempts"
	HittingPct      StatKey = "hittingPct"
	Aces            StatKey = "aces"
	ServeErrors     StatKey = "serveErrors"
	ServeAttempts   StatKey = "serveAttempts"
	Assists         StatKey = "assists"
	Digs            StatKey = "digs"
	BlocksSolo      StatKey = "blocksSolo"
	BlocksAssist    StatKey = "blocksAssist"
	ReceptionRating StatKey = "receptionRating"
)

// StatType is the value type a canonical stat is expected to carry.
type StatType string

const (
	TypeString StatType = "string"
	TypeInt    StatType = "int"
	TypeFloat  StatType = "float"
	TypePct    StatType = "pct"
	TypeDate   StatType = "date"
)

type Stat struct {
	Key      StatKey  `json:"key"`
	Label    string   `json:"label"`
	Type     StatType `json:"type"`
	Synonyms []string `json:"synonyms"`
}

// Catalog is an ordered, read-only set of stats. Order matters: suggestion
// ties go to the stat listed first.
type Catalog struct {
	stats []Stat
	index map[StatKey]int
}

var defaultCatalog = mustNew([]Stat{
	{Key: PlayerName, Label: "Player Name", Type: TypeString, Synonyms: []string{"player", "name", "athlete", "player name"}},
	{Key: JerseyNumber, Label: "Jersey #", Type: TypeInt, Synonyms: []string{"jersey", "number", "num", "jersey no"}},
	{Key: MatchDate, Label: "Match Date", Type: TypeDate, Synonyms: []string{"date", "match date", "game date"}},
	{Key: Opponent, Label: "Opponent", Type: TypeString, Synonyms: []string{"opponent", "vs", "against"}},

	{Key: Kills, Label: "Kills", Type: TypeInt, Synonyms: []string{"kills", "kill", "k"}},
	{Key: Errors, Label: "Errors", Type: TypeInt, Synonyms: []string{"errors", "err", "attack errors"}},
	{Key: Attempts, Label: "Attempts", Type: TypeInt, Synonyms: []string{"attempts", "att", "swings", "attacks"}},
	{Key: HittingPct, Label: "Hitting %", Type: TypePct, Synonyms: []string{"hitting pct", "hitting percentage", "hit pct"}},

	{Key: Aces, Label: "Aces", Type: TypeInt, Synonyms: []string{"aces", "ace", "sa"}},
	{Key: ServeErrors, Label: "Serve Errors", Type: TypeInt, Synonyms: []string{"serve errors", "se", "svc err"}},
	{Key: ServeAttempts, Label: "Serve Attempts", Type: TypeInt, Synonyms: []string{"serve attempts", "serves", "sa attempts"}},

	{Key: Assists, Label: "Assists", Type: TypeInt, Synonyms: []string{"assists", "ast"}},
	{Key: Digs, Label: "Digs", Type: TypeInt, Synonyms: []string{"digs", "dig"}},

	{Key: BlocksSolo, Label: "Solo Blocks", Type: TypeInt, Synonyms: []string{"solo blocks", "block solo", "bs"}},
	{Key: BlocksAssist, Label: "Assisted Blocks", Type: TypeInt, Synonyms: []string{"assisted blocks", "block assist", "ba"}},
	{Key: ReceptionRating, Label: "Reception Rating", Type: TypeFloat, Synonyms: []string{"reception rating", "pass rating", "serve receive"}},
})

// Default returns the built-in volleyball catalog.
func Default() *Catalog {
	return defaultCatalog
}

// New builds a catalog from stats in the given order. Keys must be unique
// and non-empty.
func New(stats []Stat) (*Catalog, error) {
	c := &Catalog{
		stats: make([]Stat, 0, len(stats)),
		index: make(map[StatKey]int, len(stats)),
	}
	for _, stat := range stats {
		if stat.Key == "" {
			return nil, errEmptyKey
		}
		if _, exists := c.index[stat.Key]; exists {
			return nil, duplicateKeyError(stat.Key)
		}
		stat.Synonyms = append([]string(nil), stat.Synonyms...)
		c.index[stat.Key] = len(c.stats)
		c.stats = append(c.stats, stat)
	}
	return c, nil
}

func mustNew(stats []Stat) *Catalog {
	c, err := New(stats)
	if err != nil {
		panic("invalid stat catalog: " + err.Error())
	}
	return c
}

// All returns a copy of the stats in catalog order.
func (c *Catalog) All() []Stat {
	out := make([]Stat, len(c.stats))
	for i, stat := range c.stats {
		stat.Synonyms = append([]string(nil), stat.Synonyms...)
		out[i] = stat
	}
	return out
}

// Keys returns the stat keys in catalog order.
func (c *Catalog) Keys() []StatKey {
	keys := make([]StatKey, len(c.stats))
	for i, stat := range c.stats {
		keys[i] = stat.Key
	}
	return keys
}

func (c *Catalog) Lookup(key StatKey) (Stat, bool) {
	i, ok := c.index[key]
	if !ok {
		return Stat{}, false
	}
	return c.stats[i], true
}

func (c *Catalog) Valid(key StatKey) bool {
	_, ok := c.index[key]
	return ok
}

// Each walks stats in order without copying. Callers must not modify the
// synonym slices they receive.
func (c *Catalog) Each(fn func(Stat) bool) {
	for _, stat := range c.stats {
		if !fn(stat) {
			return
		}
	}
}

// All returns the default catalog's stats.
func All() []Stat {
	return defaultCatalog.All()
}

// Lookup finds a stat in the default catalog.
func Lookup(key StatKey) (Stat, bool) {
	return defaultCatalog.Lookup(key)
}

// Valid reports whether key belongs to the default catalog.
func Valid(key StatKey) bool {
	return defaultCatalog.Valid(key)
}
