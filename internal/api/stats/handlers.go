// internal/api/stats/handlers.go
package stats

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/apiutil"
	"github.com/estrellaangel/VolleyTech/internal/catalog"
)

var (
	statCatalog *catalog.Catalog
	catalogOnce sync.Once
)

type catalogResponse struct {
	Stats []catalog.Stat `json:"stats"`
}

// InitHandlers must be called during server startup before handling requests.
// A nil catalog serves the built-in one.
func InitHandlers(c *catalog.Catalog) {
	catalogOnce.Do(func() {
		if c == nil {
			c = catalog.Default()
		}
		statCatalog = c
	})
}

func loadCatalog() *catalog.Catalog {
	if statCatalog == nil {
		return catalog.Default()
	}
	return statCatalog
}

// GET /api/v1/stats/catalog
// An optional ?type= narrows the list to one stat type.
func HandleCatalog(w http.ResponseWriter, r *http.Request) {
	statType := catalog.StatType(r.URL.Query().Get("type"))

	var out []catalog.Stat
	loadCatalog().Each(func(s catalog.Stat) bool {
		if statType == "" || s.Type == statType {
			out = append(out, s)
		}
		return true
	})
	if out == nil {
		out = []catalog.Stat{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, catalogResponse{Stats: out}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write catalog response")
	}
}
