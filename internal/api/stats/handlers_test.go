package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
)

func setupStatsTest(t *testing.T) {
	t.Helper()
	statCatalog = nil
	catalogOnce = sync.Once{}
	InitHandlers(nil)
	t.Cleanup(func() {
		statCatalog = nil
		catalogOnce = sync.Once{}
	})
}

func TestHandleCatalog(t *testing.T) {
	setupStatsTest(t)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst catalog.StatKey
	}{
		{"all stats in catalog order", "", len(catalog.All()), catalog.PlayerName},
		{"filtered by type", "?type=pct", 1, catalog.HittingPct},
		{"unknown type", "?type=color", 0, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleCatalog(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/catalog"+test.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}

			var resp catalogResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Stats) != test.wantCount {
				t.Fatalf("stats = %d, want %d", len(resp.Stats), test.wantCount)
			}
			if test.wantCount > 0 && resp.Stats[0].Key != test.wantFirst {
				t.Fatalf("first stat = %q, want %q", resp.Stats[0].Key, test.wantFirst)
			}
		})
	}
}
