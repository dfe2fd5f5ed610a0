package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
)

type catalogEntry struct {
	ModuleType catalog.ModuleType `json:"moduleType"`
	Title      string             `json:"title"`
	Group      string             `json:"group"`
	IsLocked   bool               `json:"isLocked"`
	Format     string             `json:"format"`
}

type tierCatalog struct {
	Tier    catalog.Tier   `json:"tier"`
	Price   int64          `json:"price"`
	Modules []catalogEntry `json:"modules"`
}

func catalogFor(tier catalog.Tier, partnership bool) (tierCatalog, error) {
	entries, err := catalog.For(tier, partnership)
	if err != nil {
		return tierCatalog{}, err
	}
	out := tierCatalog{Tier: tier, Price: tier.Price(), Modules: make([]catalogEntry, 0, len(entries))}
	for _, e := range entries {
		format := "json"
		if e.ModuleType.Format() == catalog.FormatText {
			format = "text"
		}
		out.Modules = append(out.Modules, catalogEntry{
			ModuleType: e.ModuleType,
			Title:      e.ModuleType.Title(),
			Group:      e.ModuleType.Group(),
			IsLocked:   e.IsLocked,
			Format:     format,
		})
	}
	return out, nil
}

// GET /api/catalog?tier=feasibility&partnership=true
//
// Without a tier every tier is returned, cheapest first.
func (a *api) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	partnership, _ := strconv.ParseBool(q.Get("partnership"))

	if t := strings.TrimSpace(q.Get("tier")); t != "" {
		tier, err := catalog.ParseTier(t)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		out, err := catalogFor(tier, partnership)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	all := make([]tierCatalog, 0, len(catalog.Tiers))
	for _, tier := range catalog.Tiers {
		out, err := catalogFor(tier, partnership)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		all = append(all, out)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": all})
}
