// Package media holds the registry of content providers and the media
// title aliases they contribute to the corpus.
package media

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderToMedia maps each data provider to the media aliases it owns.
// The registry is the reference for deciding whether a path segment is
// a known title, and for resolving an alias back to its provider.
var ProviderToMedia = map[string][]string{
	"SNL-RERO": {
		"BDC", "CDV", "DLE", "EDA", "EXP", "IMP", "JDF", "JDV", "LBP",
		"LCE", "LCG", "LCR", "LCS", "LES", "LNF", "LSE", "LSR", "LTF",
		"LVE", "EVT",
	},
	"LeTemps": {"JDG", "GDL"},
	"NZZ":     {"NZZ"},
	"SWA":     {"arbeitgeber", "handelsztg"},
	"FedGaz":  {"FedGazDe", "FedGazFr"},
	"BNL": {
		"actionfem", "armeteufel", "avenirgdl", "buergerbeamten",
		"courriergdl", "deletz1893", "demitock", "diekwochen", "dunioun",
		"gazgrdlux", "indeplux", "kommmit", "landwortbild", "lunion",
		"luxembourg1935", "luxland", "luxwort", "luxzeit1844",
		"luxzeit1858", "obermosel", "onsjongen", "schmiede", "tageblatt",
		"volkfreu1869", "waechtersauer", "waeschfra",
	},
	"SNL-RERO2": {
		"BLB", "BNN", "DFS", "DVF", "EZR", "FZG", "HRV", "LAB", "LLE",
		"MGS", "NTS", "NZG", "SGZ", "SRT", "WHD", "ZBT",
	},
	"SNL-RERO3": {
		"CON", "DTT", "FCT", "GAV", "GAZ", "LLS", "OIZ", "SAX", "SDT",
		"SMZ", "VDR", "VHT",
	},
	"BNF": {"excelsior", "lafronde", "marieclaire", "oeuvre"},
	"BNF-EN": {
		"jdpl", "legaulois", "lematin", "lepji", "lepetitparisien",
		"oecaen", "oerennes",
	},
	"BCUL": {
		"ACI", "Castigat", "CL", "Croquis", "FAMDE", "FAN", "GAVi", "AV",
		"JY2", "JV", "JVE", "JH", "OBS", "Bombe", "Cancoire", "Fronde",
		"Griffe", "Guepe1851", "Guepe1887", "RLA", "Charivari",
		"CharivariCH", "Grelot", "Moniteur", "ouistiti", "PDL", "PJ",
		"TouSuIl", "VVS1", "MESSAGER", "PS", "NV", "ME", "MB", "NS",
		"FAM", "FAV1", "EM", "esta", "PAT", "VVS", "NV1", "NV2",
	},
}

// AllMedia is the flattened, sorted list of every known media alias.
var AllMedia = flattenAliases()

func flattenAliases() []string {
	var aliases []string
	for _, titles := range ProviderToMedia {
		aliases = append(aliases, titles...)
	}
	sort.Strings(aliases)
	return aliases
}

// IsKnownAlias reports whether alias is a registered media title.
func IsKnownAlias(alias string) bool {
	i := sort.SearchStrings(AllMedia, alias)
	return i < len(AllMedia) && AllMedia[i] == alias
}

// AliasCache resolves media aliases to their provider, memoizing
// lookups. The cache is owned by the caller; Reset drops all entries
// when the registry contents are expected to have changed.
type AliasCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewAliasCache creates an empty cache.
func NewAliasCache() *AliasCache {
	return &AliasCache{entries: make(map[string]string)}
}

// ProviderFor returns the provider owning the given media alias.
func (c *AliasCache) ProviderFor(alias string) (string, error) {
	c.mu.RLock()
	provider, ok := c.entries[alias]
	c.mu.RUnlock()
	if ok {
		return provider, nil
	}

	for provider, titles := range ProviderToMedia {
		for _, title := range titles {
			if title == alias {
				c.mu.Lock()
				c.entries[alias] = provider
				c.mu.Unlock()
				return provider, nil
			}
		}
	}

	return "", fmt.Errorf("no provider found for media alias %q", alias)
}

// Reset drops all memoized entries.
func (c *AliasCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
}
