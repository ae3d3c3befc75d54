package cache

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Control parameters that shape a request but not its payload. They are
// excluded from the overrides digest so that toggling them never forks the
// cache location.
var controlParams = map[string]struct{}{
	"cache":    {},
	"raw":      {},
	"log":      {},
	"reload":   {},
	"timeout":  {},
	"batch":    {},
	"col_maps": {},
}

// emptyOverridesTag is the digest used when a reference query carries no
// payload-affecting overrides.
const emptyOverridesTag = "ovrd=None"

// maxDigestLen caps the human-readable digest before it collapses to a hash.
const maxDigestLen = 120

// AssetOf derives the asset-class directory component from a ticker's last
// token ("AAPL US Equity" -> "Equity"). Identifier-style tickers and bare
// symbols fall under a generic bucket.
func AssetOf(ticker string) string {
	if strings.HasPrefix(ticker, "/") {
		return "Fixed"
	}
	tokens := strings.Fields(ticker)
	if len(tokens) < 2 {
		return "Ticker"
	}
	return tokens[len(tokens)-1]
}

// NormalizeTicker maps a ticker to a filesystem-safe directory component.
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(ticker, "/", "_")
}

// BarPath returns the intraday bar cache file for one ticker, event type and
// date: {root}/{asset}/{ticker}/{eventType}/{YYYY-MM-DD}.json.
func BarPath(root, asset, ticker, eventType string, date time.Time) string {
	return filepath.Join(root, asset, NormalizeTicker(ticker), eventType,
		date.Format("2006-01-02")+".json")
}

// OverridesDigest renders payload-affecting overrides as a stable,
// order-independent tag. Control parameters are dropped first; an empty
// remainder yields the fixed placeholder so cached files always carry a
// digest component.
func OverridesDigest(overrides map[string]string) string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if _, control := controlParams[k]; control {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return emptyOverridesTag
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+overrides[k])
	}
	digest := strings.Join(parts, ",")
	if len(digest) > maxDigestLen {
		h := fnv.New64a()
		h.Write([]byte(digest))
		return fmt.Sprintf("ovrd=%x", h.Sum64())
	}
	return digest
}

// RefPath returns the undated reference cache file for one ticker and field:
// {root}/Ref/{ticker}/{field}/{digest}.json.
func RefPath(root, ticker, field string, overrides map[string]string) string {
	return filepath.Join(root, "Ref", NormalizeTicker(ticker), field,
		OverridesDigest(overrides)+".json")
}

// DatedRefPath returns the dated reference cache file used for point-in-time
// fields: {root}/Ref/{ticker}/{field}/asof={YYYY-MM-DD}, {digest}.json.
func DatedRefPath(root, ticker, field string, asOf time.Time, overrides map[string]string) string {
	name := fmt.Sprintf("asof=%s, %s.json", asOf.Format("2006-01-02"), OverridesDigest(overrides))
	return filepath.Join(root, "Ref", NormalizeTicker(ticker), field, name)
}
