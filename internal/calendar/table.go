package calendar

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed exchanges.yml
var builtinTable []byte

// assetRoute routes tickers of one asset class to an exchange key, either by
// exchange code or by futures root.
type assetRoute struct {
	ExchCodes []string `yaml:"exch_codes"`
	Roots     []string `yaml:"roots"`
	Exch      string   `yaml:"exch"`
}

// tableFile is the on-disk shape of the exchange table.
type tableFile struct {
	Exchanges         map[string]ExchangeInfo `yaml:"exchanges"`
	Assets            map[string][]assetRoute `yaml:"assets"`
	ProviderCalendars map[string]string       `yaml:"provider_calendars"`
	ProviderCodes     map[string]string       `yaml:"provider_codes"`
	BondCalendars     map[string]string       `yaml:"bond_calendars"`
}

// Table is the static exchange session table: the embedded defaults merged
// with an optional user override file under the cache root. Lookups are pure
// functions over the merged data.
type Table struct {
	file   tableFile
	logger *slog.Logger
}

// genericFutures matches the lexical shape of a continuous futures generic:
// root letters plus position digits, e.g. "ES1" or "UX2". The shape alone is
// ambiguous ("ESZ5" parses as root "ESZ" plus "5"), so classification also
// consults the routed roots; see Table.IsGenericFutures.
var genericFutures = regexp.MustCompile(`^([A-Z]{1,3})(\d{1,2})$`)

// specificContract matches the lexical shape of a dated futures contract:
// root, month code, one or two digit year.
var specificContract = regexp.MustCompile(`^[A-Z]{1,3}[FGHJKMNQUVXZ]\d{1,2}$`)

// LoadTable parses the embedded table and deep-merges user overrides from
// {root}/markets/exchanges.yml when present. root may be empty.
func LoadTable(root string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var file tableFile
	if err := yaml.Unmarshal(builtinTable, &file); err != nil {
		return nil, fmt.Errorf("failed to parse built-in exchange table: %w", err)
	}

	if root != "" {
		userPath := filepath.Join(root, "markets", "exchanges.yml")
		if data, err := os.ReadFile(userPath); err == nil {
			var user tableFile
			if uerr := yaml.Unmarshal(data, &user); uerr != nil {
				logger.Warn("ignoring unparseable user exchange table",
					"path", userPath, "error", uerr.Error())
			} else {
				mergeTable(&file, user)
				logger.Debug("merged user exchange table", "path", userPath)
			}
		}
	}

	for key, info := range file.Exchanges {
		info.Key = key
		file.Exchanges[key] = info
	}
	return &Table{file: file, logger: logger}, nil
}

// mergeTable applies user overrides on top of the built-in table. Exchange
// entries replace whole exchanges; routing lists for an asset class replace
// the built-in list for that class.
func mergeTable(base *tableFile, user tableFile) {
	for key, info := range user.Exchanges {
		base.Exchanges[key] = info
	}
	for asset, routes := range user.Assets {
		base.Assets[asset] = routes
	}
	for k, v := range user.ProviderCalendars {
		base.ProviderCalendars[k] = v
	}
	for k, v := range user.ProviderCodes {
		base.ProviderCodes[k] = v
	}
	for k, v := range user.BondCalendars {
		base.BondCalendars[k] = v
	}
}

// Exchange returns the info for an exchange key, or the zero sentinel.
func (t *Table) Exchange(key string) ExchangeInfo {
	return t.file.Exchanges[key]
}

// Lookup resolves a raw ticker to its exchange calendar entry. Returns the
// zero ExchangeInfo when the ticker's asset class or exchange code has no
// entry; callers decide whether that is a failure or a fallback case.
func (t *Table) Lookup(ticker string) ExchangeInfo {
	tokens := strings.Fields(ticker)
	if len(tokens) < 2 {
		return ExchangeInfo{}
	}
	asset := tokens[len(tokens)-1]
	routes, ok := t.file.Assets[asset]
	if !ok {
		return ExchangeInfo{}
	}

	exchCode := ""
	if len(tokens) >= 3 {
		exchCode = tokens[len(tokens)-2]
	}
	root := futuresRoot(tokens[0])

	for _, route := range routes {
		for _, code := range route.ExchCodes {
			if code == "*" || code == exchCode {
				return t.Exchange(route.Exch)
			}
		}
		if root != "" {
			for _, r := range route.Roots {
				if r == root {
					return t.Exchange(route.Exch)
				}
			}
		}
	}
	return ExchangeInfo{}
}

// ProviderKey returns the external calendar provider key for an exchange key.
func (t *Table) ProviderKey(exchKey string) string {
	return t.file.ProviderCalendars[exchKey]
}

// ProviderKeyForCode returns the provider key for a vendor exchange code, as
// resolved through the cached code lookup.
func (t *Table) ProviderKeyForCode(code string) string {
	return t.file.ProviderCodes[code]
}

// BondCalendar returns the bond-market provider calendar for a two-letter
// country code, or empty when the country has no known bond calendar.
func (t *Table) BondCalendar(country string) string {
	return t.file.BondCalendars[strings.ToUpper(country)]
}

// futuresRoot extracts the generic root from a futures first token ("ES1"
// -> "ES"). Returns empty for non-generic tokens.
func futuresRoot(token string) string {
	m := genericFutures.FindStringSubmatch(token)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsGenericFutures reports whether the ticker's first token is a continuous
// futures generic: root plus position digits, with the root routed to a
// futures exchange. Routing disambiguates shapes like "ESZ5" (dated, root
// "ESZ" is not routed) from "UX12" (generic, root "UX" is).
func (t *Table) IsGenericFutures(ticker string) bool {
	tokens := strings.Fields(ticker)
	if len(tokens) == 0 || !genericFutures.MatchString(tokens[0]) {
		return false
	}
	return t.Lookup(ticker).IsFutures
}

// IsSpecificContract reports whether the ticker's first token names a dated
// futures contract (month code plus year), which is not resolvable as a
// generic. A token whose generic reading routes to a futures exchange is
// classified generic, never dated.
func (t *Table) IsSpecificContract(ticker string) bool {
	tokens := strings.Fields(ticker)
	if len(tokens) == 0 || !specificContract.MatchString(tokens[0]) {
		return false
	}
	return !t.IsGenericFutures(ticker)
}
