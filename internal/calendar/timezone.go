package calendar

import "strings"

// DefaultTimezone is used when no country or shortcut mapping applies.
const DefaultTimezone = "America/New_York"

// tzShortcuts maps two-letter region shortcuts to IANA timezone names.
var tzShortcuts = map[string]string{
	"NY": "America/New_York",
	"AU": "Australia/Sydney",
	"JP": "Asia/Tokyo",
	"SK": "Asia/Seoul",
	"HK": "Asia/Hong_Kong",
	"SH": "Asia/Shanghai",
	"TW": "Asia/Taipei",
	"SG": "Asia/Singapore",
	"IN": "Asia/Calcutta",
	"DB": "Asia/Dubai",
	"UK": "Europe/London",
}

// countryTimezones maps ISO country codes to the default timezone applied to
// fixed income instruments without calendar coverage.
var countryTimezones = map[string]string{
	"US": "America/New_York",
	"GB": "Europe/London",
	"UK": "Europe/London",
	"JP": "Asia/Tokyo",
	"DE": "Europe/Berlin",
	"FR": "Europe/Paris",
	"IT": "Europe/Rome",
	"ES": "Europe/Madrid",
	"NL": "Europe/Amsterdam",
	"CH": "Europe/Zurich",
	"AU": "Australia/Sydney",
	"CA": "America/Toronto",
}

// TimezoneShortcut resolves a two-letter shortcut ("NY", "UK") to an IANA
// name. Inputs that are not shortcuts are returned unchanged, so full IANA
// names pass through.
func TimezoneShortcut(tz string) string {
	if full, ok := tzShortcuts[strings.ToUpper(tz)]; ok {
		return full
	}
	return tz
}

// CountryTimezone returns the default timezone for an ISO country code and
// whether the country is known.
func CountryTimezone(country string) (string, bool) {
	tz, ok := countryTimezones[strings.ToUpper(country)]
	return tz, ok
}
