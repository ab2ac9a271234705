// Package phone turns user-supplied mobile numbers into the canonical
// international format stored on availability requests.
package phone

import (
	"sort"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalizer converts a (number, country) pair to "00" + country code +
// national number. Only numbers that can receive SMS are accepted.
type Normalizer struct{}

// Normalize returns the canonical form of number for country, or false when
// the country is unknown or the number is not a valid mobile number.
// country is an ISO 3166-1 alpha-2 or alpha-3 code.
func (Normalizer) Normalize(number, country string) (string, bool) {
	number = strings.TrimSpace(number)
	region, ok := RegionCode(country)
	if number == "" || !ok {
		return "", false
	}
	parsed, err := phonenumbers.Parse(number, region)
	if err != nil || !phonenumbers.IsValidNumberForRegion(parsed, region) {
		return "", false
	}
	switch phonenumbers.GetNumberType(parsed) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
	default:
		return "", false
	}
	e164 := phonenumbers.Format(parsed, phonenumbers.E164)
	return "00" + strings.TrimPrefix(e164, "+"), true
}

// RegionCode maps an alpha-2 or alpha-3 country code to the upper-case
// alpha-2 region used by the numbering plan.
func RegionCode(country string) (string, bool) {
	country = strings.TrimSpace(country)
	if n := len(country); n != 2 && n != 3 {
		return "", false
	}
	// ParseRegion also takes UN M.49 numeric codes.
	for _, c := range country {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return "", false
		}
	}
	r, err := language.ParseRegion(country)
	if err != nil || !r.IsCountry() {
		return "", false
	}
	code := r.String()
	if phonenumbers.GetCountryCodeForRegion(code) == 0 {
		return "", false
	}
	return code, true
}

// Country is one entry of the country selector shown next to the phone field.
type Country struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	DialCode int    `json:"dial_code"`
}

var (
	countriesOnce sync.Once
	countries     []Country
)

// Countries lists every region with a numbering plan, sorted by English name.
// The slice is shared; callers must not modify it.
func Countries() []Country {
	countriesOnce.Do(func() {
		namer := display.English.Regions()
		for code := range phonenumbers.GetSupportedRegions() {
			r, err := language.ParseRegion(code)
			if err != nil {
				continue
			}
			name := namer.Name(r)
			if name == "" {
				name = code
			}
			countries = append(countries, Country{
				Code:     code,
				Name:     name,
				DialCode: phonenumbers.GetCountryCodeForRegion(code),
			})
		}
		sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })
	})
	return countries
}
