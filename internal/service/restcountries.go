package service

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"country-atlas-service/internal/model"
)

// restCountry is a record from the restcountries.com v3.1 API.
type restCountry struct {
	Name struct {
		Common     string `json:"common"`
		Official   string `json:"official"`
		NativeName map[string]struct {
			Common   string `json:"common"`
			Official string `json:"official"`
		} `json:"nativeName"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
	Subregion  string   `json:"subregion"`
	Population int      `json:"population"`
	Area       float64  `json:"area"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Languages map[string]string `json:"languages"`
	Timezones []string          `json:"timezones"`
	Latlng    []float64         `json:"latlng"`
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// convertLanguages maps restcountries language entries (keyed by ISO 639-3
// code) to embedded languages. Languages without a two letter code are dropped.
func convertLanguages(langs map[string]string) []model.Language {
	out := make([]model.Language, 0, len(langs))
	for _, code := range sortedKeys(langs) {
		base, err := language.ParseBase(strings.ToLower(code))
		if err != nil {
			continue
		}
		iso1 := base.String()
		if len(iso1) != 2 {
			continue
		}
		out = append(out, model.Language{
			Name:    langs[code],
			ISO6391: iso1,
			ISO6392: base.ISO3(),
		})
	}
	return out
}

func (rc restCountry) toCountry() model.Country {
	c := model.Country{
		Name:       strings.TrimSpace(rc.Name.Common),
		Region:     rc.Region,
		Subregion:  rc.Subregion,
		Population: rc.Population,
		Area:       rc.Area,
		Languages:  convertLanguages(rc.Languages),
		Timezones:  rc.Timezones,
	}

	if len(rc.Capital) > 0 {
		c.Capital = rc.Capital[0]
	}

	if codes := sortedKeys(rc.Currencies); len(codes) > 0 {
		c.Currency = codes[0]
	}

	// Prefer the native name in the country's first listed language.
	c.NativeName = c.Name
	if len(rc.Name.NativeName) > 0 {
		key := sortedKeys(rc.Name.NativeName)[0]
		for _, code := range sortedKeys(rc.Languages) {
			if _, ok := rc.Name.NativeName[code]; ok {
				key = code
				break
			}
		}
		if native := rc.Name.NativeName[key].Common; native != "" {
			c.NativeName = native
		}
	}

	// Without latlng the record fails validation and is skipped.
	if len(rc.Latlng) >= 2 {
		c.Location = &model.Location{Latitude: rc.Latlng[0], Longitude: rc.Latlng[1]}
	}
	return c
}
