package model

import (
	"sort"
	"strings"

	"country-atlas-service/internal/apperr"
)

// filterPaths maps a filterable field name to its path in the stored document.
var filterPaths = map[string]string{
	"name":        "name",
	"capital":     "capital",
	"region":      "region",
	"subregion":   "subregion",
	"native_name": "native_name",
	"currency":    "currency",
	"timezone":    "timezone",
	"language":    "language.name",
	"iso639_1":    "language.iso639_1",
	"iso639_2":    "language.iso639_2",
}

var filterAliases = map[string]string{
	"timezones": "timezone",
	"languages": "language",
}

func canonicalField(field string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(field))
	if alias, ok := filterAliases[f]; ok {
		f = alias
	}
	if _, ok := filterPaths[f]; !ok {
		return "", apperr.InvalidArgument("unknown filter field %q (allowed: %s)", field, strings.Join(FilterFields(), ", "))
	}
	return f, nil
}

// FilterPath resolves a filter field to its document path.
func FilterPath(field string) (string, error) {
	f, err := canonicalField(field)
	if err != nil {
		return "", err
	}
	return filterPaths[f], nil
}

func FilterFields() []string {
	fields := make([]string, 0, len(filterPaths))
	for f := range filterPaths {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// MatchesField reports whether c has value in field. List fields match when any
// element matches, the same way a document store compares arrays.
func (c Country) MatchesField(field, value string) (bool, error) {
	f, err := canonicalField(field)
	if err != nil {
		return false, err
	}

	switch f {
	case "name":
		return c.Name == value, nil
	case "capital":
		return c.Capital == value, nil
	case "region":
		return c.Region == value, nil
	case "subregion":
		return c.Subregion == value, nil
	case "native_name":
		return c.NativeName == value, nil
	case "currency":
		return c.Currency == value, nil
	case "timezone":
		for _, tz := range c.Timezones {
			if tz == value {
				return true, nil
			}
		}
	case "language", "iso639_1", "iso639_2":
		for _, l := range c.Languages {
			if (f == "language" && l.Name == value) ||
				(f == "iso639_1" && l.ISO6391 == value) ||
				(f == "iso639_2" && l.ISO6392 == value) {
				return true, nil
			}
		}
	}
	return false, nil
}
