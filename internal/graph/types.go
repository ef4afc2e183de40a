package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"country-atlas-service/internal/geo"
	"country-atlas-service/internal/model"
)

// countryView is the source value behind every Country object. Distance is
// set only for results of countriesNearby.
type countryView struct {
	model.Country
	Distance *float64
}

func viewOf(c model.Country) *countryView {
	return &countryView{Country: c}
}

func viewsOf(countries []model.Country) []*countryView {
	out := make([]*countryView, 0, len(countries))
	for _, c := range countries {
		out = append(out, viewOf(c))
	}
	return out
}

func nearbyViews(nearby []model.NearbyCountry) []*countryView {
	out := make([]*countryView, 0, len(nearby))
	for _, n := range nearby {
		d := n.DistanceKm
		out = append(out, &countryView{Country: n.Country, Distance: &d})
	}
	return out
}

func sourceCountry(p graphql.ResolveParams) (*countryView, error) {
	v, ok := p.Source.(*countryView)
	if !ok {
		return nil, fmt.Errorf("unexpected Country source %T", p.Source)
	}
	return v, nil
}

func countryField(typ graphql.Output, get func(model.Country) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			v, err := sourceCountry(p)
			if err != nil {
				return nil, err
			}
			return get(v.Country), nil
		},
	}
}

func languageField(get func(model.Language) string) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			l, ok := p.Source.(model.Language)
			if !ok {
				return nil, fmt.Errorf("unexpected Language source %T", p.Source)
			}
			return get(l), nil
		},
	}
}

func locationField(get func(model.Location) float64) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.Float),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			l, ok := p.Source.(*model.Location)
			if !ok || l == nil {
				return nil, fmt.Errorf("unexpected Location source %T", p.Source)
			}
			return get(*l), nil
		},
	}
}

var languageType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Language",
	Description: "A language spoken in a country.",
	Fields: graphql.Fields{
		"name":     languageField(func(l model.Language) string { return l.Name }),
		"iso639_1": languageField(func(l model.Language) string { return l.ISO6391 }),
		"iso639_2": languageField(func(l model.Language) string { return l.ISO6392 }),
	},
})

var locationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Location",
	Fields: graphql.Fields{
		"latitude":  locationField(func(l model.Location) float64 { return l.Latitude }),
		"longitude": locationField(func(l model.Location) float64 { return l.Longitude }),
	},
})

var nonNullString = graphql.NewNonNull(graphql.String)

var countryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Country",
	Fields: graphql.Fields{
		"id":         countryField(graphql.NewNonNull(graphql.ID), func(c model.Country) interface{} { return c.ID }),
		"name":       countryField(nonNullString, func(c model.Country) interface{} { return c.Name }),
		"capital":    countryField(nonNullString, func(c model.Country) interface{} { return c.Capital }),
		"region":     countryField(nonNullString, func(c model.Country) interface{} { return c.Region }),
		"subregion":  countryField(nonNullString, func(c model.Country) interface{} { return c.Subregion }),
		"population": countryField(graphql.NewNonNull(graphql.Int), func(c model.Country) interface{} { return c.Population }),
		"area":       countryField(graphql.NewNonNull(graphql.Float), func(c model.Country) interface{} { return c.Area }),
		"nativeName": countryField(nonNullString, func(c model.Country) interface{} { return c.NativeName }),
		"currency":   countryField(nonNullString, func(c model.Country) interface{} { return c.Currency }),
		"languages": countryField(graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(languageType))),
			func(c model.Country) interface{} { return c.Languages }),
		"timezones": countryField(graphql.NewNonNull(graphql.NewList(nonNullString)),
			func(c model.Country) interface{} { return c.Timezones }),
		"location": countryField(graphql.NewNonNull(locationType), func(c model.Country) interface{} { return c.Location }),
		"distance": &graphql.Field{
			Type:        graphql.Float,
			Description: "Kilometers from the query point of countriesNearby; null elsewhere.",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				v, err := sourceCountry(p)
				if err != nil || v.Distance == nil {
					return nil, err
				}
				return *v.Distance, nil
			},
		},
		"distanceTo": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.Float),
			Description: "Geodesic distance in kilometers from this country to (lat, lng).",
			Args: graphql.FieldConfigArgument{
				"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				v, err := sourceCountry(p)
				if err != nil {
					return nil, err
				}
				query := geo.Point{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
				if err := geo.ValidatePoint(query); err != nil {
					return nil, coded(err)
				}
				from, ok := geo.PointOf(v.Location)
				if !ok {
					return nil, fmt.Errorf("country %s has no location", v.ID)
				}
				return geo.DistanceKm(from, query), nil
			},
		},
	},
})

var pageInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PageInfo",
	Fields: graphql.Fields{
		"hasNextPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"endCursor":   &graphql.Field{Type: graphql.String},
	},
})

var countryEdgeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CountryEdge",
	Fields: graphql.Fields{
		"cursor": &graphql.Field{Type: nonNullString},
		"node":   &graphql.Field{Type: graphql.NewNonNull(countryType)},
	},
})

var countryConnectionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CountryConnection",
	Fields: graphql.Fields{
		"edges":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(countryEdgeType)))},
		"pageInfo":   &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var languageInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LanguageInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":     &graphql.InputObjectFieldConfig{Type: nonNullString},
		"iso639_1": &graphql.InputObjectFieldConfig{Type: nonNullString},
		"iso639_2": &graphql.InputObjectFieldConfig{Type: nonNullString},
	},
})

var locationInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LocationInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"latitude":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		"longitude": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
	},
})

// countryInputFields builds the input fields shared by create and edit. Create
// requires every field, edit accepts any subset.
func countryInputFields(required bool) graphql.InputObjectConfigFieldMap {
	wrap := func(t graphql.Input) graphql.Input {
		if required {
			return graphql.NewNonNull(t)
		}
		return t
	}
	return graphql.InputObjectConfigFieldMap{
		"name":       &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"capital":    &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"region":     &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"subregion":  &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"population": &graphql.InputObjectFieldConfig{Type: wrap(graphql.Int)},
		"area":       &graphql.InputObjectFieldConfig{Type: wrap(graphql.Float)},
		"nativeName": &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"currency":   &graphql.InputObjectFieldConfig{Type: wrap(graphql.String)},
		"languages":  &graphql.InputObjectFieldConfig{Type: wrap(graphql.NewList(graphql.NewNonNull(languageInputType)))},
		"timezones":  &graphql.InputObjectFieldConfig{Type: wrap(graphql.NewList(nonNullString))},
		"location":   &graphql.InputObjectFieldConfig{Type: wrap(locationInputType)},
	}
}

var countryInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name:   "CountryInput",
	Fields: countryInputFields(true),
})

var editCountryInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name:   "EditCountryInput",
	Fields: countryInputFields(false),
})

var editCountryPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "EditCountryPayload",
	Fields: graphql.Fields{
		"country": &graphql.Field{Type: graphql.NewNonNull(countryType)},
	},
})
