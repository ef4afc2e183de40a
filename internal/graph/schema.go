package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
	"country-atlas-service/internal/service"
)

const cursorPrefix = "country:"

func encodeCursor(id string) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + id))
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return "", apperr.InvalidArgument("malformed cursor %q", cursor)
	}
	return strings.TrimPrefix(string(raw), cursorPrefix), nil
}

type resolver struct {
	countries service.CountryService
}

// NewSchema builds the GraphQL schema on top of the country service.
func NewSchema(countries service.CountryService) (graphql.Schema, error) {
	r := &resolver{countries: countries}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"countries": &graphql.Field{
				Type: graphql.NewNonNull(countryConnectionType),
				Args: graphql.FieldConfigArgument{
					"first": &graphql.ArgumentConfig{Type: graphql.Int},
					"after": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.resolveCountries,
			},
			"country": &graphql.Field{
				Type: countryType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveCountry,
			},
			"countriesNearby": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(countryType))),
				Args: graphql.FieldConfigArgument{
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.resolveCountriesNearby,
			},
			"countriesByLanguage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(countryType))),
				Args: graphql.FieldConfigArgument{
					"language": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveCountriesByLanguage,
			},
			"countriesByField": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(countryType))),
				Args: graphql.FieldConfigArgument{
					"field": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"value": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveCountriesByField,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"editCountry": &graphql.Field{
				Type: graphql.NewNonNull(editCountryPayloadType),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(editCountryInputType)},
				},
				Resolve: r.resolveEditCountry,
			},
			"createCountry": &graphql.Field{
				Type: graphql.NewNonNull(countryType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(countryInputType)},
				},
				Resolve: r.resolveCreateCountry,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func ctxOf(p graphql.ResolveParams) context.Context {
	if p.Context != nil {
		return p.Context
	}
	return context.Background()
}

func (r *resolver) resolveCountries(p graphql.ResolveParams) (interface{}, error) {
	first, _ := p.Args["first"].(int)
	after := ""
	if cursor, ok := p.Args["after"].(string); ok && cursor != "" {
		id, err := decodeCursor(cursor)
		if err != nil {
			return nil, coded(err)
		}
		after = id
	}

	page, err := r.countries.List(ctxOf(p), first, after)
	if err != nil {
		return nil, coded(err)
	}

	edges := make([]map[string]interface{}, 0, len(page.Countries))
	for _, c := range page.Countries {
		edges = append(edges, map[string]interface{}{
			"cursor": encodeCursor(c.ID),
			"node":   viewOf(c),
		})
	}

	var endCursor interface{}
	if page.EndCursor != "" {
		endCursor = encodeCursor(page.EndCursor)
	}

	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage": page.HasNextPage,
			"endCursor":   endCursor,
		},
		"totalCount": page.TotalCount,
	}, nil
}

func (r *resolver) resolveCountry(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	c, err := r.countries.Get(ctxOf(p), id)
	if err != nil {
		return nil, coded(err)
	}
	return viewOf(c), nil
}

func (r *resolver) resolveCountriesNearby(p graphql.ResolveParams) (interface{}, error) {
	lat, _ := p.Args["lat"].(float64)
	lng, _ := p.Args["lng"].(float64)
	limit, _ := p.Args["limit"].(int)

	nearby, err := r.countries.FindNearby(ctxOf(p), lat, lng, limit)
	if err != nil {
		return nil, coded(err)
	}
	return nearbyViews(nearby), nil
}

func (r *resolver) resolveCountriesByLanguage(p graphql.ResolveParams) (interface{}, error) {
	language, _ := p.Args["language"].(string)
	countries, err := r.countries.ByLanguage(ctxOf(p), language)
	if err != nil {
		return nil, coded(err)
	}
	return viewsOf(countries), nil
}

func (r *resolver) resolveCountriesByField(p graphql.ResolveParams) (interface{}, error) {
	field, _ := p.Args["field"].(string)
	value, _ := p.Args["value"].(string)
	countries, err := r.countries.ByField(ctxOf(p), field, value)
	if err != nil {
		return nil, coded(err)
	}
	return viewsOf(countries), nil
}

func (r *resolver) resolveEditCountry(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	input, _ := p.Args["input"].(map[string]interface{})

	patch, err := patchFromInput(input)
	if err != nil {
		return nil, coded(err)
	}

	updated, err := r.countries.Edit(ctxOf(p), id, patch)
	if err != nil {
		return nil, coded(err)
	}
	return map[string]interface{}{"country": viewOf(updated)}, nil
}

func (r *resolver) resolveCreateCountry(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	patch, err := patchFromInput(input)
	if err != nil {
		return nil, coded(err)
	}

	created, err := r.countries.Create(ctxOf(p), model.Country{}.Apply(patch))
	if err != nil {
		return nil, coded(err)
	}
	return viewOf(created), nil
}

// patchFromInput converts a CountryInput or EditCountryInput argument. Absent
// and null fields stay nil.
func patchFromInput(in map[string]interface{}) (model.CountryPatch, error) {
	var patch model.CountryPatch

	str := func(key string) *string {
		if v, ok := in[key].(string); ok {
			return &v
		}
		return nil
	}
	patch.Name = str("name")
	patch.Capital = str("capital")
	patch.Region = str("region")
	patch.Subregion = str("subregion")
	patch.NativeName = str("nativeName")
	patch.Currency = str("currency")

	if v, ok := in["population"].(int); ok {
		patch.Population = &v
	}
	if v, ok := in["area"].(float64); ok {
		patch.Area = &v
	}

	if raw, ok := in["timezones"].([]interface{}); ok {
		patch.Timezones = make([]string, 0, len(raw))
		for _, tz := range raw {
			s, ok := tz.(string)
			if !ok {
				return model.CountryPatch{}, apperr.InvalidArgument("timezones must be strings")
			}
			patch.Timezones = append(patch.Timezones, s)
		}
	}

	if raw, ok := in["languages"].([]interface{}); ok {
		patch.Languages = make([]model.Language, 0, len(raw))
		for i, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return model.CountryPatch{}, apperr.InvalidArgument("languages[%d] must be an object", i)
			}
			name, _ := m["name"].(string)
			iso1, _ := m["iso639_1"].(string)
			iso2, _ := m["iso639_2"].(string)
			patch.Languages = append(patch.Languages, model.Language{Name: name, ISO6391: iso1, ISO6392: iso2})
		}
	}

	if m, ok := in["location"].(map[string]interface{}); ok {
		lat, latOK := m["latitude"].(float64)
		lng, lngOK := m["longitude"].(float64)
		if !latOK || !lngOK {
			return model.CountryPatch{}, apperr.InvalidArgument("location needs latitude and longitude")
		}
		patch.Location = &model.Location{Latitude: lat, Longitude: lng}
	}

	return patch, nil
}

// Request is the body of a GraphQL HTTP request.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// String implements fmt.Stringer for log fields.
func (r Request) String() string {
	if r.OperationName != "" {
		return r.OperationName
	}
	q := strings.Join(strings.Fields(r.Query), " ")
	if len(q) > 80 {
		q = q[:80] + "..."
	}
	return fmt.Sprintf("%q", q)
}
