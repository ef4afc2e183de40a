package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"country-atlas-service/internal/apperr"
)

type Country struct {
	ID         string     `json:"id"`
	Name       string     `json:"name" validate:"required"`
	Capital    string     `json:"capital" validate:"required"`
	Region     string     `json:"region" validate:"required"`
	Subregion  string     `json:"subregion" validate:"required"`
	Population int        `json:"population" validate:"gte=0"`
	Area       float64    `json:"area" validate:"gte=0"`
	NativeName string     `json:"native_name" validate:"required"`
	Currency   string     `json:"currency" validate:"required"`
	Languages  []Language `json:"languages" validate:"required,min=1,dive"`
	Timezones  []string   `json:"timezones" validate:"required,dive,required"`
	Location   *Location  `json:"location" validate:"required"`
}

// Location is a WGS84 point in degrees.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that every field is present and in range. Violations are
// reported as apperr.ErrInvalidArgument listing the offending fields.
func (c Country) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.InvalidArgument("country: %v", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Country.")
		if fe.Param() != "" {
			problems = append(problems, field+" failed "+fe.Tag()+"="+fe.Param())
		} else {
			problems = append(problems, field+" failed "+fe.Tag())
		}
	}
	return apperr.InvalidArgument("country: %s", strings.Join(problems, "; "))
}

// Clone returns a copy that shares no slices or location with c.
func (c Country) Clone() Country {
	out := c
	if c.Location != nil {
		loc := *c.Location
		out.Location = &loc
	}
	if c.Languages != nil {
		out.Languages = append([]Language(nil), c.Languages...)
	}
	if c.Timezones != nil {
		out.Timezones = append([]string(nil), c.Timezones...)
	}
	return out
}

// CountryPatch holds the fields of an edit. Nil fields are left unchanged.
type CountryPatch struct {
	Name       *string    `json:"name"`
	Capital    *string    `json:"capital"`
	Region     *string    `json:"region"`
	Subregion  *string    `json:"subregion"`
	Population *int       `json:"population"`
	Area       *float64   `json:"area"`
	NativeName *string    `json:"native_name"`
	Currency   *string    `json:"currency"`
	Languages  []Language `json:"languages"`
	Timezones  []string   `json:"timezones"`
	Location   *Location  `json:"location"`
}

func (p CountryPatch) IsEmpty() bool {
	return p.Name == nil && p.Capital == nil && p.Region == nil && p.Subregion == nil &&
		p.Population == nil && p.Area == nil && p.NativeName == nil && p.Currency == nil &&
		p.Languages == nil && p.Timezones == nil && p.Location == nil
}

// Apply merges the patch onto a copy of c. The id is never changed.
func (c Country) Apply(p CountryPatch) Country {
	out := c.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Capital != nil {
		out.Capital = *p.Capital
	}
	if p.Region != nil {
		out.Region = *p.Region
	}
	if p.Subregion != nil {
		out.Subregion = *p.Subregion
	}
	if p.Population != nil {
		out.Population = *p.Population
	}
	if p.Area != nil {
		out.Area = *p.Area
	}
	if p.NativeName != nil {
		out.NativeName = *p.NativeName
	}
	if p.Currency != nil {
		out.Currency = *p.Currency
	}
	if p.Languages != nil {
		out.Languages = append([]Language(nil), p.Languages...)
	}
	if p.Timezones != nil {
		out.Timezones = append([]string(nil), p.Timezones...)
	}
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	return out
}
