package model

// Language is embedded in a Country and has no identity of its own.
type Language struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	ISO6391 string `json:"iso639_1" bson:"iso639_1" validate:"required,len=2"`
	ISO6392 string `json:"iso639_2" bson:"iso639_2" validate:"required,len=3"`
}
