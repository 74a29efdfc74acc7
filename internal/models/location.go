package models

type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"min=-180,max=180"`
	Address   string  `json:"address" bson:"address"`
	City      string  `json:"city" bson:"city"`
}
