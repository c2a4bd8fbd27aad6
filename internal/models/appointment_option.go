package models

import "time"

// AppointmentOption is a treatment offered by the clinic with its daily slot catalog.
type AppointmentOption struct {
	Name      string    `yaml:"name" json:"name"`
	Price     float64   `yaml:"price" json:"price"`
	Slots     []string  `yaml:"slots" json:"slots"`
	CreatedAt time.Time `yaml:"-" json:"-"`
	UpdatedAt time.Time `yaml:"-" json:"-"`
}

// HasSlot reports whether slot is part of the option's catalog.
func (o *AppointmentOption) HasSlot(slot string) bool {
	for _, s := range o.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Availability is the remaining slot list of one treatment on a date.
type Availability struct {
	Treatment string   `json:"name"`
	Price     float64  `json:"price"`
	Slots     []string `json:"slots"`
}
