package models

import "time"

type Item struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Price       float64   `yaml:"price" json:"price"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// ItemPatch carries a partial update. Nil fields are left untouched so
// callers can distinguish "not sent" from an explicit zero value.
type ItemPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// Empty reports whether the patch carries no fields at all.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil
}

// ItemFilter narrows a listing. Zero values mean "no constraint";
// price bounds are pointers so a 0 bound still filters.
type ItemFilter struct {
	Name         string
	MinPrice     *float64
	MaxPrice     *float64
	CreatedAfter time.Time
}

type ItemAggregate struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
