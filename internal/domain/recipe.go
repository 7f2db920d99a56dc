package domain

import (
	"errors"
	"fmt"
	"math"
)

// Recipe field limits.
const (
	MaxRecipeTitleLength = 255
	MaxRecipeLinkLength  = 255
	MaxTimeMinutes       = 32767
	MaxPriceCents        = 99999
)

// Recipe is the aggregate root: scalar fields plus the sets of tags and
// ingredients it references. Tags and Ingredients are always owned by UserID.
type Recipe struct {
	Entity
	UserID        string   `json:"-"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	TimeMinutes   int      `json:"time_minutes"`
	Price         Price    `json:"price"`
	Link          string   `json:"link"`
	ImageKey      string   `json:"-"`
	ImageBlurHash string   `json:"image_blurhash,omitempty"`
	Tags          []*Label `json:"tags"`
	Ingredients   []*Label `json:"ingredients"`
}

// HasImage reports whether an image is attached.
func (r *Recipe) HasImage() bool {
	return r.ImageKey != ""
}

// Labels returns the association set of the given kind.
func (r *Recipe) Labels(kind LabelKind) []*Label {
	if kind == LabelIngredient {
		return r.Ingredients
	}
	return r.Tags
}

// SetLabels replaces the association set of the given kind.
func (r *Recipe) SetLabels(kind LabelKind, labels []*Label) {
	if kind == LabelIngredient {
		r.Ingredients = labels
		return
	}
	r.Tags = labels
}

// Price is a non-negative amount with two decimal places, stored as cents.
type Price int64

// Price conversion errors.
var (
	ErrPriceNegative  = errors.New("must not be negative")
	ErrPriceTooLarge  = errors.New("must be less than 1000")
	ErrPricePrecision = errors.New("must have at most 2 decimal places")
)

// PriceFromFloat converts a decimal amount such as 5.5 into a Price.
func PriceFromFloat(f float64) (Price, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrPricePrecision
	}
	if f < 0 {
		return 0, ErrPriceNegative
	}
	cents := math.Round(f * 100)
	if math.Abs(f*100-cents) > 1e-6 {
		return 0, ErrPricePrecision
	}
	if cents > MaxPriceCents {
		return 0, ErrPriceTooLarge
	}
	return Price(cents), nil
}

// Float returns the amount as a decimal number.
func (p Price) Float() float64 {
	return float64(p) / 100
}

// String formats the amount with exactly two decimals.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}
