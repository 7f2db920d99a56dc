package domain

// LabelKind distinguishes the two per-user label collections that recipes reference.
// Tags and ingredients share one shape and one set of rules; only their limits differ.
type LabelKind string

const (
	// LabelTag categorizes recipes ("Vegan", "Quick").
	LabelTag LabelKind = "tag"
	// LabelIngredient lists what goes into a recipe.
	LabelIngredient LabelKind = "ingredient"
)

// Maximum name lengths per label kind.
const (
	MaxTagNameLength        = 55
	MaxIngredientNameLength = 150
)

// Valid reports whether k is a known label kind.
func (k LabelKind) Valid() bool {
	return k == LabelTag || k == LabelIngredient
}

// MaxNameLength returns the longest name accepted for this kind.
func (k LabelKind) MaxNameLength() int {
	if k == LabelIngredient {
		return MaxIngredientNameLength
	}
	return MaxTagNameLength
}

// IDPrefix returns the prefix used for identifiers of this kind.
func (k LabelKind) IDPrefix() string {
	if k == LabelIngredient {
		return "ing"
	}
	return "tag"
}

// Plural returns the collection name ("tags", "ingredients").
func (k LabelKind) Plural() string {
	return string(k) + "s"
}

// Label is a named tag or ingredient owned by a single user.
// Names are unique per (user, kind).
type Label struct {
	Entity
	Kind   LabelKind `json:"-"`
	UserID string    `json:"-"`
	Name   string    `json:"name"`
}
