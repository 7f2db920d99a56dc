package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/store"
)

func labelNames(labels []*domain.Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateAndGetRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	r := makeTestRecipe(u.ID, "Pad Thai")
	r.Description = "Noodles"
	r.Link = "https://example.com/pad-thai"
	assoc := store.Associations{
		domain.LabelTag:        {"Thai", "Dinner"},
		domain.LabelIngredient: {"Noodles", "Peanuts"},
	}
	if err := s.CreateRecipe(ctx, r, assoc); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if got := labelNames(r.Tags); !equalStrings(got, []string{"Dinner", "Thai"}) {
		t.Errorf("tags after create: %v", got)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Pad Thai" || got.Description != "Noodles" || got.Link != r.Link {
		t.Errorf("scalars did not round-trip: %+v", got)
	}
	if got.TimeMinutes != 10 || got.Price != 550 {
		t.Errorf("numbers did not round-trip: time=%d price=%d", got.TimeMinutes, got.Price)
	}
	if names := labelNames(got.Ingredients); !equalStrings(names, []string{"Noodles", "Peanuts"}) {
		t.Errorf("ingredients: %v", names)
	}
	if got.HasImage() {
		t.Error("new recipe should have no image")
	}
}

func TestCreateRecipe_DuplicateNamesResolveOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	r := makeTestRecipe(u.ID, "Curry")
	if err := s.CreateRecipe(ctx, r, store.Associations{domain.LabelTag: {"Thai", "Thai"}}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if len(r.Tags) != 1 {
		t.Fatalf("expected one tag, got %d", len(r.Tags))
	}

	tags, err := s.ListLabels(ctx, domain.LabelTag, u.ID, store.LabelFilter{})
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected one tag row, got %d", len(tags))
	}
}

func TestCreateRecipe_ReusesExistingLabel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	existing := makeTestLabel(domain.LabelTag, u.ID, "Breakfast")
	if err := s.CreateLabel(ctx, existing); err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}

	r := makeTestRecipe(u.ID, "Pancakes")
	if err := s.CreateRecipe(ctx, r, store.Associations{domain.LabelTag: {"Breakfast"}}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if r.Tags[0].ID != existing.ID {
		t.Errorf("expected existing tag %q, got %q", existing.ID, r.Tags[0].ID)
	}
}

func TestCreateRecipe_RollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Unknown owner violates the users foreign key.
	r := makeTestRecipe("no-such-user", "Ghost")
	if err := s.CreateRecipe(ctx, r, store.Associations{domain.LabelTag: {"Boo"}}); err == nil {
		t.Fatal("expected foreign key failure")
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no recipe rows, got %d", n)
	}
}

func TestUpdateRecipe_AssociationSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	r := makeTestRecipe(u.ID, "Stew")
	err := s.CreateRecipe(ctx, r, store.Associations{
		domain.LabelTag:        {"Winter"},
		domain.LabelIngredient: {"Beef", "Carrot"},
	})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Absent key: untouched.
	r.Title = "Beef Stew"
	r.Touch()
	if err := s.UpdateRecipe(ctx, r, store.Associations{}); err != nil {
		t.Fatalf("UpdateRecipe absent: %v", err)
	}
	if names := labelNames(r.Tags); !equalStrings(names, []string{"Winter"}) {
		t.Errorf("absent tags changed: %v", names)
	}

	// Non-empty list: replaced.
	if err := s.UpdateRecipe(ctx, r, store.Associations{domain.LabelTag: {"Hearty"}}); err != nil {
		t.Fatalf("UpdateRecipe replace: %v", err)
	}
	if names := labelNames(r.Tags); !equalStrings(names, []string{"Hearty"}) {
		t.Errorf("replaced tags: %v", names)
	}
	if names := labelNames(r.Ingredients); !equalStrings(names, []string{"Beef", "Carrot"}) {
		t.Errorf("ingredients should be untouched: %v", names)
	}

	// Empty list: cleared, labels survive.
	if err := s.UpdateRecipe(ctx, r, store.Associations{domain.LabelIngredient: {}}); err != nil {
		t.Fatalf("UpdateRecipe clear: %v", err)
	}
	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Beef Stew" {
		t.Errorf("Title: got %q", got.Title)
	}
	if len(got.Ingredients) != 0 {
		t.Errorf("expected ingredients cleared, got %v", labelNames(got.Ingredients))
	}
	ingredients, err := s.ListLabels(ctx, domain.LabelIngredient, u.ID, store.LabelFilter{})
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(ingredients) != 2 {
		t.Errorf("expected Beef and Carrot to remain listable, got %d", len(ingredients))
	}
}

func TestRecipe_ForeignOwnerIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := makeTestUser(t, s, "a@example.com")
	b := makeTestUser(t, s, "b@example.com")

	r := makeTestRecipe(a.ID, "Secret")
	if err := s.CreateRecipe(ctx, r, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if _, err := s.GetRecipe(ctx, b.ID, r.ID); !store.IsNotFound(err) {
		t.Errorf("GetRecipe: expected not found, got %v", err)
	}

	hijack := *r
	hijack.UserID = b.ID
	if err := s.UpdateRecipe(ctx, &hijack, nil); !store.IsNotFound(err) {
		t.Errorf("UpdateRecipe: expected not found, got %v", err)
	}
	if err := s.DeleteRecipe(ctx, b.ID, r.ID); !store.IsNotFound(err) {
		t.Errorf("DeleteRecipe: expected not found, got %v", err)
	}
	if err := s.SetRecipeImage(ctx, b.ID, r.ID, "recipe/x.png", ""); !store.IsNotFound(err) {
		t.Errorf("SetRecipeImage: expected not found, got %v", err)
	}

	list, err := s.ListRecipes(ctx, b.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("user b should see nothing, got %d", len(list))
	}
}

func TestListRecipes_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range []string{"First", "Second", "Third"} {
		r := makeTestRecipe(u.ID, title)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		r.UpdatedAt = r.CreatedAt
		if err := s.CreateRecipe(ctx, r, nil); err != nil {
			t.Fatalf("CreateRecipe: %v", err)
		}
	}

	list, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	var titles []string
	for _, r := range list {
		titles = append(titles, r.Title)
	}
	if !equalStrings(titles, []string{"Third", "Second", "First"}) {
		t.Errorf("order: %v", titles)
	}
}

func TestListRecipes_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	mk := func(title string, tags, ingredients []string) *domain.Recipe {
		r := makeTestRecipe(u.ID, title)
		err := s.CreateRecipe(ctx, r, store.Associations{
			domain.LabelTag:        tags,
			domain.LabelIngredient: ingredients,
		})
		if err != nil {
			t.Fatalf("CreateRecipe %s: %v", title, err)
		}
		return r
	}

	curry := mk("Curry", []string{"Vegan", "Spicy"}, []string{"Rice"})
	mk("Salad", []string{"Vegan"}, []string{"Lettuce"})
	steak := mk("Steak", []string{"Dinner"}, []string{"Beef"})

	tagID := func(r *domain.Recipe, name string) string {
		for _, l := range r.Tags {
			if l.Name == name {
				return l.ID
			}
		}
		t.Fatalf("tag %s not on %s", name, r.Title)
		return ""
	}
	vegan := tagID(curry, "Vegan")
	spicy := tagID(curry, "Spicy")
	dinner := tagID(steak, "Dinner")
	rice := curry.Ingredients[0].ID

	titles := func(f store.RecipeFilter) map[string]bool {
		list, err := s.ListRecipes(ctx, u.ID, f)
		if err != nil {
			t.Fatalf("ListRecipes: %v", err)
		}
		out := map[string]bool{}
		for _, r := range list {
			if out[r.Title] {
				t.Errorf("duplicate recipe %s in results", r.Title)
			}
			out[r.Title] = true
		}
		return out
	}

	// Both vegan and spicy match curry; it must appear once.
	got := titles(store.RecipeFilter{TagIDs: []string{vegan, spicy}})
	if len(got) != 2 || !got["Curry"] || !got["Salad"] {
		t.Errorf("OR within tags: %v", got)
	}

	got = titles(store.RecipeFilter{TagIDs: []string{vegan, dinner}})
	if len(got) != 3 {
		t.Errorf("vegan OR dinner: %v", got)
	}

	got = titles(store.RecipeFilter{TagIDs: []string{vegan}, IngredientIDs: []string{rice}})
	if len(got) != 1 || !got["Curry"] {
		t.Errorf("AND across dimensions: %v", got)
	}

	got = titles(store.RecipeFilter{TagIDs: []string{"tag-doesnotexistatall12"}})
	if len(got) != 0 {
		t.Errorf("unknown id should match nothing: %v", got)
	}

}

func TestDeleteRecipe_KeepsLabels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	r := makeTestRecipe(u.ID, "Toast")
	if err := s.CreateRecipe(ctx, r, store.Associations{domain.LabelIngredient: {"Bread"}}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if err := s.DeleteRecipe(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}

	if _, err := s.GetRecipe(ctx, u.ID, r.ID); !store.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	labels, err := s.ListLabels(ctx, domain.LabelIngredient, u.ID, store.LabelFilter{})
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(labels) != 1 {
		t.Errorf("expected Bread to survive, got %d labels", len(labels))
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM recipe_ingredients").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected association rows removed, got %d", n)
	}
}

func TestSetRecipeImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeTestUser(t, s, "a@example.com")

	r := makeTestRecipe(u.ID, "Pie")
	if err := s.CreateRecipe(ctx, r, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if err := s.SetRecipeImage(ctx, u.ID, r.ID, "recipe/abc.png", "LEHV6nWB2yk8"); err != nil {
		t.Fatalf("SetRecipeImage: %v", err)
	}
	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.ImageKey != "recipe/abc.png" || got.ImageBlurHash != "LEHV6nWB2yk8" {
		t.Errorf("image not stored: key=%q hash=%q", got.ImageKey, got.ImageBlurHash)
	}

	if err := s.SetRecipeImage(ctx, u.ID, r.ID, "", ""); err != nil {
		t.Fatalf("clear image: %v", err)
	}
	got, err = s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.HasImage() {
		t.Error("expected image cleared")
	}
}
