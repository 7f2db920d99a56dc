package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/id"
)

// LabelInput is a nested {name} object in recipe payloads.
type LabelInput struct {
	Name string `json:"name"`
}

// NormalizeName trims surrounding whitespace and converts to Unicode NFC so
// visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// checkName validates an already normalized label name.
func checkName(kind domain.LabelKind, name string) string {
	if name == "" {
		return "must not be blank"
	}
	if utf8.RuneCountInString(name) > kind.MaxNameLength() {
		return fmt.Sprintf("must not exceed %d characters", kind.MaxNameLength())
	}
	return ""
}

// normalizeLabelInputs resolves a nested name list into distinct normalized
// names in first-seen order. Problems are collected into fields under
// "<plural>[i].name".
func normalizeLabelInputs(kind domain.LabelKind, inputs []LabelInput, fields domainerrors.FieldErrors) []string {
	names := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		name := NormalizeName(in.Name)
		if problem := checkName(kind, name); problem != "" {
			fields[fmt.Sprintf("%s[%d].name", kind.Plural(), i)] = problem
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// ParseIDList splits a comma-separated query value into label IDs.
// Items are trimmed and empty items dropped; any malformed item rejects the
// whole parameter. Well-formed IDs that do not exist simply match nothing.
func ParseIDList(kind domain.LabelKind, param, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []string
	seen := map[string]bool{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !id.Valid(kind.IDPrefix(), item) {
			return nil, domainerrors.FieldInvalid(param,
				fmt.Sprintf("%q is not a valid %s id", item, kind))
		}
		if !seen[item] {
			seen[item] = true
			ids = append(ids, item)
		}
	}
	return ids, nil
}
