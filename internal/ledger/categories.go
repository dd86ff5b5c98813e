package ledger

import (
	"strings"

	"vydaje/internal/core"
)

// DefaultCategories returns the category set seeded into every new group.
func DefaultCategories() []core.Category {
	return []core.Category{
		{Name: "Jídlo", Icon: "🍽️"},
		{Name: "Doprava", Icon: "🚌"},
		{Name: "Ubytování", Icon: "🏠"},
		{Name: "Zábava", Icon: "🎭"},
		{Name: "Nákupy", Icon: "🛒"},
		{Name: "Ostatní", Icon: "📦"},
	}
}

// AddCategory appends a category with a unique, non-empty name and returns
// the extended slice.
func AddCategory(categories []core.Category, c core.Category) ([]core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return categories, core.MissingFieldError{Field: "category"}
	}
	for _, existing := range categories {
		if existing.Name == c.Name {
			return categories, core.ErrDuplicateCategory
		}
	}
	return append(categories, c), nil
}

// RemoveCategory removes a category by name. At least one category must
// remain. Transactions already tagged with the removed category keep their
// tag.
func RemoveCategory(categories []core.Category, name string) ([]core.Category, error) {
	if len(categories) <= 1 {
		return categories, core.ErrLastCategory
	}
	for i, c := range categories {
		if c.Name != name {
			continue
		}
		return append(categories[:i], categories[i+1:]...), nil
	}
	return categories, core.ErrUnknownCategory
}
