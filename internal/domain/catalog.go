package domain

import "fmt"

// Catalog is the ordered, read-only list of product categories.
type Catalog []ProductCategory

// Find looks up an option by category name and option id.
func (c Catalog) Find(category, optionID string) (ProductOption, error) {
	for _, pc := range c {
		if pc.Category != category {
			continue
		}

		for _, option := range pc.Options {
			if option.ID == optionID {
				return option, nil
			}
		}

		return ProductOption{}, ErrUnknownOption
	}

	return ProductOption{}, ErrUnknownCategory
}

// Categories returns the category names in catalog order.
func (c Catalog) Categories() []string {
	names := make([]string, len(c))
	for i, pc := range c {
		names[i] = pc.Category
	}

	return names
}

// Missing lists the catalog categories that have no selection yet.
func (c Catalog) Missing(selections Selections) []string {
	var missing []string

	for _, pc := range c {
		if _, ok := selections[pc.Category]; !ok {
			missing = append(missing, pc.Category)
		}
	}

	return missing
}

// IsComplete reports whether every category in the catalog has a selection.
func (c Catalog) IsComplete(selections Selections) bool {
	return len(c.Missing(selections)) == 0
}

// IncompleteConfigurationError lists the categories still waiting for a selection.
type IncompleteConfigurationError struct {
	Missing []string
}

func (e *IncompleteConfigurationError) Error() string {
	n := len(e.Missing)
	if n == 1 {
		return "select 1 more component"
	}

	return fmt.Sprintf("select %d more components", n)
}

func (e *IncompleteConfigurationError) Is(target error) bool {
	return target == ErrIncompleteConfiguration
}

// CheckComplete returns an *IncompleteConfigurationError when some category
// has no selection.
func (c Catalog) CheckComplete(selections Selections) error {
	missing := c.Missing(selections)
	if len(missing) > 0 {
		return &IncompleteConfigurationError{Missing: missing}
	}

	return nil
}
