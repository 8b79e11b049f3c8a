package domain

// Category classifies an event. Values are matched exactly, including case.
type Category string

const (
	CategoryWorkshop     Category = "workshop"
	CategoryCultural     Category = "cultural"
	CategoryTechnical    Category = "technical"
	CategoryClubActivity Category = "club activity"
	CategorySeminar      Category = "seminar"
	CategorySports       Category = "sports"
	CategoryOther        Category = "other"
)

var categories = []Category{
	CategoryWorkshop,
	CategoryCultural,
	CategoryTechnical,
	CategoryClubActivity,
	CategorySeminar,
	CategorySports,
	CategoryOther,
}

// Categories returns the accepted categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory returns ErrInvalidCategory for anything outside the enum.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}
