package plan

// MealCategory identifies a slot within a delivery day. The declaration order
// below is the fixed category order used by progression and snapshot layout.
type MealCategory string

const (
	CategoryBreakfast MealCategory = "breakfast"
	CategoryLunch     MealCategory = "lunch"
	CategoryDinner    MealCategory = "dinner"
	CategorySnack     MealCategory = "snack"
)

var categoryOrder = map[MealCategory]int{
	CategoryBreakfast: 0,
	CategoryLunch:     1,
	CategoryDinner:    2,
	CategorySnack:     3,
}

func NewMealCategory(s string) (MealCategory, error) {
	c := MealCategory(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c MealCategory) Validate() error {
	if _, ok := categoryOrder[c]; !ok {
		return ErrUnknownCategory
	}
	return nil
}

func (c MealCategory) String() string {
	return string(c)
}

// OrderIndex positions the category within a day.
func (c MealCategory) OrderIndex() int {
	return categoryOrder[c]
}

// SortCategories returns the categories in canonical day order, deduplicated.
func SortCategories(cats []MealCategory) []MealCategory {
	seen := make(map[MealCategory]bool, len(cats))
	out := make([]MealCategory, 0, len(cats))
	for i := 0; i < len(categoryOrder); i++ {
		for _, c := range cats {
			if c.OrderIndex() == i && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
