package plan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCategory = errors.New("unknown meal category")
	ErrInvalidDay      = errors.New("day of week must be between 1 and 7")
	ErrInvalidWeek     = errors.New("week number must be positive")
)

// Plan is the catalog's versioned source record. The core only ever reads it;
// subscriptions freeze their own copy at compile time.
type Plan struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	CoverImageURL       string
	AvailableCategories []MealCategory
	DeliveryDays        []int // ascending, ISO-ish: 1=Mon .. 7=Sun
	BasePricePerWeek    decimal.Decimal
	UpdatedAt           time.Time
}

// HasCategory reports whether the plan offers the given category.
func (p *Plan) HasCategory(c MealCategory) bool {
	for _, ac := range p.AvailableCategories {
		if ac == c {
			return true
		}
	}
	return false
}

// ScheduleAssignment maps one (week, day, category) cell of the plan template
// to the meals served in it.
type ScheduleAssignment struct {
	Week     int
	Day      int
	Category MealCategory
	MealIDs  []uuid.UUID
}

func (a ScheduleAssignment) Validate() error {
	if a.Week < 1 {
		return ErrInvalidWeek
	}
	if a.Day < 1 || a.Day > 7 {
		return ErrInvalidDay
	}
	return a.Category.Validate()
}

// Meal carries the catalog's current nutrition and pricing for one dish.
type Meal struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Nutrition   Nutrition
	Price       decimal.Decimal
	DietaryTags []string
}

type Nutrition struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatGrams     float64 `json:"fat_grams"`
}

func (n Nutrition) Add(other Nutrition) Nutrition {
	return Nutrition{
		Calories:     n.Calories + other.Calories,
		ProteinGrams: n.ProteinGrams + other.ProteinGrams,
		CarbsGrams:   n.CarbsGrams + other.CarbsGrams,
		FatGrams:     n.FatGrams + other.FatGrams,
	}
}

func (n Nutrition) DivideBy(days int) Nutrition {
	if days <= 0 {
		return Nutrition{}
	}
	d := float64(days)
	return Nutrition{
		Calories:     n.Calories / d,
		ProteinGrams: n.ProteinGrams / d,
		CarbsGrams:   n.CarbsGrams / d,
		FatGrams:     n.FatGrams / d,
	}
}
