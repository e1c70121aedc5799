package builder

import (
	"context"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionBuilder assembles a subscription plus, on demand, the snapshot
// compiled from the standard catalog fixture.
type SubscriptionBuilder struct {
	customerID uuid.UUID
	startDate  time.Time
	weeks      int
	categories []plan.MealCategory
	window     subscription.DeliveryWindow
	discount   *decimal.Decimal
	now        time.Time
	fixture    CatalogFixture
}

func NewSubscriptionBuilder() *SubscriptionBuilder {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &SubscriptionBuilder{
		customerID: uuid.New(),
		startDate:  start,
		weeks:      2,
		categories: []plan.MealCategory{plan.CategoryBreakfast, plan.CategoryLunch},
		window:     subscription.WindowMorning,
		now:        start,
		fixture:    NewCatalogBuilder().Build(),
	}
}

func (b *SubscriptionBuilder) WithStartDate(t time.Time) *SubscriptionBuilder {
	b.startDate = t
	return b
}

func (b *SubscriptionBuilder) WithWeeks(weeks int) *SubscriptionBuilder {
	b.weeks = weeks
	return b
}

func (b *SubscriptionBuilder) WithCategories(cats ...plan.MealCategory) *SubscriptionBuilder {
	b.categories = cats
	return b
}

func (b *SubscriptionBuilder) WithWindow(w subscription.DeliveryWindow) *SubscriptionBuilder {
	b.window = w
	return b
}

func (b *SubscriptionBuilder) WithDiscount(d decimal.Decimal) *SubscriptionBuilder {
	b.discount = &d
	return b
}

func (b *SubscriptionBuilder) WithNow(t time.Time) *SubscriptionBuilder {
	b.now = t
	return b
}

func (b *SubscriptionBuilder) WithFixture(f CatalogFixture) *SubscriptionBuilder {
	b.fixture = f
	return b
}

func (b *SubscriptionBuilder) Fixture() CatalogFixture {
	return b.fixture
}

func (b *SubscriptionBuilder) BuildDomain() (*subscription.Subscription, error) {
	return subscription.NewSubscription(
		b.customerID, b.fixture.PlanID, b.startDate, b.weeks, b.categories, b.window, b.discount, b.now,
	)
}

// BuildWithSnapshot compiles the snapshot against the fixture catalog so
// tests exercise real compiler output rather than hand-built slots.
func (b *SubscriptionBuilder) BuildWithSnapshot() (*subscription.Subscription, *snapshot.Snapshot, error) {
	sub, err := b.BuildDomain()
	if err != nil {
		return nil, nil, err
	}

	compiler := snapshot.NewCompiler(b.fixture.Catalog, clock.NewMockClock(b.now))
	snap, err := compiler.Compile(context.Background(), snapshot.CompileInput{
		SubscriptionID:     sub.ID(),
		PlanID:             sub.PlanID(),
		StartDate:          sub.StartDate(),
		EndDate:            sub.EndDate(),
		DurationWeeks:      sub.DurationWeeks(),
		SelectedCategories: sub.SelectedCategories(),
		DiscountPercent:    sub.DiscountPercent(),
	})
	if err != nil {
		return nil, nil, err
	}
	return sub, snap, nil
}
