package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/infra/db"
	"mealdrop-service/internal/pkg/config"
	"mealdrop-service/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Client reads the catalog tables with a redis read-through cache in front.
// Transient failures are retried with exponential backoff; not-found is
// permanent and returned immediately. The compile path marks snapshots
// incomplete on hard failure, so retry here stays tightly bounded.
type Client struct {
	db       db.DBTX
	cache    *redis.Client
	cacheTTL time.Duration
	retry    config.CatalogConfig
}

func NewClient(dbtx db.DBTX, cache *redis.Client, cfg config.Config) *Client {
	return &Client{
		db:       dbtx,
		cache:    cache,
		cacheTTL: cfg.Redis.CacheTTL,
		retry:    cfg.Catalog,
	}
}

func (c *Client) Plan(ctx context.Context, planID uuid.UUID) (*plan.Plan, error) {
	key := "catalog:plan:" + planID.String()
	if p, ok := cacheGet[plan.Plan](ctx, c.cache, key); ok {
		return p, nil
	}

	p, err := withRetry(ctx, c.retry, func() (*plan.Plan, error) {
		return c.fetchPlan(ctx, planID)
	})
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, c.cache, key, p, c.cacheTTL)
	return p, nil
}

func (c *Client) PlanSchedule(ctx context.Context, planID uuid.UUID) ([]plan.ScheduleAssignment, error) {
	key := "catalog:schedule:" + planID.String()
	if s, ok := cacheGet[[]plan.ScheduleAssignment](ctx, c.cache, key); ok {
		return *s, nil
	}

	schedule, err := withRetry(ctx, c.retry, func() (*[]plan.ScheduleAssignment, error) {
		s, err := c.fetchSchedule(ctx, planID)
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, c.cache, key, schedule, c.cacheTTL)
	return *schedule, nil
}

func (c *Client) Meal(ctx context.Context, mealID uuid.UUID) (*plan.Meal, error) {
	key := "catalog:meal:" + mealID.String()
	if m, ok := cacheGet[plan.Meal](ctx, c.cache, key); ok {
		return m, nil
	}

	m, err := withRetry(ctx, c.retry, func() (*plan.Meal, error) {
		return c.fetchMeal(ctx, mealID)
	})
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, c.cache, key, m, c.cacheTTL)
	return m, nil
}

func (c *Client) fetchPlan(ctx context.Context, planID uuid.UUID) (*plan.Plan, error) {
	const query = `
		SELECT id, name, description, cover_image_url,
		       available_categories, delivery_days,
		       base_price_per_week::text, updated_at
		FROM meal_plans
		WHERE id = $1`

	var (
		p          plan.Plan
		categories []string
		priceText  string
	)
	err := c.db.QueryRow(ctx, query, planID).Scan(
		&p.ID, &p.Name, &p.Description, &p.CoverImageURL,
		&categories, &p.DeliveryDays, &priceText, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backoff.Permanent(errs.ErrPlanNotFound)
	}
	if err != nil {
		return nil, err
	}

	p.AvailableCategories = make([]plan.MealCategory, 0, len(categories))
	for _, raw := range categories {
		cat, err := plan.NewMealCategory(raw)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		p.AvailableCategories = append(p.AvailableCategories, cat)
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	p.BasePricePerWeek = price
	return &p, nil
}

func (c *Client) fetchSchedule(ctx context.Context, planID uuid.UUID) ([]plan.ScheduleAssignment, error) {
	const query = `
		SELECT week, day, category, meal_ids
		FROM plan_schedule
		WHERE plan_id = $1
		ORDER BY week, day`

	rows, err := c.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedule []plan.ScheduleAssignment
	for rows.Next() {
		var (
			a        plan.ScheduleAssignment
			category string
		)
		if err := rows.Scan(&a.Week, &a.Day, &category, &a.MealIDs); err != nil {
			return nil, err
		}
		cat, err := plan.NewMealCategory(category)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		a.Category = cat
		schedule = append(schedule, a)
	}
	return schedule, rows.Err()
}

func (c *Client) fetchMeal(ctx context.Context, mealID uuid.UUID) (*plan.Meal, error) {
	const query = `
		SELECT id, name, description, image_url,
		       calories, protein_grams, carbs_grams, fat_grams,
		       price::text, dietary_tags
		FROM meals
		WHERE id = $1`

	var (
		m         plan.Meal
		priceText string
	)
	err := c.db.QueryRow(ctx, query, mealID).Scan(
		&m.ID, &m.Name, &m.Description, &m.ImageURL,
		&m.Nutrition.Calories, &m.Nutrition.ProteinGrams,
		&m.Nutrition.CarbsGrams, &m.Nutrition.FatGrams,
		&priceText, &m.DietaryTags,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backoff.Permanent(errs.ErrMealNotFound)
	}
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	m.Price = price
	return &m, nil
}

func withRetry[T any](ctx context.Context, cfg config.CatalogConfig, fn func() (*T, error)) (*T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.RetryInitialInterval
	bo.MaxElapsedTime = cfg.RetryMaxElapsedTime

	var out *T
	op := func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, errs.Mark(err, errs.ErrCatalogUnavailable)
	}
	return out, nil
}

func cacheGet[T any](ctx context.Context, cache *redis.Client, key string) (*T, bool) {
	if cache == nil {
		return nil, false
	}
	raw, err := cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// cacheSet is best-effort; a cache write failure must never fail a compile.
func cacheSet(ctx context.Context, cache *redis.Client, key string, v any, ttl time.Duration) {
	if cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}
