//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fixed catalog ids so tests can reference the seeded plan after a reset.
var (
	SeedPlanID      = uuid.MustParse("6f9bafb6-9c14-4a7d-9e58-2c9c8a1f0001")
	SeedBreakfastID = uuid.MustParse("6f9bafb6-9c14-4a7d-9e58-2c9c8a1f0002")
	SeedLunchID     = uuid.MustParse("6f9bafb6-9c14-4a7d-9e58-2c9c8a1f0003")
)

// SeedReferenceData loads the catalog tables with the standard two-category
// plan: breakfast and lunch on days 1 and 3 over a two-week rotation.
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO meal_plans (id, name, description, available_categories, delivery_days, base_price_per_week)
		VALUES ($1, 'Balanced Week', 'Two meals a day, twice a week',
		        ARRAY['breakfast','lunch'], ARRAY[1,3], 100.00)
		ON CONFLICT (id) DO NOTHING;
	`, SeedPlanID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO meals (id, name, description, calories, protein_grams, carbs_grams, fat_grams, price, dietary_tags)
		VALUES
		    ($1, 'Oat Bowl', 'Oats, berries, almond butter', 400, 20, 55, 12, 8.50, ARRAY['vegetarian']),
		    ($2, 'Chicken Quinoa Salad', 'Grilled chicken, quinoa, greens', 600, 30, 45, 22, 12.00, ARRAY['gluten-free'])
		ON CONFLICT (id) DO NOTHING;
	`, SeedBreakfastID, SeedLunchID)
	if err != nil {
		return err
	}

	for week := 1; week <= 2; week++ {
		for _, day := range []int{1, 3} {
			_, err = pool.Exec(ctx, `
				INSERT INTO plan_schedule (plan_id, week, day, category, meal_ids)
				VALUES ($1, $2, $3, 'breakfast', ARRAY[$4::uuid]),
				       ($1, $2, $3, 'lunch', ARRAY[$5::uuid])
				ON CONFLICT (plan_id, week, day, category) DO NOTHING;
			`, SeedPlanID, week, day, SeedBreakfastID, SeedLunchID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// ResetDB truncates every table and reseeds the catalog reference data.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
