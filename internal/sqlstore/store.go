// Package sqlstore is a database/sql recipe provider and snapshot store
// over SQLite or Postgres. The schema is managed with goose.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.RecipeProvider   = (*Store)(nil)
	_ domain.IngredientLister = (*Store)(nil)
	_ domain.IngredientGetter = (*Store)(nil)
	_ domain.PriceWriter      = (*Store)(nil)
	_ domain.SnapshotStore    = (*Store)(nil)
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store reads and writes recipes, ingredients and cost snapshots.
type Store struct {
	db     *sql.DB
	driver string
	log    *logger.Logger
	now    func() time.Time
}

// Open connects to the database, applies pending migrations, and returns
// a ready store.
func Open(ctx context.Context, driver, dsn string, log *logger.Logger) (*Store, error) {
	var dialect string
	switch driver {
	case DriverSQLite:
		dialect = "sqlite3"
	case DriverPostgres:
		dialect = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(log)
	if err := goose.SetDialect(dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info("sqlstore: %s database ready", driver)
	return &Store{db: db, driver: driver, log: log, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetRecipe loads a recipe with its lines priced from the ingredients
// table.
func (s *Store) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	r := &domain.Recipe{}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, servings, prep_minutes, cook_minutes, duration_minutes
		FROM recipes WHERE id = ?`), id).
		Scan(&r.ID, &r.Name, &r.Servings, &r.PrepMinutes, &r.CookMinutes, &r.DurationMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query recipe %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT ri.ingredient_id, i.name, ri.quantity, ri.unit, i.price_per_unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ?
		ORDER BY ri.line_no`), id)
	if err != nil {
		return nil, fmt.Errorf("query ingredient lines of %s: %w", id, err)
	}
	for rows.Next() {
		var l domain.IngredientLine
		if err := rows.Scan(&l.IngredientID, &l.Name, &l.Quantity, &l.Unit, &l.PricePerUnit); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ingredient line: %w", err)
		}
		r.Ingredients = append(r.Ingredients, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT name, quantity, cost_per_unit
		FROM recipe_packaging
		WHERE recipe_id = ?
		ORDER BY line_no`), id)
	if err != nil {
		return nil, fmt.Errorf("query packaging of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.PackagingLine
		if err := rows.Scan(&p.Name, &p.Quantity, &p.CostPerUnit); err != nil {
			return nil, fmt.Errorf("scan packaging line: %w", err)
		}
		r.Packaging = append(r.Packaging, p)
	}
	return r, rows.Err()
}

// ListRecipeIDs returns every recipe id, sorted.
func (s *Store) ListRecipeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindRecipesUsingIngredient lists recipes with a line for the ingredient,
// ordered by name.
func (s *Store) FindRecipesUsingIngredient(ctx context.Context, ingredientID string) ([]domain.RecipeRef, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT DISTINCT r.id, r.name
		FROM recipes r
		JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		WHERE ri.ingredient_id = ?
		ORDER BY r.name`), ingredientID)
	if err != nil {
		return nil, fmt.Errorf("find recipes using %s: %w", ingredientID, err)
	}
	defer rows.Close()

	var out []domain.RecipeRef
	for rows.Next() {
		var ref domain.RecipeRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ListIngredients returns every ingredient ordered by id.
func (s *Store) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, unit, price_per_unit FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var out []domain.Ingredient
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.PricePerUnit); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// GetIngredient returns one ingredient.
func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	ing := &domain.Ingredient{}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, name, unit, price_per_unit FROM ingredients WHERE id = ?`), id).
		Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.PricePerUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ingredient %s: %w", id, err)
	}
	return ing, nil
}

// PutIngredient inserts or updates an ingredient.
func (s *Store) PutIngredient(ctx context.Context, ing domain.Ingredient) error {
	if ing.ID == "" {
		return domain.Invalid("id", "must not be empty")
	}
	if ing.PricePerUnit < 0 {
		return domain.Invalid("price_per_unit", "must not be negative")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO ingredients (id, name, unit, price_per_unit, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			price_per_unit = excluded.price_per_unit,
			updated_at = excluded.updated_at`),
		ing.ID, ing.Name, ing.Unit, ing.PricePerUnit, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert ingredient %s: %w", ing.ID, err)
	}
	return nil
}

// PutRecipe inserts or replaces a recipe and all of its lines. Line prices
// are not stored; they always come from the ingredients table.
func (s *Store) PutRecipe(ctx context.Context, r *domain.Recipe) error {
	if r == nil || r.ID == "" {
		return domain.Invalid("id", "must not be empty")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO recipes (id, name, servings, prep_minutes, cook_minutes, duration_minutes)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				servings = excluded.servings,
				prep_minutes = excluded.prep_minutes,
				cook_minutes = excluded.cook_minutes,
				duration_minutes = excluded.duration_minutes`),
			r.ID, r.Name, r.Servings, r.PrepMinutes, r.CookMinutes, r.DurationMinutes); err != nil {
			return fmt.Errorf("upsert recipe %s: %w", r.ID, err)
		}

		for _, table := range []string{"recipe_ingredients", "recipe_packaging"} {
			if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM `+table+` WHERE recipe_id = ?`), r.ID); err != nil {
				return fmt.Errorf("clear %s of %s: %w", table, r.ID, err)
			}
		}

		for i, l := range r.Ingredients {
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO recipe_ingredients (recipe_id, line_no, ingredient_id, quantity, unit)
				VALUES (?, ?, ?, ?, ?)`),
				r.ID, i, l.IngredientID, l.Quantity, l.Unit); err != nil {
				return fmt.Errorf("insert line %d of %s (%s): %w", i, r.ID, l.IngredientID, err)
			}
		}
		for i, p := range r.Packaging {
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO recipe_packaging (recipe_id, line_no, name, quantity, cost_per_unit)
				VALUES (?, ?, ?, ?, ?)`),
				r.ID, i, p.Name, p.Quantity, p.CostPerUnit); err != nil {
				return fmt.Errorf("insert packaging %d of %s: %w", i, r.ID, err)
			}
		}
		return nil
	})
}

// SetIngredientPrice updates an ingredient's price and returns the previous
// one.
func (s *Store) SetIngredientPrice(ctx context.Context, id string, price float64) (float64, error) {
	if price < 0 {
		return 0, domain.Invalid("price", "must not be negative, got %v", price)
	}

	var old float64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT price_per_unit FROM ingredients WHERE id = ?`), id).Scan(&old)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("query ingredient %s: %w", id, err)
		}
		_, err = tx.ExecContext(ctx, s.rebind(`UPDATE ingredients SET price_per_unit = ?, updated_at = ? WHERE id = ?`),
			price, s.now().UnixNano(), id)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Debug("sqlstore: ingredient %s price %.2f -> %.2f", id, old, price)
	return old, nil
}

// Seed upserts ingredients and then recipes.
func (s *Store) Seed(ctx context.Context, ings []domain.Ingredient, recipes []*domain.Recipe) error {
	for _, ing := range ings {
		if err := s.PutIngredient(ctx, ing); err != nil {
			return err
		}
	}
	for _, r := range recipes {
		if err := s.PutRecipe(ctx, r); err != nil {
			return err
		}
	}
	s.log.Info("sqlstore: seeded %d ingredients, %d recipes", len(ings), len(recipes))
	return nil
}

// SaveSnapshot stores a cost snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.RecipeID == "" {
		return domain.Invalid("recipe_id", "must not be empty")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO cost_snapshots (id, recipe_id, recipe_name, total_cost, cost_per_serving, taken_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		snap.ID, snap.RecipeID, snap.RecipeName, snap.TotalCost, snap.CostPerServing, snap.TakenAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert snapshot for %s: %w", snap.RecipeID, err)
	}
	return nil
}

// ListSnapshots returns up to limit snapshots of a recipe, newest first.
// limit <= 0 returns all of them.
func (s *Store) ListSnapshots(ctx context.Context, recipeID string, limit int) ([]domain.Snapshot, error) {
	query := `
		SELECT id, recipe_id, recipe_name, total_cost, cost_per_serving, taken_at
		FROM cost_snapshots
		WHERE recipe_id = ?
		ORDER BY taken_at DESC, id DESC`
	args := []any{recipeID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots of %s: %w", recipeID, err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var takenAt int64
		if err := rows.Scan(&snap.ID, &snap.RecipeID, &snap.RecipeName, &snap.TotalCost, &snap.CostPerServing, &takenAt); err != nil {
			return nil, err
		}
		snap.TakenAt = time.Unix(0, takenAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// sqliteDSN adds the connection pragmas unless the DSN sets its own, so
// every pooled connection enforces foreign keys.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
