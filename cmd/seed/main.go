package main

import (
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
)

type product struct {
	name        string
	cost        string
	description string
}

type category struct {
	name     string
	products []product
}

// Demo menu for local development and manual testing.
var menu = []category{
	{"Soups", []product{
		{"Borscht", "250.00", "Beetroot, potato, cabbage, beef, tomato paste"},
		{"Solyanka", "300.00", "Two kinds of sausage, olives, beef, pickled cucumbers"},
		{"Shchi", "225.00", "Cabbage, carrot, beef broth"},
	}},
	{"Mains", []product{
		{"Ribeye steak", "1250.00", "Medium-cooked ribeye"},
		{"Cutlet with mashed potatoes", "360.00", "Pork and beef mince, potato, milk, butter"},
		{"Bavarian sausages with sauerkraut", "400.00", "Straight from Germany"},
	}},
	{"Desserts", []product{
		{"Honey cake", "150.00", "150 grams"},
		{"Potato pastry", "130.00", "Biscuit, chocolate, condensed milk"},
		{"Brownie", "140.00", "Belgian chocolate, flour"},
	}},
	{"Drinks", []product{
		{"Tea", "100.00", "250 ml"},
		{"Coffee", "110.00", "Americano, 250 ml"},
		{"Lemonade", "150.00", "500 ml"},
	}},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.Begin()
	if err != nil {
		logger.Error("failed to begin transaction", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tx.Rollback() }()

	for _, cat := range menu {
		var typeID int64
		err := tx.QueryRow(`
			INSERT INTO product_types (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET updated_at = now()
			RETURNING id
		`, cat.name).Scan(&typeID)
		if err != nil {
			logger.Error("failed to seed category", "error", err, "category", cat.name)
			os.Exit(1)
		}

		for _, p := range cat.products {
			_, err := tx.Exec(`
				INSERT INTO products (name, cost, product_type_id, description)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (name) DO NOTHING
			`, p.name, p.cost, typeID, p.description)
			if err != nil {
				logger.Error("failed to seed product", "error", err, "product", p.name)
				os.Exit(1)
			}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO users (id, name, description)
		VALUES (12345, 'Test User', '')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		logger.Error("failed to seed test user", "error", err)
		os.Exit(1)
	}

	_, err = tx.Exec(`
		INSERT INTO promocodes (code, discount)
		VALUES ('WELCOME10', 10.00)
		ON CONFLICT (code) DO NOTHING
	`)
	if err != nil {
		logger.Error("failed to seed promocode", "error", err)
		os.Exit(1)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit seed data", "error", err)
		os.Exit(1)
	}

	logger.Info("seed data loaded")
}
