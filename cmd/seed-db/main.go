package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/customer"
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/internal/storage/postgres"
)

type menuItemJSON struct {
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

type customerJSON struct {
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

func main() {
	var (
		databaseURL   string
		menuFile      string
		customersFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu items JSON file")
	flag.StringVar(&customersFile, "customers-file", "db/seed/customers.json", "path to customers JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, customersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile, customersFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, postgres.NewMenuRepository(pool), menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if err := seedCustomers(ctx, postgres.NewCustomerRepository(pool), customersFile); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	return nil
}

func seedMenu(ctx context.Context, repo *postgres.MenuRepository, menuFile string) error {
	slog.Info("reading menu file", slog.String("path", menuFile))

	data, err := os.ReadFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	var items []menuItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	for _, it := range items {
		item := menu.Item{
			SKU:               it.SKU,
			Name:              it.Name,
			Category:          it.Category,
			Price:             it.Price,
			PurchasePrice:     it.PurchasePrice,
			StockQuantity:     it.StockQuantity,
			LowStockThreshold: it.LowStockThreshold,
			Availability:      menu.Available,
		}
		if item.StockQuantity <= 0 {
			item.Availability = menu.OutOfStock
		}

		if err := repo.Upsert(ctx, &item); err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.SKU)
		}

		slog.Info("upserted menu item",
			slog.Int64("id", item.ID),
			slog.String("sku", item.SKU),
			slog.String("name", item.Name),
		)
	}

	return nil
}

func seedCustomers(ctx context.Context, repo *postgres.CustomerRepository, customersFile string) error {
	slog.Info("reading customers file", slog.String("path", customersFile))

	data, err := os.ReadFile(customersFile)
	if err != nil {
		return errors.Wrap(err, "read customers file")
	}

	var entries []customerJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse customers JSON")
	}

	slog.Info("upserting customers", slog.Int("count", len(entries)))

	for _, e := range entries {
		c := customer.Customer{
			Name:          e.Name,
			Phone:         e.Phone,
			CreditBalance: e.CreditBalance,
		}

		if err := repo.Upsert(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert customer %s", e.Phone)
		}

		slog.Info("upserted customer",
			slog.Int64("id", c.ID),
			slog.String("name", c.Name),
		)
	}

	return nil
}
