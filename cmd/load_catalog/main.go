// Command load_catalog imports ingredients and tags from CSV files. Rows are
// upserted, so running it twice is harmless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	ingredientsPath := flag.String("ingredients", "", "CSV of name,measurement_unit rows")
	tagsPath := flag.String("tags", "", "CSV of name,slug rows")
	flag.Parse()

	if *ingredientsPath == "" && *tagsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: load_catalog -ingredients data/ingredients.csv -tags data/tags.csv")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)

	if *ingredientsPath != "" {
		f, err := os.Open(*ingredientsPath)
		if err != nil {
			log.Fatal("Failed to open ingredients file", "path", *ingredientsPath, "error", err)
		}
		items, err := service.ParseIngredientsCSV(f)
		f.Close()
		if err != nil {
			log.Fatal("Failed to parse ingredients", "error", err)
		}
		n, err := catalog.UpsertIngredients(ctx, items)
		if err != nil {
			log.Fatal("Failed to load ingredients", "error", err)
		}
		log.Info("Loaded ingredients", "rows", len(items), "affected", n)
	}

	if *tagsPath != "" {
		f, err := os.Open(*tagsPath)
		if err != nil {
			log.Fatal("Failed to open tags file", "path", *tagsPath, "error", err)
		}
		tags, err := service.ParseTagsCSV(f)
		f.Close()
		if err != nil {
			log.Fatal("Failed to parse tags", "error", err)
		}
		n, err := catalog.UpsertTags(ctx, tags)
		if err != nil {
			log.Fatal("Failed to load tags", "error", err)
		}
		log.Info("Loaded tags", "rows", len(tags), "affected", n)
	}
}
