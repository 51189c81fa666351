package main

import (
	"flag"
	"fmt"
	"os"

	"skladik/internal/config"
	"skladik/internal/models"
	"skladik/internal/store"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ItemsConfig struct {
	Items []models.Item `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	itemsPath := flag.String("items", "configs/items.yaml", "path to items.yaml")
	flag.Parse()

	data, err := os.ReadFile(*itemsPath)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	var cfg ItemsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse items: %w", err)
	}
	if len(cfg.Items) == 0 {
		return fmt.Errorf("no items in yaml")
	}

	if err = config.ValidateItems(cfg.Items); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	// Dry-run the seed so a bad file fails here rather than at startup.
	s := store.NewItemStore(nil, &logger)
	if err = s.Seed(cfg.Items); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	var total float64
	for _, it := range cfg.Items {
		total += it.Price
	}
	fmt.Printf("ok: items=%d total_price=%.2f\n", len(cfg.Items), total)
	return nil
}
