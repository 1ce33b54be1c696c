package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/gkobilansky/janus-goat/internal/variants"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// parseVariantFlag parses NAME:IMPRESSIONS:CONVERSIONS:REVENUE.
func parseVariantFlag(value string) (variants.Template, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return variants.Template{}, fmt.Errorf("invalid variant '%s': expected NAME:IMPRESSIONS:CONVERSIONS:REVENUE", value)
	}

	impressions, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return variants.Template{}, fmt.Errorf("invalid impressions in '%s': %w", value, err)
	}
	conversions, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return variants.Template{}, fmt.Errorf("invalid conversions in '%s': %w", value, err)
	}
	revenue, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return variants.Template{}, fmt.Errorf("invalid revenue in '%s': %w", value, err)
	}

	return variants.Template{
		Name:        parts[0],
		Impressions: impressions,
		Conversions: conversions,
		Revenue:     revenue,
	}, nil
}
