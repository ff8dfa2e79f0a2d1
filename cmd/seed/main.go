// Package main provides a tool to seed the database with sample community content.
//
// Creates a handful of groups, events, and paid listings through the real
// service layer, so pathnames, tag counters, and lifecycle state all land
// the way production writes would.
//
// Usage:
//
//	DATA_PATH=~/TownSquare/data go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/service"
	"github.com/townsquareapp/townsquare-server/internal/store/archive"
	"github.com/townsquareapp/townsquare-server/internal/store/sqlite"
	"github.com/townsquareapp/townsquare-server/internal/validation"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/TownSquare/data")
	}
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	fmt.Printf("Seeding database at: %s\n", dataPath)

	logger := slog.New(slog.DiscardHandler)

	db, err := sqlite.Open(filepath.Join(dataPath, "townsquare.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	arch, err := archive.Open(filepath.Join(dataPath, "archive"), logger)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer arch.Close()

	tags := service.NewTagService(db, logger, 0)
	lifecycle := service.NewLifecycleService(db, arch, logger)
	content := service.NewContentService(db, arch, tags, lifecycle, validation.New(), logger)

	ctx := context.Background()
	nextWeek := time.Now().AddDate(0, 0, 7).Truncate(time.Hour)

	inputs := []domain.Input{
		&domain.GroupInput{
			Title:       "Fremont Gardeners",
			Description: "Backyard and community plot gardeners sharing tips and seedlings.",
			Tags:        []string{"Gardening", "Outdoors"},
		},
		&domain.GroupInput{
			Title:       "Morning Run Club",
			Description: "Easy-pace group runs three mornings a week.",
			Tags:        []string{"Running", "Fitness"},
		},
		&domain.EventInput{
			Title:       "Summer Block Party",
			Description: "Food, music, and games on Main Street.",
			Tags:        []string{"Music", "Food"},
			Days: []domain.DayEvent{
				{StartTime: nextWeek},
			},
		},
		&domain.BusinessInput{
			Title:       "Corner Bakery",
			Description: "Fresh bread and pastries, open daily.",
			Tags:        []string{"Food", "Bakery"},
			Address:     "123 Main St",
			PhoneNumber: "555-0101",
			Email:       "hello@cornerbakery.example",
		},
	}

	for _, in := range inputs {
		c, err := content.Create(ctx, "user-seed", in)
		if err != nil {
			log.Fatalf("Failed to create %s %q: %v", in.Category(), in.ContentTitle(), err)
		}
		fmt.Printf("  Created %s %s (%s / %s)\n", c.Category, c.Pathname, c.Status, c.Visibility)
	}

	top, err := tags.TopTags(ctx, 10)
	if err != nil {
		log.Fatalf("Failed to list top tags: %v", err)
	}
	fmt.Println("\nTop tags:")
	for _, t := range top {
		fmt.Printf("  %-20s %d\n", t.DisplayName, t.Count)
	}
}
