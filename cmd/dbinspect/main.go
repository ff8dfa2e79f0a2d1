package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/townsquareapp/townsquare-server/internal/domain"
)

// Inspects the archive log: per-content snapshot counts and a few
// sample records. Opens the database read-only so it is safe to run
// against a live server.
func main() {
	archivePath := os.Getenv("ARCHIVE_PATH")
	if archivePath == "" {
		archivePath = os.ExpandEnv("$HOME/TownSquare/data/archive")
	}

	opts := badger.DefaultOptions(archivePath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Archive Inspection ===")
	fmt.Println()

	total := 0
	shown := 0
	perContent := make(map[string]int)
	perCategory := make(map[domain.Category]int)

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("archive:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var rec domain.ArchiveRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}

				total++
				perContent[rec.Content.ID]++
				perCategory[rec.Content.Category]++

				if shown < 5 {
					shown++
					title := ""
					if rec.Content.Detail != nil {
						title = rec.Content.Detail.Title()
					}
					fmt.Printf("Snapshot: %s\n", rec.ArchiveID)
					fmt.Printf("  Content: %s (%s)\n", rec.Content.ID, rec.Content.Category)
					fmt.Printf("  Title: %s\n", title)
					fmt.Printf("  Status: %s / %s\n", rec.Content.Status, rec.Content.Visibility)
					fmt.Printf("  Archived: %s\n", rec.ArchivedAt.Format("2006-01-02 15:04:05"))
					fmt.Printf("  Tags: %s\n", strings.Join(rec.Content.Tags, ", "))
					fmt.Println()
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading record %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating archive: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total snapshots: %d\n", total)
	fmt.Printf("Content records archived: %d\n", len(perContent))
	for category, n := range perCategory {
		fmt.Printf("  %s: %d\n", category, n)
	}
}
