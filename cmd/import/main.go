package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rarefindshq/rarefinds-server/internal/config"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/service"
)

// Headless importer: search the remote catalog and sync the first match
// without going through the admin UI. Useful for seeding a fresh database.
//
//	go run ./cmd/import -type movie "Nova"

func main() {
	mediaType := flag.String("type", "", "restrict to movie, tv or person")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: import [-type movie|tv|person] <query>")
		os.Exit(2)
	}

	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db.InitDB(config.AppConfig.Database.Path)

	client := service.NewTMDBClientFromSettings()
	candidates, err := client.SearchMulti(query)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if *mediaType != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.MediaType == *mediaType {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		log.Fatalf("No results for %q", query)
	}

	cand := candidates[0]
	fmt.Printf("Matched: %s (%s, %s)\n", cand.DisplayName(), cand.MediaType, cand.Date())

	if !service.BeginSync(cand.DisplayName()) {
		log.Fatal("Another sync is already running")
	}
	report := service.NewSyncService(client).SyncCandidate(cand)

	fmt.Println(report.Summary())
	for _, ie := range report.ItemErrors {
		fmt.Printf("  skipped %s %q: %s\n", ie.Stage, ie.Name, ie.Err)
	}
	if !report.OK() {
		os.Exit(1)
	}
}
