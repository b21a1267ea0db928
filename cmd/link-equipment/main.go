package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/JustinWhittecar/critslots/internal/config"
	"github.com/JustinWhittecar/critslots/internal/db"
	"github.com/JustinWhittecar/critslots/internal/logging"
)

// link-equipment backfills variant_placements.equipment_id for placements
// ingested before the catalog knew their names.
func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	dsn := flag.String("db", "", "Postgres connection string (default from config ingest.dsn)")
	catalogPath := flag.String("catalog", "", "SQLite equipment catalog (default from config catalog.path)")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup(config.GetString("logLevel"), config.GetBool("logPretty"))
	if *dsn == "" {
		*dsn = config.GetString("ingest.dsn")
	}
	if *catalogPath == "" {
		*catalogPath = config.GetString("catalog.path")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, *dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("DB")
	}
	defer pool.Close()
	store := db.NewStore(pool)

	sqlDB, err := db.ConnectSQLite(*catalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Catalog")
	}
	defer sqlDB.Close()
	catalog := &db.Catalog{DB: sqlDB}

	counts, err := store.UnlinkedNames(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Query placements")
	}
	fmt.Printf("Unlinked placement names: %d\n", len(counts))

	var linked int64
	unmatched := map[string]int{}
	for name, n := range counts {
		e, ok, err := catalog.Lookup(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("name", name).Msg("Lookup")
			continue
		}
		if !ok {
			unmatched[name] = n
			continue
		}
		rows, err := store.LinkName(ctx, name, e.ID)
		if err != nil {
			log.Error().Err(err).Msg("Link")
			continue
		}
		linked += rows
	}

	fmt.Printf("Linked %d placements\n", linked)

	if len(unmatched) > 0 {
		fmt.Printf("\nUnmatched names (%d unique):\n", len(unmatched))
		names := make([]string, 0, len(unmatched))
		for k := range unmatched {
			names = append(names, k)
		}
		sort.Slice(names, func(i, j int) bool {
			if unmatched[names[i]] != unmatched[names[j]] {
				return unmatched[names[i]] > unmatched[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			if unmatched[name] >= 3 {
				fmt.Printf("  %4d  %s\n", unmatched[name], name)
			}
		}
	}
}
