package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JustinWhittecar/critslots/internal/config"
	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/db"
	"github.com/JustinWhittecar/critslots/internal/ingestion"
	"github.com/JustinWhittecar/critslots/internal/logging"
	"github.com/JustinWhittecar/critslots/internal/models"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	dir := flag.String("dir", ".", "Path to mekfiles directory")
	dsn := flag.String("db", "", "Postgres connection string (default from config ingest.dsn)")
	catalogPath := flag.String("catalog", "", "SQLite equipment catalog used for slot counts (optional)")
	dryRun := flag.Bool("dry-run", false, "Parse only, do not insert into DB")
	verbose := flag.Bool("verbose", false, "Print each parsed mech")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup(config.GetString("logLevel"), config.GetBool("logPretty"))
	ctx := context.Background()

	var files []string
	err := filepath.Walk(*dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mtf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error walking directory")
	}

	fmt.Printf("Found %d .mtf files\n", len(files))

	var lookup ingestion.Lookup
	if *catalogPath != "" {
		sqlDB, err := db.ConnectSQLite(*catalogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Catalog open error")
		}
		defer sqlDB.Close()
		catalog := &db.Catalog{DB: sqlDB}
		lookup = func(name string) (models.Equipment, bool) {
			e, ok, err := catalog.Lookup(ctx, name)
			if err != nil {
				log.Warn().Err(err).Str("name", name).Msg("catalog lookup")
				return models.Equipment{}, false
			}
			return e, ok
		}
	}

	var store *db.Store
	if !*dryRun {
		if *dsn == "" {
			*dsn = config.GetString("ingest.dsn")
		}
		pool, err := db.Connect(ctx, *dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("DB connect error")
		}
		defer pool.Close()
		store = db.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Schema error")
		}
		log.Info().Msg("Connected to database")
	}

	var parsed, failed, inserted, conflicted int
	chassisSet := map[string]bool{}
	var errs []string

	for i, f := range files {
		data, err := ingestion.ParseMTF(f)
		if err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("  %s: %v", filepath.Base(f), err))
			continue
		}
		parsed++

		placements := ingestion.Placements(data, lookup)
		reservations := critslots.ComputeReservations(data.Engine(), data.GyroType())
		conflicts := critslots.Conflicts(placements, reservations)
		if len(conflicts) > 0 {
			conflicted++
			for _, c := range conflicts {
				log.Warn().Str("file", filepath.Base(f)).Str("equipment", c.Name).
					Str("location", string(c.Location)).Ints("slots", c.Slots).
					Msg("stock placement overlaps reserved slots")
			}
		}

		if *verbose {
			fmt.Printf("  %-40s %3dt  %-10s %-10s %2d items\n",
				data.FullName(), data.Mass, data.Engine(), data.GyroType(), len(placements))
		}

		if store != nil {
			if err := store.IngestMTF(ctx, data, placements); err != nil {
				failed++
				errs = append(errs, fmt.Sprintf("  %s: %v", filepath.Base(f), err))
				continue
			}
			inserted++
			chassisSet[data.Chassis] = true
		}

		if (i+1)%500 == 0 {
			fmt.Printf("  Progress: %d / %d files processed\n", i+1, len(files))
		}
	}

	fmt.Printf("\nResults:\n")
	if len(files) > 0 {
		fmt.Printf("  Parsed:     %d / %d (%.1f%%)\n", parsed, len(files), float64(parsed)/float64(len(files))*100)
	}
	fmt.Printf("  Failed:     %d\n", failed)
	fmt.Printf("  Conflicted: %d\n", conflicted)
	if store != nil {
		fmt.Printf("  Inserted:   %d variants across %d chassis\n", inserted, len(chassisSet))
	}

	if len(errs) > 0 {
		fmt.Printf("\nFirst %d errors:\n", min(len(errs), 20))
		for i, e := range errs {
			if i >= 20 {
				break
			}
			fmt.Println(e)
		}
	}
}
