package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/JustinWhittecar/critslots/internal/builds"
	"github.com/JustinWhittecar/critslots/internal/config"
	"github.com/JustinWhittecar/critslots/internal/db"
	"github.com/JustinWhittecar/critslots/internal/logging"
)

// export-sqlite copies stock variants from the Postgres ingest database into
// the SQLite build database as editable builds.
func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	dsn := flag.String("db", "", "Postgres connection string (default from config ingest.dsn)")
	out := flag.String("out", "", "build database path (default from config builds.path)")
	match := flag.String("match", "", "only export variants whose name contains this")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup(config.GetString("logLevel"), config.GetBool("logPretty"))
	if *dsn == "" {
		*dsn = config.GetString("ingest.dsn")
	}
	if *out == "" {
		*out = config.GetString("builds.path")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, *dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect")
	}
	defer pool.Close()

	variants, err := db.NewStore(pool).StockVariants(ctx, *match)
	if err != nil {
		log.Fatal().Err(err).Msg("load variants")
	}

	buildDB, err := db.ConnectBuildDB(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("sqlite open")
	}
	defer buildDB.Close()

	svc := builds.NewService(&db.BuildStore{DB: buildDB}, nil, nil, log)

	exported, conflicted := 0, 0
	for _, v := range variants {
		b, conflicts, err := svc.Import(ctx, v.Name, v.EngineType, v.GyroType, v.Placements)
		if err != nil {
			log.Error().Err(err).Str("variant", v.Name).Msg("export")
			continue
		}
		exported++
		if len(conflicts) > 0 {
			conflicted++
		}
		log.Debug().Str("variant", v.Name).Str("build", b.ID).Int("unallocated", len(b.Unallocated())).Msg("exported")
	}

	fmt.Printf("Exported %d / %d variants to %s (%d with conflicting stock placements)\n",
		exported, len(variants), *out, conflicted)
}
