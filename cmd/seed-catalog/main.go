package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/JustinWhittecar/critslots/internal/config"
	"github.com/JustinWhittecar/critslots/internal/db"
	"github.com/JustinWhittecar/critslots/internal/ingestion"
	"github.com/JustinWhittecar/critslots/internal/logging"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	input := flag.String("input", "", "equipment JSON file")
	out := flag.String("db", "", "catalog SQLite path (default from config catalog.path)")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Setup(config.GetString("logLevel"), config.GetBool("logPretty"))

	if *input == "" {
		log.Fatal().Msg("Usage: --input <equipment.json>")
	}
	if *out == "" {
		*out = config.GetString("catalog.path")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("Read")
	}
	// Fields beyond what the slot allocator needs are ignored.
	var items []ingestion.EquipmentSource
	if err := json.Unmarshal(data, &items); err != nil {
		log.Fatal().Err(err).Msg("JSON")
	}

	sqlDB, err := db.ConnectCatalog(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("DB")
	}
	defer sqlDB.Close()
	catalog := &db.Catalog{DB: sqlDB}

	ctx := context.Background()
	count := 0
	for _, it := range items {
		if it.CriticalSlots <= 0 {
			log.Debug().Str("item", it.InternalName).Msg("skipping item without critical slots")
			continue
		}
		_, err := catalog.Upsert(ctx, it.Equipment(), it.LookupNames)
		if err != nil {
			log.Error().Err(err).Str("item", it.InternalName).Msg("Insert")
			continue
		}
		count++
	}
	fmt.Printf("Seeded %d equipment items into %s\n", count, *out)
}
