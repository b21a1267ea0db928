package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/ingestion"
	"github.com/JustinWhittecar/critslots/internal/logging"
)

// extract-weapons walks the MegaMek weapon sources and writes the JSON that
// seed-catalog loads.
func main() {
	dirFlag := flag.String("dir", "", "root weapons directory")
	outFlag := flag.String("output", "", "output JSON file")
	flag.Parse()

	log := logging.Setup(zerolog.InfoLevel.String(), true)
	if *dirFlag == "" || *outFlag == "" {
		log.Fatal().Msg("Usage: --dir <path> --output <path>")
	}

	var items []ingestion.EquipmentSource
	err := filepath.Walk(*dirFlag, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if ingestion.SkipEquipmentDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".java") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("read")
			return nil
		}
		rel, _ := filepath.Rel(*dirFlag, path)
		if e, ok := ingestion.ParseEquipmentSource(string(content), rel); ok && e.CriticalSlots > 0 {
			items = append(items, e)
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("walk")
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal")
	}
	if err := os.WriteFile(*outFlag, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	fmt.Printf("Extracted %d items to %s\n", len(items), *outFlag)
}
