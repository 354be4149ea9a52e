package main

import (
	"context"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/reference"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/adapters/search"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/clients/typesense"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := cfg.Reference.Path
	if _, err := os.Stat(path); err == nil {
		if os.Getenv("RESET_REFERENCE") != "true" {
			log.Fatalf("Reference file %s already exists; set RESET_REFERENCE=true to overwrite", path)
		}
		log.Println("RESET_REFERENCE=true detected, overwriting existing reference file")
	}

	protocols := reference.DefaultProtocols()
	if err := writeReferenceCSV(path, protocols); err != nil {
		log.Fatalf("Failed to write reference file: %v", err)
	}
	log.Printf("Wrote %d protocols to %s", len(protocols), path)

	// Index into Typesense when configured; the API works without it.
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Typesense unavailable, skipping search indexing: %v", err)
		return
	}

	ctx := context.Background()
	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to init Typesense schema: %v", err)
	}
	if err := adapter.IndexAll(ctx, entities.NewProtocolTable(protocols)); err != nil {
		log.Fatalf("Failed to index protocols: %v", err)
	}
	log.Printf("Indexed %d protocols into Typesense", len(protocols))
}

func writeReferenceCSV(path string, protocols []*entities.Protocol) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Protocol", "IV Contrast", "Oral Contrast", "Acquisitions", "Example Indications", "Notes"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, p := range protocols {
		row := []string{p.Name, p.IVContrast, p.OralContrast, p.Acquisitions, p.Indications, p.Notes}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
