// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Command schemagen writes the schema artifact shared by the sync client and
// the remote sync service. It introspects the reference tables of a Postgres
// database and derives dependency ranks from their foreign keys.
//
// Usage:
//
//	schemagen -dsn postgres://... [-schema public] [-tables a,b] [-version 2] -o artifact.json
//
// The output format follows the file extension (.json, .yaml, .yml). When
// -dsn is omitted STORAGE_DB_DATABASE_URI is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

func main() {
	log := logger.NewLogger("go-offline-sync-schemagen")

	var (
		dsn, schemaName, tables, output string
		version                         int
	)
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&dsn, "dsn", os.Getenv("STORAGE_DB_DATABASE_URI"), "reference Postgres DSN")
	fs.StringVar(&schemaName, "schema", "public", "Postgres schema holding the reference tables")
	fs.StringVar(&tables, "tables", "", "comma separated tables to describe (default all)")
	fs.IntVar(&version, "version", 1, "artifact version")
	fs.StringVar(&output, "o", "artifact.json", "output file (.json, .yaml, .yml)")
	_ = fs.Parse(os.Args[1:])

	if dsn == "" {
		log.Fatal().Msg("no DSN given: use -dsn or STORAGE_DB_DATABASE_URI")
	}

	format, err := schema.FormatFromPath(output)
	if err != nil {
		log.Fatal().Err(err).Str("output", output).Msg("unsupported output file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.NewConnectPostgres(ctx, config.DB{DSN: dsn}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting reference database")
	}
	defer db.Close()

	artifact, err := schema.NewGenerator(db.DB, log).Generate(ctx, schema.GeneratorOptions{
		Schema:  schemaName,
		Tables:  splitList(tables),
		Version: version,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error generating schema artifact")
	}

	data, err := schema.Encode(artifact, format)
	if err != nil {
		log.Fatal().Err(err).Msg("error encoding schema artifact")
	}

	if err = os.WriteFile(output, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("output", output).Msg("error writing schema artifact")
	}

	fmt.Printf("schema artifact v%d with %d tables written to %s\n", artifact.Version, len(artifact.Tables), output)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
