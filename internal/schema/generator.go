// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
	"gopkg.in/yaml.v3"
)

const (
	introspectColumns = `SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position;`

	introspectPrimaryKeys = `SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position;`

	introspectForeignKeys = `SELECT DISTINCT tc.table_name, ccu.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1;`
)

// GeneratorOptions controls which part of the reference schema is described.
type GeneratorOptions struct {
	// Schema is the Postgres schema holding the reference tables.
	Schema string
	// Tables restricts generation to the listed tables. Empty means all.
	Tables []string
	// Version is written into the artifact.
	Version int
}

// Generator builds a schema artifact by introspecting a reference Postgres
// schema. Dependency ranks are derived from foreign keys.
type Generator struct {
	db     *sql.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewGenerator returns a Generator reading information_schema through db.
func NewGenerator(db *sql.DB, logger *logger.Logger) *Generator {
	return &Generator{db: db, logger: logger, now: time.Now}
}

// Generate introspects the reference schema and returns a validated artifact.
func (g *Generator) Generate(ctx context.Context, opts GeneratorOptions) (models.SchemaArtifact, error) {
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	if opts.Version <= 0 {
		opts.Version = 1
	}

	tables, err := g.columns(ctx, opts.Schema)
	if err != nil {
		return models.SchemaArtifact{}, err
	}

	pks, err := g.primaryKeys(ctx, opts.Schema)
	if err != nil {
		return models.SchemaArtifact{}, err
	}

	deps, err := g.foreignKeys(ctx, opts.Schema)
	if err != nil {
		return models.SchemaArtifact{}, err
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		if len(opts.Tables) > 0 && !slices.Contains(opts.Tables, name) {
			continue
		}
		if slices.Contains(reservedTables, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ranks, err := dependencyRanks(names, deps)
	if err != nil {
		return models.SchemaArtifact{}, err
	}

	artifact := models.SchemaArtifact{
		Version:     opts.Version,
		GeneratedAt: g.now().UTC().Format(time.RFC3339),
		Tables:      make([]models.TableDescriptor, 0, len(names)),
	}

	for _, name := range names {
		pk := pks[name]
		if len(pk) == 0 {
			g.logger.Error().Str("func", "Generator.Generate").Str("table", name).Msg("table has no primary key")
			return models.SchemaArtifact{}, fmt.Errorf("%w: table %q has no primary key", ErrInvalidArtifact, name)
		}

		desc := models.TableDescriptor{
			Name:           name,
			PrimaryKey:     pk,
			Columns:        tables[name],
			DependencyRank: ranks[name],
		}
		for _, c := range desc.Columns {
			if !desc.IsPrimaryKey(c.Name) {
				desc.ConflictColumns = append(desc.ConflictColumns, c.Name)
			}
		}

		artifact.Tables = append(artifact.Tables, desc)
	}

	if err = validateArtifact(artifact); err != nil {
		return models.SchemaArtifact{}, err
	}

	g.logger.Info().
		Str("func", "Generator.Generate").
		Str("schema", opts.Schema).
		Int("tables", len(artifact.Tables)).
		Msg("schema artifact generated")

	return artifact, nil
}

func (g *Generator) columns(ctx context.Context, schemaName string) (map[string][]models.ColumnDescriptor, error) {
	rows, err := g.db.QueryContext(ctx, introspectColumns, schemaName)
	if err != nil {
		g.logger.Err(err).Str("func", "Generator.columns").Msg("failed to introspect columns")
		return nil, fmt.Errorf("error introspecting columns: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]models.ColumnDescriptor)
	for rows.Next() {
		var table, column, dataType, nullable string
		if err = rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		if slices.Contains(models.SyncColumns, column) || column == "deleted" {
			continue
		}
		tables[table] = append(tables[table], models.ColumnDescriptor{
			Name:     column,
			Kind:     kindFromDataType(dataType),
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}

	return tables, rows.Err()
}

func (g *Generator) primaryKeys(ctx context.Context, schemaName string) (map[string][]string, error) {
	rows, err := g.db.QueryContext(ctx, introspectPrimaryKeys, schemaName)
	if err != nil {
		g.logger.Err(err).Str("func", "Generator.primaryKeys").Msg("failed to introspect primary keys")
		return nil, fmt.Errorf("error introspecting primary keys: %w", err)
	}
	defer rows.Close()

	pks := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err = rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("error scanning primary key row: %w", err)
		}
		pks[table] = append(pks[table], column)
	}

	return pks, rows.Err()
}

func (g *Generator) foreignKeys(ctx context.Context, schemaName string) (map[string][]string, error) {
	rows, err := g.db.QueryContext(ctx, introspectForeignKeys, schemaName)
	if err != nil {
		g.logger.Err(err).Str("func", "Generator.foreignKeys").Msg("failed to introspect foreign keys")
		return nil, fmt.Errorf("error introspecting foreign keys: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var table, referenced string
		if err = rows.Scan(&table, &referenced); err != nil {
			return nil, fmt.Errorf("error scanning foreign key row: %w", err)
		}
		if table != referenced {
			deps[table] = append(deps[table], referenced)
		}
	}

	return deps, rows.Err()
}

// dependencyRanks assigns rank 0 to tables without references and
// 1 + max(rank of referenced tables) otherwise. Cycles are rejected.
func dependencyRanks(tables []string, deps map[string][]string) (map[string]int, error) {
	ranks := make(map[string]int, len(tables))
	visiting := make(map[string]bool, len(tables))

	var visit func(string) (int, error)
	visit = func(name string) (int, error) {
		if r, ok := ranks[name]; ok {
			return r, nil
		}
		if visiting[name] {
			return 0, fmt.Errorf("%w: foreign key cycle through %q", ErrInvalidArtifact, name)
		}
		visiting[name] = true

		rank := 0
		for _, dep := range deps[name] {
			if !slices.Contains(tables, dep) {
				continue
			}
			r, err := visit(dep)
			if err != nil {
				return 0, err
			}
			rank = max(rank, r+1)
		}

		visiting[name] = false
		ranks[name] = rank
		return rank, nil
	}

	for _, t := range tables {
		if _, err := visit(t); err != nil {
			return nil, err
		}
	}
	return ranks, nil
}

func kindFromDataType(dataType string) models.ColumnKind {
	dt := strings.ToLower(dataType)
	switch {
	case dt == "boolean":
		return models.KindBoolean
	case strings.HasPrefix(dt, "timestamp"), dt == "date":
		return models.KindTimestamp
	case dt == "json", dt == "jsonb":
		return models.KindJSON
	}
	return models.KindScalar
}

// Encode serializes artifact in the requested format.
func Encode(artifact models.SchemaArtifact, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(artifact, "", "  ")
	case FormatYAML:
		return yaml.Marshal(artifact)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
