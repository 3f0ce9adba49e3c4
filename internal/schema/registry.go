// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package schema holds the Schema Descriptor registry: the read-only,
// generated description of every syncable table.
//
// The registry is loaded once at startup from a versioned artifact (JSON or
// YAML) that both the local engine and the remote sync service consume, and
// it is never mutated afterwards. A table missing from the registry is not
// syncable; asking for it returns [ErrUnknownTable].
package schema

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schemagen -o artifact.json

//go:embed artifact.json
var defaultArtifact []byte

// Format is the encoding of a schema artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reservedTables are owned by the engine itself.
var reservedTables = []string{"pending_changes", "sync_watermarks", "sync_meta", "sync_control", "goose_db_version"}

// Registry is the immutable set of table descriptors.
type Registry struct {
	version     int
	fingerprint string
	tables      []models.TableDescriptor
	byName      map[string]models.TableDescriptor
}

// Default returns the registry built from the artifact embedded at build time.
func Default() (*Registry, error) {
	return LoadBytes(defaultArtifact, FormatJSON)
}

// Load reads and validates the artifact at path. The format is chosen by the
// file extension (.json, .yaml, .yml).
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading schema artifact: %w", err)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	return LoadBytes(data, format)
}

// LoadOrDefault loads the artifact at path, or the embedded one when path
// is empty.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// LoadBytes decodes and validates an artifact.
func LoadBytes(data []byte, format Format) (*Registry, error) {
	var artifact models.SchemaArtifact

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&artifact); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&artifact); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return New(artifact)
}

// New validates artifact and builds a registry from it.
func New(artifact models.SchemaArtifact) (*Registry, error) {
	if err := validateArtifact(artifact); err != nil {
		return nil, err
	}

	tables := slices.Clone(artifact.Tables)
	slices.SortStableFunc(tables, func(a, b models.TableDescriptor) int {
		return cmp.Or(cmp.Compare(a.DependencyRank, b.DependencyRank), strings.Compare(a.Name, b.Name))
	})

	byName := make(map[string]models.TableDescriptor, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	return &Registry{
		version:     artifact.Version,
		fingerprint: fingerprint(artifact.Version, tables),
		tables:      tables,
		byName:      byName,
	}, nil
}

// Describe returns the descriptor of the named table.
func (r *Registry) Describe(name string) (models.TableDescriptor, error) {
	t, ok := r.byName[name]
	if !ok {
		return models.TableDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables returns all descriptors ordered by ascending dependency rank, then
// by name. Referenced tables come before referencing tables.
func (r *Registry) Tables() []models.TableDescriptor {
	return slices.Clone(r.tables)
}

// TablesReversed returns the descriptors in the order deletes must be applied.
func (r *Registry) TablesReversed() []models.TableDescriptor {
	out := slices.Clone(r.tables)
	slices.Reverse(out)
	return out
}

// Version is the artifact version number.
func (r *Registry) Version() int {
	return r.version
}

// Fingerprint identifies the table shapes the running build expects.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

// Info returns the version and fingerprint pair.
func (r *Registry) Info() models.SchemaInfo {
	return models.SchemaInfo{Version: r.version, Fingerprint: r.fingerprint}
}

// fingerprint hashes the canonical JSON of the sorted descriptors. GeneratedAt
// is left out so regenerating an unchanged schema keeps the fingerprint.
func fingerprint(version int, tables []models.TableDescriptor) string {
	payload, _ := json.Marshal(struct {
		Version int                      `json:"version"`
		Tables  []models.TableDescriptor `json:"tables"`
	}{version, tables})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// FormatFromPath picks the artifact format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

func validateArtifact(artifact models.SchemaArtifact) error {
	if artifact.Version <= 0 {
		return fmt.Errorf("%w: version must be positive", ErrInvalidArtifact)
	}
	if len(artifact.Tables) == 0 {
		return fmt.Errorf("%w: no tables described", ErrInvalidArtifact)
	}

	seen := make(map[string]struct{}, len(artifact.Tables))
	for _, t := range artifact.Tables {
		if err := validateTable(t); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: table %q described twice", ErrInvalidArtifact, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	return nil
}

func validateTable(t models.TableDescriptor) error {
	if !validIdentifier.MatchString(t.Name) {
		return fmt.Errorf("%w: invalid table name %q", ErrInvalidArtifact, t.Name)
	}
	if slices.Contains(reservedTables, t.Name) {
		return fmt.Errorf("%w: table name %q is reserved", ErrInvalidArtifact, t.Name)
	}
	if len(t.PrimaryKey) == 0 {
		return fmt.Errorf("%w: table %q has no primary key", ErrInvalidArtifact, t.Name)
	}
	if t.DependencyRank < 0 {
		return fmt.Errorf("%w: table %q has negative dependency rank", ErrInvalidArtifact, t.Name)
	}

	columns := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if !validIdentifier.MatchString(c.Name) {
			return fmt.Errorf("%w: invalid column name %q.%q", ErrInvalidArtifact, t.Name, c.Name)
		}
		if slices.Contains(models.SyncColumns, c.Name) {
			return fmt.Errorf("%w: column %q.%q is reserved for sync bookkeeping", ErrInvalidArtifact, t.Name, c.Name)
		}
		if !c.Kind.Valid() {
			return fmt.Errorf("%w: column %q.%q has unknown kind %q", ErrInvalidArtifact, t.Name, c.Name, c.Kind)
		}
		if _, dup := columns[c.Name]; dup {
			return fmt.Errorf("%w: column %q.%q described twice", ErrInvalidArtifact, t.Name, c.Name)
		}
		columns[c.Name] = struct{}{}
	}

	for _, pk := range t.PrimaryKey {
		if _, ok := columns[pk]; !ok {
			return fmt.Errorf("%w: primary key column %q.%q is not a column", ErrInvalidArtifact, t.Name, pk)
		}
	}

	for _, cc := range t.ConflictColumns {
		if _, ok := columns[cc]; !ok {
			return fmt.Errorf("%w: conflict column %q.%q is not a column", ErrInvalidArtifact, t.Name, cc)
		}
		if slices.Contains(t.PrimaryKey, cc) {
			return fmt.Errorf("%w: conflict column %q.%q is part of the primary key", ErrInvalidArtifact, t.Name, cc)
		}
	}

	return nil
}
