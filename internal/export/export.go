// Package export writes an index snapshot into an embedded database so the
// data set can be queried with SQL outside the API.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/noot-app/fct-api/internal/index"
	_ "modernc.org/sqlite"
)

// Format selects the database engine
type Format string

const (
	FormatDuckDB Format = "duckdb"
	FormatSQLite Format = "sqlite"
)

// ErrParquetUnsupported is returned when Parquet output is requested for a
// format that cannot write it
var ErrParquetUnsupported = errors.New("parquet output requires the duckdb format")

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDuckDB, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want duckdb or sqlite)", s)
	}
}

func (f Format) driver() string {
	return string(f)
}

// Tables are written in this order
var Tables = []string{"categories", "nutrients", "foods", "food_categories", "measurements"}

var schema = []string{
	`CREATE TABLE categories (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sections TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE nutrients (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT,
		category TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE foods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		food_group_code TEXT NOT NULL,
		food_group TEXT NOT NULL,
		scientific_name TEXT,
		alternative_name TEXT,
		edible_portion_pct DOUBLE
	)`,
	`CREATE TABLE food_categories (
		food_id TEXT NOT NULL,
		category_code TEXT NOT NULL,
		PRIMARY KEY (food_id, category_code)
	)`,
	`CREATE TABLE measurements (
		food_id TEXT NOT NULL,
		code TEXT NOT NULL,
		value DOUBLE,
		unit TEXT NOT NULL,
		category TEXT,
		is_energy BOOLEAN NOT NULL
	)`,
}

// Options controls one export run
type Options struct {
	Format Format
	// Path of the database file. An existing file is replaced.
	Path string
	// ParquetDir, when set, also receives one <table>.parquet per table
	ParquetDir string
}

// Summary reports what an export wrote
type Summary struct {
	Foods        int           `json:"foods"`
	Measurements int           `json:"measurements"`
	Nutrients    int           `json:"nutrients"`
	Categories   int           `json:"categories"`
	ParquetFiles []string      `json:"parquet_files,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Exporter writes snapshots to database files
type Exporter struct {
	log *slog.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{log: logger}
}

// Export writes idx into a new database at opts.Path
func (e *Exporter) Export(ctx context.Context, idx *index.Index, opts Options) (*Summary, error) {
	start := time.Now()

	if opts.ParquetDir != "" && opts.Format != FormatDuckDB {
		return nil, ErrParquetUnsupported
	}
	if opts.Path == "" {
		return nil, errors.New("export path is required")
	}

	if err := replaceFile(opts.Path); err != nil {
		return nil, err
	}

	e.log.Info("Exporting snapshot", "format", opts.Format, "path", opts.Path, "foods", idx.Len())

	db, err := sql.Open(opts.Format.driver(), opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Format, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", opts.Format, err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	summary, err := e.write(ctx, db, idx)
	if err != nil {
		return nil, err
	}

	if opts.ParquetDir != "" {
		files, err := e.writeParquet(ctx, db, opts.ParquetDir)
		if err != nil {
			return nil, err
		}
		summary.ParquetFiles = files
	}

	summary.Duration = time.Since(start)
	e.log.Info("Export completed",
		"foods", summary.Foods,
		"measurements", summary.Measurements,
		"duration", summary.Duration)

	return summary, nil
}

// write inserts every row in one transaction
func (e *Exporter) write(ctx context.Context, db *sql.DB, idx *index.Index) (*Summary, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &Summary{}
	taxonomy := idx.Taxonomy()

	err = insertAll(ctx, tx, `INSERT INTO categories (code, name, sections, position) VALUES (?, ?, ?, ?)`,
		func(insert func(args ...any) error) error {
			for i, c := range taxonomy.Categories {
				sections := c.Sections
				if sections == nil {
					sections = []string{}
				}
				encoded, err := json.Marshal(sections)
				if err != nil {
					return err
				}
				if err := insert(c.Code, c.Name, string(encoded), i); err != nil {
					return fmt.Errorf("category %s: %w", c.Code, err)
				}
				summary.Categories++
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = insertAll(ctx, tx, `INSERT INTO nutrients (code, name, unit, category, position) VALUES (?, ?, ?, ?, ?)`,
		func(insert func(args ...any) error) error {
			for i, n := range taxonomy.Nutrients {
				if err := insert(n.Code, n.Name, nullString(n.Unit), n.Category, i); err != nil {
					return fmt.Errorf("nutrient %s: %w", n.Code, err)
				}
				summary.Nutrients++
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	ids := idx.IDs()

	err = insertAll(ctx, tx, `INSERT INTO foods (id, name, food_group_code, food_group, scientific_name, alternative_name, edible_portion_pct) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		func(insert func(args ...any) error) error {
			for _, id := range ids {
				food, _ := idx.Food(id)
				if err := insert(food.ID, food.Name, food.FoodGroupCode, food.FoodGroup,
					nullString(food.ScientificName), nullString(food.AlternativeName), nullFloat(food.EdiblePortionPct)); err != nil {
					return fmt.Errorf("food %s: %w", id, err)
				}
				summary.Foods++
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = insertAll(ctx, tx, `INSERT INTO food_categories (food_id, category_code) VALUES (?, ?)`,
		func(insert func(args ...any) error) error {
			for _, id := range ids {
				food, _ := idx.Food(id)
				for _, code := range food.Categories {
					if err := insert(food.ID, code); err != nil {
						return fmt.Errorf("food %s category %s: %w", id, code, err)
					}
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = insertAll(ctx, tx, `INSERT INTO measurements (food_id, code, value, unit, category, is_energy) VALUES (?, ?, ?, ?, ?, ?)`,
		func(insert func(args ...any) error) error {
			for _, id := range ids {
				food, _ := idx.Food(id)
				for _, m := range food.Measurements() {
					category := m.Category
					if err := insert(food.ID, m.Code, nullFloat(m.Value), m.Unit, nullString(&category), m.IsEnergy()); err != nil {
						return fmt.Errorf("food %s measurement %s: %w", id, m.Code, err)
					}
					summary.Measurements++
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit export: %w", err)
	}
	return summary, nil
}

// insertAll prepares query once and hands fill an insert function bound to it
func insertAll(ctx context.Context, tx *sql.Tx, query string, fill func(insert func(args ...any) error) error) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	return fill(func(args ...any) error {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	})
}

// writeParquet copies every table into dir using DuckDB's COPY
func (e *Exporter) writeParquet(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parquet directory: %w", err)
	}

	files := make([]string, 0, len(Tables))
	for _, table := range Tables {
		path := filepath.Join(dir, table+".parquet")
		// COPY does not take a bound parameter for the target
		stmt := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(path, "'", "''"))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		e.log.Debug("Wrote parquet file", "table", table, "path", path)
		files = append(files, path)
	}
	return files, nil
}

// replaceFile removes a previous export at path and makes sure its directory
// exists
func replaceFile(path string) error {
	for _, p := range []string{path, path + ".wal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove previous export %s: %w", p, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
