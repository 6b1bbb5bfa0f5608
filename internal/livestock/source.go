// Package livestock reads breed and species records from the SQL Server
// herd-management database. The package never writes: it exposes read-only
// record readers plus document extraction for the vector index. Every query
// is checked against an explicit table allow list before it reaches the
// driver, so a bad query fails closed instead of touching an off-limits
// table.
package livestock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// ErrAccessDenied is returned when a query references a table outside the
// allow list. The query is rejected before execution.
var ErrAccessDenied = errors.New("access denied to table")

// ErrNotOpen is returned when a reader is called before Open.
var ErrNotOpen = errors.New("livestock source not open")

// allowedTables is the complete set of tables queries may reference,
// lowercased for case-insensitive matching.
var allowedTables = map[string]struct{}{
	"speciesavailable":                   {},
	"speciesbreedlookuptable":            {},
	"speciescategory":                    {},
	"speciescolorlookuptable":            {},
	"speciespatternlookuptable":          {},
	"speciesregistrationtypelookuptable": {},
}

// Table references are extracted from FROM and JOIN clauses, with optional
// bracket quoting as produced by SQL Server tooling.
var (
	fromPattern = regexp.MustCompile(`from\s+\[?(\w+)\]?`)
	joinPattern = regexp.MustCompile(`join\s+\[?(\w+)\]?`)
)

// Source provides read-only access to the livestock database.
//
// Source is safe for concurrent use once Open has returned.
type Source struct {
	dsn    string
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Source for the given sqlserver:// connection string.
// Call Open before using any reader.
func New(dsn string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{dsn: dsn, logger: logger}
}

// Open establishes and verifies the database connection.
func (s *Source) Open(ctx context.Context) error {
	db, err := sql.Open("sqlserver", s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open livestock database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to livestock database: %w", err)
	}

	s.db = db
	s.logger.Info("connected to livestock database")
	return nil
}

// Close releases the connection pool.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is still usable.
func (s *Source) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.PingContext(ctx)
}

// validateQuery checks that every table referenced in FROM and JOIN clauses
// is on the allow list. It runs before the query reaches the driver.
func validateQuery(query string) error {
	lowered := strings.ToLower(query)

	var tables []string
	for _, m := range fromPattern.FindAllStringSubmatch(lowered, -1) {
		tables = append(tables, m[1])
	}
	for _, m := range joinPattern.FindAllStringSubmatch(lowered, -1) {
		tables = append(tables, m[1])
	}

	for _, table := range tables {
		if _, ok := allowedTables[table]; !ok {
			return fmt.Errorf("%w: %s", ErrAccessDenied, table)
		}
	}
	return nil
}

// query validates then executes a SELECT. All readers go through here so the
// allow list cannot be bypassed.
func (s *Source) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, ErrNotOpen
	}
	return s.db.QueryContext(ctx, q, args...)
}

const allBreedsQuery = `
	SELECT TOP 2000 b.BreedLookupID, b.Breed, b.Breeddescription,
	       b.MeatBreed, b.MilkBreed, b.WoolBreed, b.EggBreed, b.Working,
	       s.Species, s.SpeciesID
	FROM Speciesbreedlookuptable b
	JOIN Speciesavailable s ON b.SpeciesID = s.SpeciesID
	WHERE b.breedavailable = 1`

// AllBreeds returns every available breed joined with its species,
// capped at 2000 rows.
func (s *Source) AllBreeds(ctx context.Context) ([]Breed, error) {
	rows, err := s.query(ctx, allBreedsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list breeds: %w", err)
	}
	defer rows.Close()

	var breeds []Breed
	for rows.Next() {
		var (
			b               Breed
			desc            sql.NullString
			meat, milk      sql.NullBool
			wool, egg, work sql.NullBool
		)
		if err := rows.Scan(&b.BreedLookupID, &b.Name, &desc,
			&meat, &milk, &wool, &egg, &work,
			&b.Species, &b.SpeciesID); err != nil {
			return nil, fmt.Errorf("failed to scan breed row: %w", err)
		}
		b.Description = desc.String
		b.Meat = meat.Valid && meat.Bool
		b.Milk = milk.Valid && milk.Bool
		b.Wool = wool.Valid && wool.Bool
		b.Egg = egg.Valid && egg.Bool
		b.Working = work.Valid && work.Bool
		breeds = append(breeds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read breed rows: %w", err)
	}
	return breeds, nil
}

const allSpeciesQuery = `
	SELECT SpeciesID, Species, MaleTerm, FemaleTerm, BabyTerm,
	       SingularTerm, PluralTerm, GestationPeriod
	FROM Speciesavailable
	WHERE SpeciesAvailable = 1`

// AllSpecies returns every available species with its terminology.
func (s *Source) AllSpecies(ctx context.Context) ([]Species, error) {
	rows, err := s.query(ctx, allSpeciesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	var list []Species
	for rows.Next() {
		var (
			sp                 Species
			male, female, baby sql.NullString
			singular, plural   sql.NullString
			gestation          sql.NullInt64
		)
		if err := rows.Scan(&sp.SpeciesID, &sp.Name, &male, &female, &baby,
			&singular, &plural, &gestation); err != nil {
			return nil, fmt.Errorf("failed to scan species row: %w", err)
		}
		sp.MaleTerm = male.String
		sp.FemaleTerm = female.String
		sp.BabyTerm = baby.String
		sp.SingularTerm = singular.String
		sp.PluralTerm = plural.String
		sp.GestationPeriod = int(gestation.Int64)
		list = append(list, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read species rows: %w", err)
	}
	return list, nil
}

// ColorsForSpecies returns the distinct coat colors recorded for a species.
func (s *Source) ColorsForSpecies(ctx context.Context, speciesID int) ([]string, error) {
	const q = `
		SELECT DISTINCT SpeciesColor
		FROM Speciescolorlookuptable
		WHERE SpeciesID = @p1`
	return s.stringColumn(ctx, q, "colors", speciesID)
}

// PatternsForSpecies returns the distinct coat patterns recorded for a
// species. The pattern table reuses the SpeciesColor column name.
func (s *Source) PatternsForSpecies(ctx context.Context, speciesID int) ([]string, error) {
	const q = `
		SELECT DISTINCT SpeciesColor
		FROM Speciespatternlookuptable
		WHERE SpeciesID = @p1`
	return s.stringColumn(ctx, q, "patterns", speciesID)
}

// CategoriesForSpecies returns the categories for a species in display order.
func (s *Source) CategoriesForSpecies(ctx context.Context, speciesID int) ([]string, error) {
	const q = `
		SELECT SpeciesCategory
		FROM Speciescategory
		WHERE SpeciesID = @p1
		ORDER BY SpeciesCategoryOrder`
	return s.stringColumn(ctx, q, "categories", speciesID)
}

func (s *Source) stringColumn(ctx context.Context, q, what string, speciesID int) ([]string, error) {
	rows, err := s.query(ctx, q, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s for species %d: %w", what, speciesID, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", what, err)
		}
		if v.Valid && v.String != "" {
			values = append(values, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", what, err)
	}
	return values, nil
}

const searchBreedsQuery = `
	SELECT TOP 20 b.BreedLookupID, b.Breed, b.Breeddescription,
	       b.MeatBreed, b.MilkBreed, b.WoolBreed, b.EggBreed, b.Working,
	       s.Species, s.SpeciesID
	FROM Speciesbreedlookuptable b
	JOIN Speciesavailable s ON b.SpeciesID = s.SpeciesID
	WHERE b.Breed LIKE '%' + @p1 + '%' AND b.breedavailable = 1`

// SearchBreeds returns up to 20 breeds whose name contains the term.
// The term is passed as a bind parameter, never interpolated.
func (s *Source) SearchBreeds(ctx context.Context, term string) ([]Breed, error) {
	rows, err := s.query(ctx, searchBreedsQuery, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search breeds: %w", err)
	}
	defer rows.Close()

	var breeds []Breed
	for rows.Next() {
		var (
			b               Breed
			desc            sql.NullString
			meat, milk      sql.NullBool
			wool, egg, work sql.NullBool
		)
		if err := rows.Scan(&b.BreedLookupID, &b.Name, &desc,
			&meat, &milk, &wool, &egg, &work,
			&b.Species, &b.SpeciesID); err != nil {
			return nil, fmt.Errorf("failed to scan breed row: %w", err)
		}
		b.Description = desc.String
		b.Meat = meat.Valid && meat.Bool
		b.Milk = milk.Valid && milk.Bool
		b.Wool = wool.Valid && wool.Bool
		b.Egg = egg.Valid && egg.Bool
		b.Working = work.Valid && work.Bool
		breeds = append(breeds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read breed rows: %w", err)
	}
	return breeds, nil
}

// Summary counts the available species, breeds, distinct colors and
// distinct patterns.
func (s *Source) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM Speciesavailable WHERE SpeciesAvailable = 1", &sum.TotalSpecies},
		{"SELECT COUNT(*) FROM Speciesbreedlookuptable WHERE breedavailable = 1", &sum.TotalBreeds},
		{"SELECT COUNT(DISTINCT SpeciesColor) FROM Speciescolorlookuptable", &sum.TotalColors},
		{"SELECT COUNT(DISTINCT SpeciesColor) FROM Speciespatternlookuptable", &sum.TotalPatterns},
	}

	for _, c := range counts {
		if err := s.scanCount(ctx, c.query, c.dst); err != nil {
			return Summary{}, err
		}
	}
	return sum, nil
}

func (s *Source) scanCount(ctx context.Context, q string, dst *int) error {
	rows, err := s.query(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to count: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(dst); err != nil {
			return fmt.Errorf("failed to scan count: %w", err)
		}
	}
	return rows.Err()
}
