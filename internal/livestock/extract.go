package livestock

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/barnhand/barnhand/internal/knowledge"
)

// Caps keep a single species document within a reasonable embedding size
// even for species with very long lookup lists.
const (
	maxColors     = 20
	maxPatterns   = 20
	maxCategories = 15
)

// FormatBreedDocument renders a breed as searchable text. Field order is
// fixed so re-extraction of unchanged data produces identical content.
func FormatBreedDocument(b Breed) string {
	name := b.Name
	if name == "" {
		name = "Unknown"
	}
	parts := []string{fmt.Sprintf("Breed: %s", name)}

	if b.Species != "" {
		parts = append(parts, fmt.Sprintf("Species: %s", b.Species))
	}
	if b.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", b.Description))
	}

	var purposes []string
	if b.Meat {
		purposes = append(purposes, "meat production")
	}
	if b.Milk {
		purposes = append(purposes, "milk/dairy production")
	}
	if b.Wool {
		purposes = append(purposes, "wool/fiber production")
	}
	if b.Egg {
		purposes = append(purposes, "egg production")
	}
	if b.Working {
		purposes = append(purposes, "working/draft animal")
	}
	if len(purposes) > 0 {
		parts = append(parts, fmt.Sprintf("Purpose: %s", strings.Join(purposes, ", ")))
	}

	return strings.Join(parts, " | ")
}

// FormatSpeciesDocument renders a species with its lookup lists as
// searchable text. Colors and patterns are capped at 20 entries,
// categories at 15.
func FormatSpeciesDocument(sp Species, colors, patterns, categories []string) string {
	name := sp.Name
	if name == "" {
		name = "Unknown"
	}
	parts := []string{fmt.Sprintf("Species: %s", name)}

	if sp.SingularTerm != "" {
		parts = append(parts, fmt.Sprintf("Singular: %s", sp.SingularTerm))
	}
	if sp.PluralTerm != "" {
		parts = append(parts, fmt.Sprintf("Plural: %s", sp.PluralTerm))
	}
	if sp.MaleTerm != "" {
		parts = append(parts, fmt.Sprintf("Male term: %s", sp.MaleTerm))
	}
	if sp.FemaleTerm != "" {
		parts = append(parts, fmt.Sprintf("Female term: %s", sp.FemaleTerm))
	}
	if sp.BabyTerm != "" {
		parts = append(parts, fmt.Sprintf("Baby term: %s", sp.BabyTerm))
	}
	if sp.GestationPeriod > 0 {
		parts = append(parts, fmt.Sprintf("Gestation period: %d days", sp.GestationPeriod))
	}

	if len(colors) > 0 {
		parts = append(parts, fmt.Sprintf("Available colors: %s", strings.Join(capList(colors, maxColors), ", ")))
	}
	if len(patterns) > 0 {
		parts = append(parts, fmt.Sprintf("Available patterns: %s", strings.Join(capList(patterns, maxPatterns), ", ")))
	}
	if len(categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(capList(categories, maxCategories), ", ")))
	}

	return strings.Join(parts, " | ")
}

func capList(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

// BreedDocument converts a breed row into an indexable document.
func BreedDocument(b Breed) knowledge.Document {
	return knowledge.Document{
		ID:      fmt.Sprintf("breed_%d", b.BreedLookupID),
		Content: FormatBreedDocument(b),
		Type:    knowledge.TypeBreed,
		Metadata: map[string]string{
			"breed_name": b.Name,
			"species":    b.Species,
			"species_id": strconv.Itoa(b.SpeciesID),
		},
	}
}

// SpeciesDocument converts a species with its lookup lists into an
// indexable document.
func SpeciesDocument(sp Species, colors, patterns, categories []string) knowledge.Document {
	return knowledge.Document{
		ID:      fmt.Sprintf("species_%d", sp.SpeciesID),
		Content: FormatSpeciesDocument(sp, colors, patterns, categories),
		Type:    knowledge.TypeSpecies,
		Metadata: map[string]string{
			"species_name": sp.Name,
			"species_id":   strconv.Itoa(sp.SpeciesID),
		},
	}
}

// ExtractDocuments reads every available breed and species and converts
// them into indexable documents: breeds first, then species, each in
// database order. Extraction over unchanged data is deterministic, so
// rebuilding the index is idempotent.
func (s *Source) ExtractDocuments(ctx context.Context) ([]knowledge.Document, error) {
	breeds, err := s.AllBreeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract breeds: %w", err)
	}

	docs := make([]knowledge.Document, 0, len(breeds))
	for _, b := range breeds {
		docs = append(docs, BreedDocument(b))
	}

	species, err := s.AllSpecies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract species: %w", err)
	}

	for _, sp := range species {
		colors, err := s.ColorsForSpecies(ctx, sp.SpeciesID)
		if err != nil {
			return nil, fmt.Errorf("failed to extract colors for species %d: %w", sp.SpeciesID, err)
		}
		patterns, err := s.PatternsForSpecies(ctx, sp.SpeciesID)
		if err != nil {
			return nil, fmt.Errorf("failed to extract patterns for species %d: %w", sp.SpeciesID, err)
		}
		categories, err := s.CategoriesForSpecies(ctx, sp.SpeciesID)
		if err != nil {
			return nil, fmt.Errorf("failed to extract categories for species %d: %w", sp.SpeciesID, err)
		}

		docs = append(docs, SpeciesDocument(sp, colors, patterns, categories))
	}

	s.logger.Info("extracted documents",
		"breeds", len(breeds),
		"species", len(species),
		"total", len(docs))
	return docs, nil
}
