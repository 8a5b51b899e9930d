package knowledge

import (
	"context"
	"fmt"
	"log"
)

// defaultFacts is the minimal course-wide knowledge pool used until a
// curated knowledge base has been loaded.
var defaultFacts = []string{
	"Landscape ecology studies the relationship between spatial patterns and ecological processes across multiple scales.",
	"Habitat fragmentation refers to the breaking up of continuous habitats into smaller, isolated patches.",
	"Connectivity describes the degree to which landscapes facilitate or impede movement of organisms and ecological flows.",
	"Spatial heterogeneity is the uneven distribution of habitats, resources, or conditions across space.",
	"Edge effects are changes in population or community structures that occur at the boundary of habitat patches.",
	"Metapopulation theory describes populations of the same species connected by migration and dispersal.",
	"Landscape metrics are quantitative measures used to characterize landscape structure and composition.",
	"Scale dependency means that ecological patterns and processes vary depending on the spatial and temporal scale of observation.",
	"Patch dynamics refers to the mosaic of patches in different stages of succession across a landscape.",
	"Corridors are linear habitat features that connect otherwise fragmented habitats and facilitate movement.",
}

// SeedDefaults inserts the built-in landscape ecology facts into the
// course-wide pool. It does nothing when course-wide snippets already exist.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.Model(&Snippet{}).Where("article_id = 0").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count course snippets: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i, fact := range defaultFacts {
		snip := &Snippet{Text: fact, Source: "builtin", Position: i}
		if err := s.Add(ctx, snip); err != nil {
			return i, fmt.Errorf("failed to seed fact %d: %w", i, err)
		}
	}

	log.Printf("[Knowledge] Seeded %d default course snippets", len(defaultFacts))
	return len(defaultFacts), nil
}
