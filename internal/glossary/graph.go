package glossary

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphStore keeps glossary terms in Neo4j and links corpus rows to the
// terms they use.
type GraphStore struct {
	driver neo4j.DriverWithContext
}

// NewGraphStore creates a store over driver.
func NewGraphStore(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{driver: driver}
}

// EnsureSchema creates the term constraint.
func (gs *GraphStore) EnsureSchema(ctx context.Context) error {
	session := gs.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, "CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.source IS UNIQUE", nil); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}

	log.Info().Msg("Glossary graph schema ensured")
	return nil
}

// Upsert merges terms into the graph.
func (gs *GraphStore) Upsert(ctx context.Context, terms []Term) error {
	session := gs.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, t := range terms {
		_, err := session.Run(ctx, `
			MERGE (t:Term {source: $source})
			SET t.translation = $translation,
			    t.note = $note
		`, map[string]any{
			"source":      t.Source,
			"translation": t.Translation,
			"note":        t.Note,
		})
		if err != nil {
			return fmt.Errorf("upsert term %s: %w", t.Source, err)
		}
	}

	log.Info().Int("terms", len(terms)).Msg("Upserted glossary terms")
	return nil
}

// LinkRow records a corpus row and links it to every term its source uses.
func (gs *GraphStore) LinkRow(ctx context.Context, file, source string) error {
	session := gs.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (r:Row {file: $file, source: $source})
		WITH r
		MATCH (t:Term)
		WHERE toLower($source) CONTAINS toLower(t.source)
		MERGE (r)-[:USES]->(t)
	`, map[string]any{
		"file":   file,
		"source": source,
	})
	if err != nil {
		return fmt.Errorf("link row to terms: %w", err)
	}
	return nil
}

// FindTerms returns the terms whose source occurs in text, longest first.
func (gs *GraphStore) FindTerms(ctx context.Context, text string) ([]Term, error) {
	session := gs.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term)
		WHERE toLower($text) CONTAINS toLower(t.source)
		RETURN t.source AS source, t.translation AS translation, t.note AS note
		ORDER BY size(t.source) DESC
	`, map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}

	var terms []Term
	for result.Next(ctx) {
		record := result.Record()
		source, _ := record.Get("source")
		translation, _ := record.Get("translation")
		note, _ := record.Get("note")

		terms = append(terms, Term{
			Source:      asString(source),
			Translation: asString(translation),
			Note:        asString(note),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}

	log.Debug().Int("terms", len(terms)).Msg("Graph term lookup complete")
	return terms, nil
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
