package rag

import (
	"context"
	"fmt"
	"strings"

	"rpgm-translator/internal/glossary"
	"rpgm-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Embedder turns a lookup text into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MemorySearcher finds rows similar to a vector.
type MemorySearcher interface {
	Search(ctx context.Context, queryVector []float32, topK int) ([]SearchResult, error)
}

// TermFinder looks up glossary terms used by a text.
type TermFinder interface {
	FindTerms(ctx context.Context, text string) ([]glossary.Term, error)
}

// RetrievalResult is the reference material gathered for one source text.
type RetrievalResult struct {
	Terms   []glossary.Term
	Similar []SearchResult
}

// Retriever gathers glossary terms and similar translated rows. Every
// source is optional.
type Retriever struct {
	glossary *glossary.Glossary
	graph    TermFinder
	embedder Embedder
	memory   MemorySearcher
	minScore float64
}

// NewRetriever creates a retriever over the project glossary.
func NewRetriever(g *glossary.Glossary) *Retriever {
	return &Retriever{glossary: g, minScore: 0.5}
}

// SetGraph attaches a graph term lookup.
func (r *Retriever) SetGraph(tf TermFinder) {
	r.graph = tf
}

// SetMemory attaches translation memory search.
func (r *Retriever) SetMemory(e Embedder, m MemorySearcher) {
	r.embedder = e
	r.memory = m
}

// Retrieve fetches context for sourceText. Lookup failures are logged and
// leave the corresponding part empty.
func (r *Retriever) Retrieve(ctx context.Context, sourceText string, topK int) *RetrievalResult {
	result := &RetrievalResult{}

	seen := make(map[string]bool)
	addTerms := func(terms []glossary.Term) {
		for _, t := range terms {
			key := strings.ToLower(t.Source)
			if !seen[key] {
				seen[key] = true
				result.Terms = append(result.Terms, t)
			}
		}
	}

	if r.glossary != nil {
		addTerms(r.glossary.Match(sourceText))
	}

	if r.graph != nil {
		terms, err := r.graph.FindTerms(ctx, sourceText)
		if err != nil {
			log.Warn().Err(err).Msg("Graph term lookup failed")
		} else {
			addTerms(terms)
		}
	}

	if r.embedder != nil && r.memory != nil && topK > 0 {
		vec, err := r.embedder.EmbedQuery(ctx, sourceText)
		if err != nil {
			log.Warn().Err(err).Str("text", textutil.Truncate(sourceText, 50)).Msg("Failed to embed query, skipping memory search")
			return result
		}

		similar, err := r.memory.Search(ctx, vec, topK)
		if err != nil {
			log.Warn().Err(err).Msg("Translation memory search failed")
			return result
		}
		for _, s := range similar {
			if s.Score >= r.minScore && s.Source != sourceText {
				result.Similar = append(result.Similar, s)
			}
		}
	}

	return result
}

// BuildContextString formats a retrieval result for a prompt.
func BuildContextString(result *RetrievalResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder

	if len(result.Terms) > 0 {
		sb.WriteString("=== Glossary (always use these translations) ===\n")
		for _, t := range result.Terms {
			sb.WriteString(fmt.Sprintf("• %s → %s", t.Source, t.Translation))
			if t.Note != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", t.Note))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(result.Similar) > 0 {
		sb.WriteString("=== Previously Translated Lines ===\n")
		for i, s := range result.Similar {
			sb.WriteString(fmt.Sprintf("%d. [Score: %.3f] %s → %s\n", i+1, s.Score, s.Source, s.Translation))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
