package cli

import (
	"context"
	"fmt"

	"rpgm-translator/internal/cache"
	"rpgm-translator/internal/config"
	"rpgm-translator/internal/glossary"
	"rpgm-translator/internal/rag"
	"rpgm-translator/internal/translation"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog/log"
)

// dependencies are the optional external services. A nil field means the
// service is not configured.
type dependencies struct {
	pool   *pgxpool.Pool
	driver neo4j.DriverWithContext
}

func (d *dependencies) Close(ctx context.Context) {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.driver != nil {
		d.driver.Close(ctx)
	}
}

// initDependencies connects to PostgreSQL and Neo4j when they are configured.
func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.DatabaseURL != "" {
		pool, err := connectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.pool = pool
		log.Info().Msg("Connected to PostgreSQL")
	}

	if cfg.Neo4jURI != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			deps.Close(ctx)
			return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		deps.driver = driver
		log.Info().Msg("Connected to Neo4j")
	}

	return deps, nil
}

// connectPostgres opens a pool with the pgvector types registered on every
// connection. The extension must exist before the types can be registered.
func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vector extension: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	return pool, nil
}

// newRetriever assembles the glossary, graph and memory lookups that are
// available.
func (a *app) newRetriever(ctx context.Context, deps *dependencies) (*rag.Retriever, error) {
	g, err := glossary.LoadFile(a.fs, a.project.GlossaryPath())
	if err != nil {
		return nil, err
	}
	retriever := rag.NewRetriever(g)

	if deps.driver != nil {
		retriever.SetGraph(glossary.NewGraphStore(deps.driver))
	}
	if deps.pool != nil && a.cfg.EmbeddingAPIKey != "" {
		embedder := rag.NewEmbeddingClient(a.cfg.EmbeddingAPIKey, a.cfg.EmbeddingModel, a.cfg.EmbeddingBaseURL, a.cfg.EmbeddingDimensions)
		retriever.SetMemory(embedder, rag.NewVectorStore(deps.pool))
	}

	log.Debug().Int("glossary_terms", g.Len()).Bool("graph", deps.driver != nil).Bool("memory", deps.pool != nil).Msg("Retriever ready")
	return retriever, nil
}

// newTranslator builds the Gemini client behind the translation cache.
func (a *app) newTranslator(ctx context.Context, deps *dependencies) (translation.Translator, error) {
	if a.cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	retriever, err := a.newRetriever(ctx, deps)
	if err != nil {
		return nil, err
	}

	client := translation.NewClient(
		a.cfg.GeminiAPIKey,
		a.cfg.TranslationModel,
		a.cfg.RequestsPerSecond,
		translation.NewPromptBuilder(a.project, retriever),
	)

	translationCache := cache.NewTranslationCache(deps.pool)
	if err := translationCache.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := translationCache.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload cache")
	}

	return translation.NewCachedTranslator(client, translationCache), nil
}
