package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rpgm-translator/internal/interpolation"
	"rpgm-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

const defaultDimensions = 768

// EmbeddingClient turns row sources into vectors through an
// OpenAI-compatible embeddings API. Control codes are stripped before a text
// is embedded, so "\C[2]Harold\C[0]" and "Harold" land close together.
type EmbeddingClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	http       *http.Client
}

// NewEmbeddingClient creates a client for the API rooted at baseURL, such as
// https://api.openai.com/v1. dimensions <= 0 selects 768.
func NewEmbeddingClient(apiKey, model, baseURL string, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &EmbeddingClient{
		endpoint:   baseURL + "/embeddings",
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		http:       &http.Client{Timeout: time.Minute},
	}
}

// Dimensions is the vector size stored in translation memory.
func (ec *EmbeddingClient) Dimensions() int {
	return ec.dimensions
}

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedVector struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embedResponse struct {
	Data  []embedVector `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// embedText is the form of a row source that gets embedded.
func embedText(source string) string {
	if stripped := interpolation.Strip(source); stripped != "" {
		return stripped
	}
	return source
}

// Embed returns one vector per source, in input order. A response missing any
// vector is an error.
func (ec *EmbeddingClient) Embed(ctx context.Context, sources []string) ([][]float32, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	input := make([]string, len(sources))
	for i, s := range sources {
		input[i] = embedText(s)
	}

	var resp embedResponse
	if err := ec.post(ctx, embedRequest{Model: ec.model, Input: input, Dimensions: ec.dimensions}, &resp); err != nil {
		return nil, fmt.Errorf("embed %d rows: %w", len(sources), err)
	}

	vectors := make([][]float32, len(sources))
	for _, v := range resp.Data {
		if v.Index < 0 || v.Index >= len(vectors) {
			return nil, fmt.Errorf("embed %d rows: vector index %d out of range", len(sources), v.Index)
		}
		vectors[v.Index] = v.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embed %d rows: no vector for row %d", len(sources), i)
		}
	}

	log.Debug().Int("rows", len(sources)).Int("tokens", resp.Usage.TotalTokens).Msg("Embedded rows")
	return vectors, nil
}

func (ec *EmbeddingClient) post(ctx context.Context, body embedRequest, out *embedResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ec.apiKey)

	resp, err := ec.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// EmbedBatch embeds sources in requests of at most batchSize rows.
func (ec *EmbeddingClient) EmbedBatch(ctx context.Context, sources []string, batchSize int) ([][]float32, error) {
	vectors := make([][]float32, 0, len(sources))
	for _, batch := range worker.Batch(sources, batchSize) {
		v, err := ec.Embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v...)
	}
	return vectors, nil
}

// EmbedQuery embeds the source text a translation is being looked up for.
func (ec *EmbeddingClient) EmbedQuery(ctx context.Context, source string) ([]float32, error) {
	vectors, err := ec.Embed(ctx, []string{source})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
