// Package embedding abstracts the text-embedding backend behind a small
// capability interface. The backend is injectable and allowed to be absent:
// callers receive ErrUnavailable (never a panic) and degrade gracefully.
//
// Two implementations are provided:
//   - HTTPProvider talks to an Ollama-compatible embeddings endpoint with a
//     bounded per-call timeout.
//   - HashProvider is a deterministic, dependency-free bag-of-words hasher
//     used for tests and fully offline deployments.
//
// All providers return L2-normalized vectors, so the inner product of two
// embeddings equals their cosine similarity.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ErrUnavailable is returned when the embedding backend cannot be reached or
// is not configured. Callers must treat it as a degraded-mode signal, not a
// fatal error.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Provider computes fixed-length embedding vectors for text.
type Provider interface {
	// Embed returns the L2-normalized embedding of text. It returns
	// ErrUnavailable (possibly wrapped) when the backend cannot serve.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Model identifies the embedding model, persisted alongside index
	// snapshots so a reload can detect model drift.
	Model() string
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return v
	}
	for i := range v {
		v[i] /= mag
	}
	return v
}

// ----------------------------------------------------------------------------
// HTTP provider (Ollama-compatible)

// HTTPProvider calls an Ollama-style POST /api/embeddings endpoint.
type HTTPProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPProvider constructs an HTTPProvider. Empty arguments fall back to
// the local Ollama default and the nomic-embed-text model. The timeout bounds
// every Embed call; a timeout surfaces as ErrUnavailable.
func NewHTTPProvider(baseURL, model string, timeout time.Duration) *HTTPProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements Provider. Transport failures, timeouts, and non-200
// responses are all reported as ErrUnavailable so the caller's degraded mode
// does not depend on failure flavor.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out embedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrUnavailable)
	}
	return Normalize(out.Embedding), nil
}

// Model implements Provider.
func (p *HTTPProvider) Model() string { return p.model }

// ----------------------------------------------------------------------------
// Deterministic hash provider

// HashProvider embeds text by hashing word tokens into a fixed number of
// buckets weighted by term frequency. It is deterministic, needs no network,
// and keeps texts with shared vocabulary close in cosine space. Quality is
// well below a learned model; it exists for tests and offline fallback.
type HashProvider struct {
	dim int
}

// NewHashProvider constructs a HashProvider with the given dimension
// (default 256 when dim <= 0).
func NewHashProvider(dim int) *HashProvider {
	if dim <= 0 {
		dim = 256
	}
	return &HashProvider{dim: dim}
}

var hashWordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// Embed implements Provider. It never fails.
func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	v := make([]float64, p.dim)
	for _, tok := range hashWordRE.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[int(h.Sum32())%p.dim]++
	}
	return Normalize(v), nil
}

// Model implements Provider.
func (p *HashProvider) Model() string { return fmt.Sprintf("hash-%d", p.dim) }
