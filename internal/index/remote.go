// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshintel/newsgraph/internal/httputil"
	"github.com/meshintel/newsgraph/pkg/types"
)

// Remote queries a vector-search service instead of the in-process HNSW
// graph. The service fronts the same embedding space; it is used when the
// corpus outgrows a single process.
type Remote struct {
	cfg    types.IndexConfig
	client *http.Client
	ctx    context.Context
}

// NewRemote builds a client for the service at cfg.BaseURL. The context
// bounds every query issued through the returned index.
func NewRemote(ctx context.Context, cfg types.IndexConfig) *Remote {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		ctx:    ctx,
	}
}

type searchRequest struct {
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
}

type searchResponse struct {
	Results []struct {
		ID    int64   `json:"id"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Ready probes the service health endpoint.
func (r *Remote) Ready() bool {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	r.decorate(req)
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// NearestNeighbors posts a k-NN query to the service.
func (r *Remote) NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error) {
	body, err := json.Marshal(searchRequest{Vector: vec, K: k})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(r.ctx, http.MethodPost, r.cfg.BaseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.decorate(req)

	// Cloning on retry needs a rewindable body.
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := httputil.DoWithRetry(r.ctx, r.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("querying vector service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vector service returned %d: %s", resp.StatusCode, msg)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	out := make([]types.Neighbor, 0, len(sr.Results))
	for _, res := range sr.Results {
		out = append(out, types.Neighbor{ArticleID: res.ID, Score: res.Score})
	}
	return out, nil
}

func (r *Remote) decorate(req *http.Request) {
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}
	if r.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", r.cfg.APIKey)
	}
}
