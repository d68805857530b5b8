// Package tsa talks to the trusted timestamp authority. The authority itself
// is an external collaborator: this client only defines the request/response
// exchange and classifies its failures.
package tsa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/notifica-api/internal/config"
	"github.com/notifica-api/internal/domain"
)

// Token is the authority's proof that a document hash existed at a point in
// time, plus the URL where third parties verify it.
type Token struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Client requests timestamp tokens for document hashes.
type Client interface {
	Timestamp(ctx context.Context, documentHash string) (*Token, error)
}

type client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) Client {
	return &client{
		baseURL: cfg.TSAURL,
		http:    &http.Client{Timeout: cfg.TSATimeout},
	}
}

type timestampRequest struct {
	Hash string `json:"hash"`
}

// Timestamp posts the hash to the authority. Network errors and 5xx replies
// are transient; an explicit 4xx rejection or an unparseable reply is
// permanent because resubmitting the same hash cannot change the outcome.
func (c *client) Timestamp(ctx context.Context, documentHash string) (*Token, error) {
	payload, err := json.Marshal(timestampRequest{Hash: documentHash})
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/timestamp", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build timestamp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timestamp authority unreachable: %s: %w", err, domain.ErrCollaboratorTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("timestamp authority returned %d: %w", resp.StatusCode, domain.ErrCollaboratorTransient)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("timestamp authority rejected hash (%d): %w", resp.StatusCode, domain.ErrCollaboratorPermanent)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("malformed timestamp response: %s: %w", err, domain.ErrCollaboratorPermanent)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("timestamp response missing token: %w", domain.ErrCollaboratorPermanent)
	}
	return &token, nil
}
