// Package secrets loads the Riot API credential from AWS Secrets Manager
// with an in-process cache, so the secret is fetched once per cold start.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretAPI is the subset of the Secrets Manager client we need
type SecretAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Provider resolves and caches secret values by id
type Provider struct {
	client SecretAPI

	mu    sync.Mutex
	cache map[string]string
}

// NewProvider creates a Provider on top of a Secrets Manager client
func NewProvider(client SecretAPI) *Provider {
	return &Provider{
		client: client,
		cache:  make(map[string]string),
	}
}

// keys probed inside JSON-shaped secrets, in order
var apiKeyFields = []string{"api_key", "RIOT_API_KEY", "API_KEY"}

// APIKey returns the Riot API key stored under secretID. JSON secrets are
// probed for the usual field names; anything else is treated as the raw key.
func (p *Provider) APIKey(ctx context.Context, secretID string) (string, error) {
	p.mu.Lock()
	if v, ok := p.cache[secretID]; ok {
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}

	key, err := extractAPIKey(*out.SecretString)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", secretID, err)
	}

	p.mu.Lock()
	p.cache[secretID] = key
	p.mu.Unlock()

	return key, nil
}

// Invalidate drops a cached secret so the next read refetches it.
// Called when the upstream rejects the credential.
func (p *Provider) Invalidate(secretID string) {
	p.mu.Lock()
	delete(p.cache, secretID)
	p.mu.Unlock()
}

func extractAPIKey(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		if trimmed == "" {
			return "", fmt.Errorf("empty secret value")
		}
		return trimmed, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return "", fmt.Errorf("failed to parse secret json: %w", err)
	}

	for _, name := range apiKeyFields {
		if v := strings.TrimSpace(fields[name]); v != "" {
			return v, nil
		}
	}

	return "", fmt.Errorf("no api key field in secret json")
}
