// Package secrets resolves sensitive settings from the environment or
// AWS Secrets Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// Backends
const (
	BackendEnv = "env"
	BackendAWS = "aws"
)

// ErrNotFound is returned when a secret has no value
var ErrNotFound = errors.New("secret not found")

// Manager looks up secrets by key
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string
	AWSRegion     string
	Prefix        string // prepended to keys when building AWS secret ids
	CacheDuration time.Duration
}

// NewManager creates a manager for cfg.Backend
func NewManager(cfg Config) (Manager, error) {
	switch cfg.Backend {
	case BackendAWS, "aws-secrets-manager":
		return NewAWSManager(cfg)
	case "", BackendEnv, "environment":
		return NewEnvManager(os.LookupEnv), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvManager reads secrets from environment variables
type EnvManager struct {
	lookup func(string) (string, bool)
}

// NewEnvManager creates a manager over lookup, normally os.LookupEnv
func NewEnvManager(lookup func(string) (string, bool)) *EnvManager {
	return &EnvManager{lookup: lookup}
}

func (m *EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	v, ok := m.lookup(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// secretValueGetter is the part of the Secrets Manager client in use
type secretValueGetter interface {
	GetSecretValueWithContext(aws.Context, *secretsmanager.GetSecretValueInput, ...request.Option) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// AWSManager reads string secrets from AWS Secrets Manager and caches them
type AWSManager struct {
	client secretValueGetter
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewAWSManager creates a Secrets Manager client for cfg.AWSRegion
func NewAWSManager(cfg Config) (*AWSManager, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return newAWSManager(secretsmanager.New(sess), cfg), nil
}

func newAWSManager(client secretValueGetter, cfg Config) *AWSManager {
	if cfg.CacheDuration <= 0 {
		cfg.CacheDuration = 5 * time.Minute
	}
	return &AWSManager{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.CacheDuration,
		now:    time.Now,
		cache:  make(map[string]cachedSecret),
	}
}

func (m *AWSManager) GetSecret(ctx context.Context, key string) (string, error) {
	id := m.prefix + key

	m.mu.RLock()
	cached, ok := m.cache[id]
	m.mu.RUnlock()
	if ok && m.now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	out, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("%w: %s has no string value", ErrNotFound, id)
	}

	m.mu.Lock()
	m.cache[id] = cachedSecret{value: *out.SecretString, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return *out.SecretString, nil
}
