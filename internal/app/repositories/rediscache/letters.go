// Package rediscache decorates repositories with a Redis read-through cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models"
	"github.com/yigit/admissions/internal/app/repositories"
)

// PrefixLetter namespaces letter artifact keys
const PrefixLetter = "admissions:letter:"

// Config holds Redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// LetterKey returns the cache key of an artifact
func LetterKey(applicationID string, letterType models.LetterType) string {
	return PrefixLetter + applicationID + ":" + string(letterType)
}

// LetterRepository serves artifact lookups from Redis before the wrapped store.
// Artifacts never change once stored, so entries are never invalidated, only expired.
// Redis failures degrade to the store and are logged.
type LetterRepository struct {
	next   repositories.LetterRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLetterRepository wraps next with a cache
func NewLetterRepository(next repositories.LetterRepository, client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *LetterRepository {
	return &LetterRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// Get implements repositories.LetterRepository
func (r *LetterRepository) Get(ctx context.Context, applicationID string, letterType models.LetterType) (*models.LetterArtifact, error) {
	key := LetterKey(applicationID, letterType)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var artifact models.LetterArtifact
		if jsonErr := json.Unmarshal(data, &artifact); jsonErr == nil {
			return &artifact, nil
		}
		r.logger.Warn().Str("key", key).Msg("Discarding undecodable cached letter")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("key", key).Msg("Letter cache read failed")
	}

	artifact, err := r.next.Get(ctx, applicationID, letterType)
	if err != nil {
		return nil, err
	}
	r.store(ctx, artifact)
	return artifact, nil
}

// Create implements repositories.LetterRepository. Only the winner of the store insert is cached.
func (r *LetterRepository) Create(ctx context.Context, artifact *models.LetterArtifact) error {
	if err := r.next.Create(ctx, artifact); err != nil {
		return err
	}
	r.store(ctx, artifact)
	return nil
}

// ListByApplication implements repositories.LetterRepository without caching
func (r *LetterRepository) ListByApplication(ctx context.Context, applicationID string) ([]*models.LetterArtifact, error) {
	return r.next.ListByApplication(ctx, applicationID)
}

func (r *LetterRepository) store(ctx context.Context, artifact *models.LetterArtifact) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return
	}
	key := LetterKey(artifact.ApplicationID, artifact.LetterType)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Letter cache write failed")
	}
}
