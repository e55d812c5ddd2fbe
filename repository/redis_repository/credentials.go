package redis_repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ecopulse/ecopulse/repository"
)

// credentialKey is the fixed key the publish token is cached under.
const credentialKey = "ecopulse:publish:credential"

// redisCredentialRepository implements CredentialRepository using Redis
type redisCredentialRepository struct {
	client *redis.Client
}

func NewCredentialRepository(client *redis.Client) repository.CredentialRepository {
	return &redisCredentialRepository{client: client}
}

func (r *redisCredentialRepository) SaveToken(ctx context.Context, token string) error {
	return r.client.Set(ctx, credentialKey, token, 0).Err()
}

func (r *redisCredentialRepository) LoadToken(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, credentialKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}
