package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/SergeiKhy/sus/internal/repository"
)

// startPostgres поднимает контейнер PostgreSQL и применяет схему
func startPostgres(t *testing.T) *repository.PostgresDB {
	t.Helper()
	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sus"),
		postgres.WithUsername("sus"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := repository.NewPostgresDB(ctx, config.DBConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Port(),
		User:     "sus",
		Password: "password",
		Name:     "sus",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, repository.MigratePostgres(ctx, db))
	require.NoError(t, repository.MigratePostgres(ctx, db))

	return db
}

// startRedis поднимает контейнер Redis
func startRedis(t *testing.T) *repository.RedisDB {
	t.Helper()
	ctx := t.Context()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := repository.NewRedisClient(ctx, config.RedisConfig{
		Host: host,
		Port: port.Port(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestIntegration_PostgresLinkRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	db := startPostgres(t)
	runLinkRepositoryTests(t, repository.NewLinkRepository(db))
}

func TestIntegration_CacheRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	rdb := startRedis(t)
	cache := repository.NewCacheRepository(rdb)
	ctx := context.Background()

	_, err := cache.Get(ctx, "abc123")
	assert.ErrorIs(t, err, redis.Nil)

	link := &models.Link{
		ID:          "0b6f1c4e-8a44-4b55-9d5b-2f0f0d7c2a11",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, link.ShortCode, link, time.Minute))

	got, err := cache.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, link.OriginalURL, got.OriginalURL)
	assert.True(t, link.CreatedAt.Equal(got.CreatedAt))

	ttl, err := rdb.Client.TTL(ctx, "link:abc123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, "abc123"))
	_, err = cache.Get(ctx, "abc123")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestIntegration_SessionRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	rdb := startRedis(t)
	sessions := repository.NewSessionRepository(rdb)
	ctx := context.Background()

	revoked, err := sessions.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, sessions.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = sessions.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Истёкшую сессию отзывать не нужно
	require.NoError(t, sessions.Revoke(ctx, "jti-2", 0))
	revoked, err = sessions.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
