package database

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators-club/internal/common/config"
)

// ==========================
// Postgres
// ==========================

func TestMigrate_AppliesEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS creator_applications").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_creator_applications_email").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").WillReturnResult(sqlmock.NewResult(0, 0))

	client := &PostgresClient{DB: db}
	require.NoError(t, client.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS creator_applications").WillReturnError(errors.New("permission denied"))

	err = (&PostgresClient{DB: db}).Migrate(context.Background())
	assert.ErrorContains(t, err, "migration step 1")
}

// ==========================
// Redis
// ==========================

func TestClaim_OnlyFirstCallerWins(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	ok, err := client.Claim(ctx, "intake:dedup:a@a.com", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Claim(ctx, "intake:dedup:a@a.com", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = client.Claim(ctx, "intake:dedup:a@a.com", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, client.Release(ctx, "intake:dedup:a@a.com"))
	assert.False(t, mr.Exists("intake:dedup:a@a.com"))
}

func TestClaim_WrapsRedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectSetNX("k", "v", time.Second).SetErr(redis.ErrClosed)

	_, err := NewRedisFromClient(rdb).Claim(context.Background(), "k", "v", time.Second)
	assert.ErrorIs(t, err, redis.ErrClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch
// ==========================

type esStub struct {
	mu       sync.Mutex
	exists   bool
	requests []string
	bodies   []string
}

func (s *esStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := io.ReadAll(r.Body)
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.bodies = append(s.bodies, string(b))

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead && s.exists:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		s.exists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func TestEnsureIndex_CreatesOnce(t *testing.T) {
	stub := &esStub{}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, es.EnsureIndex(ctx, "creator-applications"))
	require.NoError(t, es.EnsureIndex(ctx, "creator-applications"))

	assert.Equal(t, []string{
		"HEAD /creator-applications",
		"PUT /creator-applications",
		"HEAD /creator-applications",
	}, stub.requests)
	assert.Contains(t, stub.bodies[1], `"currentStatus"`)
}

func TestElasticsearchPing(t *testing.T) {
	srv := httptest.NewServer(&esStub{})
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	assert.NoError(t, es.Ping(context.Background()))
}
