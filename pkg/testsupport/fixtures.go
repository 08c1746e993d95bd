// Package testsupport builds throwaway stores and seed rows for package tests.
package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/logger"
)

var dbSeq atomic.Int64

// NewDB opens a migrated in-memory sqlite database private to the test
func NewDB(t testing.TB) *database.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, dbSeq.Add(1))

	client, err := database.NewClient(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := client.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// NewRedis starts a miniredis server and a client connected to it
func NewRedis(t testing.TB) (*cache.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

// NewCache returns a read-through cache over miniredis
func NewCache(t testing.TB) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	client, mr := NewRedis(t)
	return cache.New(client, logger.Nop(), nil), mr
}
