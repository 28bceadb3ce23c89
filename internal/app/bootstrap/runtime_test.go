package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/aria-bots/internal/config"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

func TestBuildRedisClient_DisabledWithoutAddr(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true); client != nil {
		t.Fatal("expected nil client without REDIS_ADDR")
	}
	if client := BuildRedisClient(context.Background(), nil, nil, false); client != nil {
		t.Fatal("expected nil client for nil config")
	}
}

func TestBuildRedisClient_VerifiesConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Discard(), true)
	if client == nil {
		t.Fatal("expected client for reachable redis")
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestBuildRedisClient_UnreachableFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Discard(), true); client != nil {
		t.Fatal("expected nil client when ping fails")
	}
}

func TestBuildRedisClient_SkipsVerification(t *testing.T) {
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "127.0.0.1:1"}, logging.Discard(), false)
	if client == nil {
		t.Fatal("expected unverified client")
	}
	_ = client.Close()
}

func TestBuildPostgresPool_DisabledWithoutURL(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), &appconfig.Config{}, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatal("expected nil pool without DATABASE_URL")
	}
}

func TestBuildPostgresPool_InvalidURL(t *testing.T) {
	_, err := BuildPostgresPool(context.Background(), &appconfig.Config{DatabaseURL: "postgres://%zz"}, logging.Discard())
	if err == nil {
		t.Fatal("expected error for malformed DATABASE_URL")
	}
}
