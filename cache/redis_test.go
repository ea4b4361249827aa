package cache

import (
	"context"
	"testing"
	"time"

	"cyberguard/models"
)

func TestHelpers_WithoutRedis(t *testing.T) {
	RDB = nil
	ctx := context.Background()

	if err := Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set without redis: %v", err)
	}
	var v map[string]any
	ok, err := GetJSON(ctx, "k", &v)
	if err != nil || ok {
		t.Fatalf("GetJSON without redis = (%v, %v), want miss", ok, err)
	}
}

func TestStatusCache_Miss(t *testing.T) {
	RDB = nil
	c := StatusCache{TTL: time.Minute}
	c.SetStatus(context.Background(), &models.Status{GeminiAvailable: true})
	if st, ok := c.GetStatus(context.Background()); ok || st != nil {
		t.Fatalf("GetStatus without redis = (%v, %v), want miss", st, ok)
	}
}

func TestInitRedis_EmptyURL(t *testing.T) {
	RDB = nil
	InitRedis(context.Background(), "")
	if RDB != nil {
		t.Fatal("RDB should stay nil for an empty url")
	}
}
