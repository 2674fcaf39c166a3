package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"simple key", "test", "emojiblog:test"},
		{"key with colon", "tags:all", "emojiblog:tags:all"},
		{"empty key", "", "emojiblog:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := cache.namespaceKey(tt.key); result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Get() err = %v, want ErrCacheDisabled", err)
	}
	if err := c.SetJSON(ctx, "k", []string{"a"}, time.Minute); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("SetJSON() err = %v, want ErrCacheDisabled", err)
	}
	if err := c.Delete(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Delete() err = %v, want ErrCacheDisabled", err)
	}
	if c.Scripter() != nil {
		t.Error("Scripter() should be nil when disabled")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() err = %v", err)
	}
}
