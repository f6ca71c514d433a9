package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute)
	c.Invalidate(ctx, "k*")

	var out map[string]int
	assert.False(t, c.Get(ctx, "k", &out))

	var nilCache *Cache
	assert.False(t, nilCache.Get(ctx, "k", &out))
}
