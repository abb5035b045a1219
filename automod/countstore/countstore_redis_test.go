package countstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisCountStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCountStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	before, err := cs.GetCount(ctx, "test-join", "g1", PeriodTotal)
	assert.NoError(err)
	assert.NoError(cs.Increment(ctx, "test-join", "g1"))
	after, err := cs.GetCount(ctx, "test-join", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(before+1, after)

	assert.NoError(cs.IncrementDistinct(ctx, "test-removed-user", "g1", "u1"))
	assert.NoError(cs.IncrementDistinct(ctx, "test-removed-user", "g1", "u1"))
	c, err := cs.GetCountDistinct(ctx, "test-removed-user", "g1", PeriodHour)
	assert.NoError(err)
	assert.Equal(1, c)
}
