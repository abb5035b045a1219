package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisFlagStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	fs, err := NewRedisFlagStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	l, err := fs.Get(ctx, "someuser")
	assert.NoError(err)
	assert.Empty(l)

	assert.NoError(fs.Add(ctx, "someuser", []string{"kick-account-too-new", "kick-suspicious-profile"}))
	assert.NoError(fs.Add(ctx, "someuser", []string{"kick-account-too-new"}))
	l, err = fs.Get(ctx, "someuser")
	assert.NoError(err)
	assert.Equal([]string{"kick-account-too-new", "kick-suspicious-profile"}, l)

	assert.NoError(fs.Remove(ctx, "someuser", []string{"kick-account-too-new", "kick-suspicious-profile"}))
	l, err = fs.Get(ctx, "someuser")
	assert.NoError(err)
	assert.Empty(l)
}
