package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker("secret")

	tok, err := tm.New("admin", time.Minute)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", c.Username)
	assert.Equal(t, "admin", c.Subject)
	assert.NotEmpty(t, c.ID)

	other, err := tm.New("admin", time.Minute)
	require.NoError(t, err)
	c2, err := tm.Parse(other)
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, c2.ID)
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := NewTokenMaker("secret")

	expired, err := tm.New("admin", -time.Minute)
	require.NoError(t, err)
	_, err = tm.Parse(expired)
	assert.Error(t, err)

	foreign, err := NewTokenMaker("other").New("admin", time.Minute)
	require.NoError(t, err)
	_, err = tm.Parse(foreign)
	assert.Error(t, err)

	_, err = tm.Parse("not-a-token")
	assert.Error(t, err)
}
