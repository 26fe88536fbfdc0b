package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi/auth"
)

func TestRandomIssuer(t *testing.T) {
	var issuer auth.RandomIssuer

	first, err := issuer.Issue()
	require.NoError(t, err)
	second, err := issuer.Issue()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	id, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
}
