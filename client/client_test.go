package client

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedClientEnforcesOneRequestBudget(t *testing.T) {
	baseURL, err := url.Parse("https://example.com/api/v1")
	require.Nil(t, err)
	httpClient := NewAsyncHttpClient(baseURL, "test-agent", 2)

	// two callers drawing from the same client share its two slots
	require.Nil(t, httpClient.waitUntilRequestAllowed(context.Background()))
	require.Nil(t, httpClient.waitUntilRequestAllowed(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, httpClient.waitUntilRequestAllowed(ctx), context.DeadlineExceeded)
}
