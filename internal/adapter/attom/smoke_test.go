//go:build smoke

package attom

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real ATTOM API and require ATTOM_API_KEY.
// Run with: go test -tags=smoke ./internal/adapter/attom/ -v -count=1

func TestSmoke_Fetch(t *testing.T) {
	key := os.Getenv("ATTOM_API_KEY")
	if key == "" {
		t.Fatal("ATTOM_API_KEY must be set to run smoke tests")
	}

	got, err := NewClient(key, "", 10*time.Second, discardLogger()).Fetch(context.Background(), testAddr)
	require.NoError(t, err)
	require.False(t, got.Empty())
	assert.NotEmpty(t, got.Record.ParcelNumber)
	assert.NotNil(t, got.Record.AssessedValue)
}
