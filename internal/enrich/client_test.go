package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UnconfiguredIsUnavailable(t *testing.T) {
	c := NewClient("")
	assert.False(t, c.Configured())

	_, err := c.TokenStats(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrUnavailable, "a missing key hides the feature, it does not break it")
}

func TestClient_TokenStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Endpoint string `json:"endpoint"`
			Address  string `json:"address"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "token-stats", req.Endpoint)
		assert.Equal(t, "addr", req.Address)

		fmt.Fprint(w, `{
			"holders": [{"address": "whale", "percent": 12.5}],
			"topTenPercent": 41.0,
			"priceChange7d": -30.2,
			"priceChange30d": 120.0,
			"buys24h": 900,
			"sells24h": 400
		}`)
	}))
	defer srv.Close()

	stats, err := NewClient(srv.URL).TokenStats(context.Background(), "addr")
	require.NoError(t, err)
	require.Len(t, stats.Holders, 1)
	assert.Equal(t, 41.0, stats.TopTenPercent)
	assert.Equal(t, 900, stats.Buys24h)
}
