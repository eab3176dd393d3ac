package pricesource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiBody = `{"coins":{"sui:0x2::sui::SUI":{"decimals":9,"symbol":"SUI","price":1.23,"timestamp":1700000000,"confidence":0.99}}}`

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://coins.llama.fi/prices/current/")

		assert.Equal(t, "https://coins.llama.fi/prices/current/", c.baseURL)
		assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
		assert.Equal(t, 2, c.maxRetries)
		assert.Equal(t, DefaultRetryBackoff, c.retryBackoff)
		assert.NotNil(t, c.logger)
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		hc := &http.Client{}
		c := NewClient("https://example.com/",
			WithHTTPClient(hc),
			WithTimeout(3*time.Second),
			WithRetries(5, time.Millisecond),
			WithLogger(logger),
		)
		assert.Same(t, hc, c.httpClient)
		assert.Equal(t, 3*time.Second, hc.Timeout)
		assert.Equal(t, 5, c.maxRetries)
		assert.Equal(t, time.Millisecond, c.retryBackoff)
		assert.Same(t, logger, c.logger)
	})

	t.Run("negative retries disable retrying", func(t *testing.T) {
		c := NewClient("https://example.com/", WithRetries(-1, time.Millisecond))
		assert.Equal(t, 0, c.maxRetries)
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status, Message: http.StatusText(tt.status)}
		assert.Equal(t, tt.retryable, err.IsRetryable(), "status %d", tt.status)
	}
}

func TestGetPrice(t *testing.T) {
	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(suiBody))
	}))
	defer server.Close()

	c := NewClient(server.URL + "/prices/current/")
	report, err := c.GetPrice(context.Background(), "sui:0x2::sui::SUI")
	require.NoError(t, err)

	assert.Equal(t, "/prices/current/sui:0x2::sui::SUI", gotPath)
	assert.Equal(t, "application/json", gotAccept)

	info, ok := report.Coins["sui:0x2::sui::SUI"]
	require.True(t, ok, "coins = %v, missing address", report.Coins)
	assert.Equal(t, 1.23, info.Price)
	assert.Equal(t, "SUI", info.Symbol)
	assert.Equal(t, uint64(9), info.Decimals)
}

func TestGetPrice_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(suiBody))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithRetries(3, time.Millisecond))
	_, err := c.GetPrice(context.Background(), "sui:0x2::sui::SUI")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetPrice_NoRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithRetries(-1, time.Millisecond))
	_, err := c.GetPrice(context.Background(), "0xabc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPrice_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithRetries(3, time.Millisecond))
	_, err := c.GetPrice(context.Background(), "0xabc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPrice_MaxRetriesExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", WithRetries(1, time.Millisecond))
	_, err := c.GetPrice(context.Background(), "0xabc")
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestGetPrice_BadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"invalid json", `{"coins":`, nil},
		{"empty coins", `{"coins":{}}`, ErrEmptyReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL + "/")
			_, err := c.GetPrice(context.Background(), "0xabc")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetPrice_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL+"/", WithRetries(3, time.Second))
	_, err := c.GetPrice(ctx, "0xabc")
	assert.Error(t, err)
}
