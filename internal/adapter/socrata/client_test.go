package socrata

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `[
	{"uniqueid":"1","dateofbite":"2018-01-09T00:00:00.000","species":"DOG","breed":"Pit Bull","age":"2 years","gender":"M","spayneuter":"true","borough":"Brooklyn","zipcode":"11221"},
	{"uniqueid":"2","dateofbite":"2018-02-01T00:00:00.000","breed":"UNKNOWN","gender":"U","spayneuter":"false","borough":"Queens","zipcode":""}
]`

func newTestClient(t *testing.T, handler http.Handler, maxTries uint) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 30000, 2*time.Second, maxTries, slog.Default())
	return c, srv
}

func TestClient_Fetch(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		var gotLimit atomic.Value
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit.Store(r.URL.Query().Get("$limit"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleBody)) //nolint:errcheck
		}), 3)

		records, err := c.Fetch(context.Background())

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "30000", gotLimit.Load(), "explicit limit override must be sent")
		assert.Equal(t, "Pit Bull", records[0].Breed)
		assert.Equal(t, "11221", records[0].ZipCode)
		assert.Equal(t, "2018-02-01T00:00:00.000", records[1].DateOfBite)
	})

	t.Run("unknown upstream fields are ignored", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`[{"uniqueid":"9","dateofbite":"2019-05-01","species":"DOG","some_new_column":"x"}]`)) //nolint:errcheck
		}), 1)

		records, err := c.Fetch(context.Background())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "9", records[0].UniqueID)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(sampleBody)) //nolint:errcheck
		}), 5)

		var retries atomic.Int32
		c.OnRetry = func() { retries.Add(1) }

		records, err := c.Fetch(context.Background())

		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, int32(2), retries.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}), 5)

		_, err := c.Fetch(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed payload is fatal", func(t *testing.T) {
		var calls atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Write([]byte(`{"not":"an array"`)) //nolint:errcheck
		}), 5)

		_, err := c.Fetch(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retry budget exhausted", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}), 2)

		_, err := c.Fetch(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch incidents")
	})
}
