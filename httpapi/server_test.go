package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/binrange"
	"github.com/hupe1980/binrange/model"
)

const presBody = `{
	"serialNum": "123",
	"messageType": "PRes",
	"dsTransID": "26f2e8e3-be88-4060-8591-1d4a44cb6f4f",
	"cardRangeData": [
		{
			"startRange": "4000020000000000",
			"endRange": "4000020009999999",
			"threeDSMethodURL": "https://example.com/wide"
		},
		{
			"startRange": "4000020002000000",
			"endRange": "4000020002009999",
			"threeDSMethodURL": "https://example.com/narrow"
		}
	]
}`

func newTestServer(t *testing.T, optFns ...func(*Options)) *httptest.Server {
	t.Helper()

	store := binrange.New(binrange.WithShuffleSeed(1))
	srv := httptest.NewServer(New(store, optFns...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestStoreAndLookup(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/3ds/store", presBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("NarrowRangeWins", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url?pan=4000020002000500")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var r model.CardRange
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
		assert.Equal(t, "https://example.com/narrow", r.ThreeDSMethodURL)
	})

	t.Run("WideRangeOutsideNarrow", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url?pan=4000020005000000")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var r model.CardRange
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
		assert.Equal(t, "https://example.com/wide", r.ThreeDSMethodURL)
	})

	t.Run("MissIs404", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url?pan=9999999999999999")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, http.StatusNotFound, body.Status)
		assert.Equal(t, "Not Found", body.Error)
		assert.Contains(t, body.Message, "9999999999999999")
		assert.Equal(t, "/api/3ds/method-url", body.Path)
		assert.NotEmpty(t, body.Timestamp)
	})
}

func TestLookupValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("MissingPAN", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("NonNumericPAN", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url?pan=abc")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, resp).Message, "must be a number")
	})

	t.Run("NegativePAN", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/method-url?pan=-5")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, resp).Message, "negative")
	})
}

func TestStoreValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("MalformedJSON", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/3ds/store", "{not json")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Bad Request", decodeError(t, resp).Error)
	})

	t.Run("MissingCardRangeData", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/3ds/store", `{"messageType":"PRes"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("InvalidRangeInBatch", func(t *testing.T) {
		body := `{"cardRangeData":[{"startRange":"200","endRange":"100"}]}`
		resp := postJSON(t, srv.URL+"/api/3ds/store", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, resp).Message, "startRange")

		// The invalid batch must not have stored anything.
		lookup := get(t, srv.URL+"/api/3ds/method-url?pan=150")
		assert.Equal(t, http.StatusNotFound, lookup.StatusCode)
	})
}

func TestStoreTimes(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/3ds/store-times", presBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var timings storeTimings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&timings))
	assert.GreaterOrEqual(t, timings.TotalMillis, timings.SaveMillis)

	lookup := get(t, srv.URL+"/api/3ds/method-url?pan=4000020005000000")
	assert.Equal(t, http.StatusOK, lookup.StatusCode)
}

func TestReset(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/3ds/store", presBody).StatusCode)
	require.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/3ds/reset", "").StatusCode)

	resp := get(t, srv.URL+"/api/3ds/method-url?pan=4000020005000000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t)

	t.Run("UnknownPath", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/unknown")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "The requested path does not exist.", body.Message)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		resp := get(t, srv.URL+"/api/3ds/store")
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "POST", resp.Header.Get("Allow"))
		assert.Equal(t, "Method Not Allowed", decodeError(t, resp).Error)
	})
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.RateLimit = 1
		o.Burst = 1
	})

	first := get(t, srv.URL+"/api/3ds/method-url?pan=1")
	require.Equal(t, http.StatusNotFound, first.StatusCode)

	second := get(t, srv.URL+"/api/3ds/method-url?pan=1")
	require.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "Too Many Requests", decodeError(t, second).Error)
}

func TestPayloadTooLarge(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.MaxBodyBytes = 64
	})

	resp := postJSON(t, srv.URL+"/api/3ds/store", presBody)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
