package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/pkg/book"
	"github.com/marketgrid/limitbook/pkg/sequence"
	"github.com/marketgrid/limitbook/pkg/service"
	"github.com/marketgrid/limitbook/pkg/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)

	svc := service.New(book.New(), sequence.New(0), store, zap.NewNop().Sugar(), service.WriterConfig{})
	srv := httptest.NewServer(NewServer(svc, zap.NewNop().Sugar()).Handler())
	t.Cleanup(func() {
		srv.Close()
		svc.Close()
		store.Close()
	})
	return srv
}

func postOrder(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeOrder(t *testing.T, resp *http.Response) OrderResponse {
	t.Helper()
	defer resp.Body.Close()
	var o OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	return o
}

func TestCreateOrder(t *testing.T) {
	srv := newTestServer(t)

	resp := postOrder(t, srv, `{"side":"Buy","price":100,"quantity":10}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	o := decodeOrder(t, resp)
	assert.Equal(t, uint64(1), o.ID)
	assert.Equal(t, "Buy", o.Side)
	assert.Equal(t, "Open", o.Status)
	assert.Equal(t, int64(10), o.RemainingQuantity)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"side":`},
		{"unknown side", `{"side":"Hold","price":100,"quantity":10}`},
		{"zero price", `{"side":"Buy","price":0,"quantity":10}`},
		{"negative quantity", `{"side":"Sell","price":100,"quantity":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postOrder(t, srv, tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateOrderReportsFillState(t *testing.T) {
	srv := newTestServer(t)

	postOrder(t, srv, `{"side":"Buy","price":100,"quantity":10}`).Body.Close()

	resp := postOrder(t, srv, `{"side":"Sell","price":100,"quantity":10}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decodeOrder(t, resp)
	assert.Equal(t, "Filled", o.Status)
	assert.Equal(t, int64(0), o.RemainingQuantity)
}

func TestModifyOrder(t *testing.T) {
	srv := newTestServer(t)

	created := decodeOrder(t, postOrder(t, srv, `{"side":"Buy","price":100,"quantity":10}`))

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/orders/%d", srv.URL, created.ID), `{"quantity":4}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	o := decodeOrder(t, resp)
	assert.Equal(t, int64(4), o.RemainingQuantity)
	assert.Equal(t, "PartiallyFilled", o.Status)
}

func TestModifyUnknownOrderIs404(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/orders/999", `{"quantity":5}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelOrder(t *testing.T) {
	srv := newTestServer(t)

	created := decodeOrder(t, postOrder(t, srv, `{"side":"Sell","price":100,"quantity":10}`))

	url := fmt.Sprintf("%s/orders/%d", srv.URL, created.ID)
	resp := doJSON(t, http.MethodDelete, url, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	o := decodeOrder(t, resp)
	assert.Equal(t, "Cancelled", o.Status)

	// Cancelling again: the id is terminal, gone from both sides.
	resp = doJSON(t, http.MethodDelete, url, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadOrderIDIs400(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/orders/abc", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderbookSnapshot(t *testing.T) {
	srv := newTestServer(t)

	postOrder(t, srv, `{"side":"Buy","price":99,"quantity":7}`).Body.Close()
	postOrder(t, srv, `{"side":"Buy","price":100,"quantity":5}`).Body.Close()
	postOrder(t, srv, `{"side":"Sell","price":105,"quantity":3}`).Body.Close()

	resp, err := http.Get(srv.URL + "/orderbook")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap BookSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, int64(100), snap.Bids[0].Price) // best bid first
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, int64(105), snap.Asks[0].Price)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
