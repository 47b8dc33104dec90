package click

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestGateway(rt http.RoundTripper) *httpGateway {
	gw := NewGateway("https://api.click.test/v2/merchant", testCreds, &http.Client{Transport: rt}).(*httpGateway)
	gw.now = func() time.Time { return time.Unix(1714557600, 0) }
	return gw
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestHTTPGateway_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, "https://api.click.test/v2/merchant/invoice/create", req.URL.String())
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, "300:ab38bb6baeeb25b0e06eadd16c33f1ac03a9873f:1714557600", req.Header.Get("Auth"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "22", body["service_id"])

			return jsonResponse(http.StatusOK, `{"error_code":0,"error_note":"Success","invoice_id":1234}`)
		}))

		reply, err := gw.Send(ctx, http.MethodPost, "invoice/create", map[string]any{"service_id": "22"})
		require.NoError(t, err)
		assert.Equal(t, 0, reply.ErrorCode())
		assert.Equal(t, "Success", reply.Note())
		assert.Equal(t, "1234", reply.value("invoice_id"))
	})

	t.Run("GET has no body", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "GET", req.Method)
			assert.Equal(t, "/v2/merchant/payment/status/22/987", req.URL.Path)
			assert.Equal(t, int64(0), req.ContentLength)
			return jsonResponse(http.StatusOK, `{"error_code":0,"status":2}`)
		}))

		reply, err := gw.Send(ctx, http.MethodGet, "payment/status/22/987", nil)
		require.NoError(t, err)
		assert.Equal(t, float64(2), reply["status"])
	})

	t.Run("Non-200 is fatal", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			resp := jsonResponse(http.StatusForbidden, `{"error_code":0}`)
			resp.Status = "403 Forbidden"
			return resp
		}))

		reply, err := gw.Send(ctx, http.MethodDelete, "payment/reversal/22/1", nil)
		assert.Nil(t, reply)
		ce, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, ErrInsufficientPrivilege, ce.Code)
		assert.Equal(t, "Forbidden", ce.Note)
	})

	t.Run("Non-object body decodes empty", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `<html>maintenance</html>`)
		}))

		reply, err := gw.Send(ctx, http.MethodGet, "invoice/status/22/1", nil)
		require.NoError(t, err)
		assert.Empty(t, reply)
		assert.Equal(t, -1, reply.ErrorCode())
		assert.Nil(t, reply.Note())
	})

	t.Run("Transport failure", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}))

		_, err := gw.Send(ctx, http.MethodGet, "invoice/status/22/1", nil)
		ce, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, ErrInsufficientPrivilege, ce.Code)
		assert.Contains(t, ce.Note, "connection refused")
	})
}

func TestNewGateway_Defaults(t *testing.T) {
	gw := NewGateway("", testCreds, nil).(*httpGateway)
	assert.Equal(t, DefaultEndpoint, gw.endpoint)
	assert.Equal(t, 15*time.Second, gw.httpClient.Timeout)
}

func TestReply_ErrorCode(t *testing.T) {
	assert.Equal(t, -1, Reply{}.ErrorCode())
	assert.Equal(t, 0, Reply{"error_code": "0"}.ErrorCode())
	assert.Equal(t, -5017, Reply{"error_code": float64(-5017)}.ErrorCode())
}
