package finnhub_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketcompanion/internal/evidence"
	finnhub "marketcompanion/internal/source/finnhub"
)

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{StatusCode: status, Body: io.NopCloser(buffer)}
}

func TestQuote_DerivesChange(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.True(t, strings.HasSuffix(req.URL.Path, "/quote"))
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "test-token", req.URL.Query().Get("token"))
			return jsonResponse(t, http.StatusOK, map[string]any{
				"c": 150, "pc": 140, "h": 151.5, "l": 139.25, "o": 141,
			}), nil
		}).
		Times(1)

	client := finnhub.New("test-token", finnhub.WithHTTPClient(httpClient))

	// Act: fetch the quote
	q, err := client.Quote(t.Context(), "AAPL")

	// Assert: change is derived from the previous close
	require.NoError(t, err)
	require.InDelta(t, 150.0, q.Price, 1e-9)
	require.InDelta(t, 10.0, q.Change, 1e-9)
	require.InDelta(t, 7.14, q.ChangePercent, 1e-9)
	require.InDelta(t, 151.5, q.High, 1e-9)
	require.InDelta(t, 139.25, q.Low, 1e-9)
	require.InDelta(t, 141.0, q.Open, 1e-9)
	require.InDelta(t, 140.0, q.PreviousClose, 1e-9)
}

func TestQuote_ZeroPreviousCloseGuardsPercent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusOK, map[string]any{"c": 150, "pc": 0}), nil).
		Times(1)

	client := finnhub.New("k", finnhub.WithHTTPClient(httpClient))

	q, err := client.Quote(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Zero(t, q.ChangePercent)
	require.Zero(t, q.Change)
}

func TestQuote_StatusCodeIsTagged(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(strings.NewReader("slow down"))}, nil).
		Times(1)

	client := finnhub.New("k", finnhub.WithHTTPClient(httpClient))

	_, err := client.Quote(t.Context(), "AAPL")
	require.Error(t, err)

	var se *evidence.SourceError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	require.Equal(t, "finnhub", se.Provider)
	require.ErrorIs(t, err, evidence.ErrSourceUnavailable)
	require.NotContains(t, err.Error(), "token=k")
}

func TestQuote_NetworkErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused")).Times(1)

	client := finnhub.New("k", finnhub.WithHTTPClient(httpClient))

	_, err := client.Quote(t.Context(), "MSFT")
	require.ErrorIs(t, err, evidence.ErrSourceUnavailable)
	require.Contains(t, err.Error(), "connection refused")
}

func TestQuote_MalformedBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"empty quote", `{"c":0,"pc":0}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(&http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(tc.body))}, nil).
				Times(1)

			client := finnhub.New("k", finnhub.WithHTTPClient(httpClient))

			_, err := client.Quote(t.Context(), "AAPL")
			require.ErrorIs(t, err, evidence.ErrMalformedResponse)
		})
	}
}

func TestWithBaseURLAndHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	baseURL := "http://localhost:8080/api"

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(t, http.StatusOK, map[string]any{"c": 1, "pc": 1}), nil
		}).
		Times(1)

	client := finnhub.New("k",
		finnhub.WithHTTPClient(httpClient),
		finnhub.WithBaseURL(baseURL),
		finnhub.WithHeader(http.Header{"foo": []string{"bar"}}),
	)

	require.NoError(t, client.Probe(t.Context()))
}
