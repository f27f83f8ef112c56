package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_CrossRate(t *testing.T) {
	s := NewStatic("static", "USD", map[string]float64{"EUR": 0.9, "JPY": 150})

	r, err := s.FetchRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, r, 1e-9)

	// EUR -> JPY crosses through USD.
	r, err = s.FetchRate(context.Background(), "EUR", "JPY")
	require.NoError(t, err)
	assert.InDelta(t, 150/0.9, r, 1e-9)

	_, err = s.FetchRate(context.Background(), "USD", "XXX")
	assert.Error(t, err)
}

func TestStatic_Table(t *testing.T) {
	s := NewStatic("static", "USD", map[string]float64{"EUR": 0.9, "JPY": 150})

	table, err := s.FetchTable(context.Background(), "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 1/0.9, table["USD"], 1e-9)
	assert.InDelta(t, 150/0.9, table["JPY"], 1e-9)
	assert.NotContains(t, table, "EUR")
}

func TestHTTPSource_FetchTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		w.Write([]byte(`{"base":"USD","rates":{"EUR":0.91,"GBP":0.78}}`))
	}))
	defer srv.Close()

	s := NewHTTP("test", srv.URL)
	table, err := s.FetchTable(context.Background(), "USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.91, table["EUR"], 1e-9)
}

func TestHTTPSource_FetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR", r.URL.Query().Get("symbols"))
		w.Write([]byte(`{"base":"USD","rates":{"EUR":0.91}}`))
	}))
	defer srv.Close()

	s := NewHTTP("test", srv.URL)
	r, err := s.FetchRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 0.91, r, 1e-9)
}

func TestHTTPSource_TransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTP("test", srv.URL)
	_, err := s.FetchTable(context.Background(), "USD")
	require.Error(t, err)
}
