package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendClient_Ready(t *testing.T) {
	assert.False(t, NewResendClient("", "").Ready())
	assert.False(t, NewResendClient("re_key", "").Ready())
	assert.True(t, NewResendClient("re_key", "Shop <news@shop.co>").Ready())
}

func TestResendClient_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := NewResendClientWithBaseURL("re_key", "Shop <news@shop.co>", srv.URL)
	err := c.Send(context.Background(), Message{
		To:      "maya@example.com",
		Subject: "Drop",
		HTML:    "<p>hi</p>",
		Tags:    []string{"campaign-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shop <news@shop.co>", got["from"])
	assert.Equal(t, []interface{}{"maya@example.com"}, got["to"])
	assert.Equal(t, "Drop", got["subject"])
}

func TestResendClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	c := NewResendClientWithBaseURL("re_key", "Shop <news@shop.co>", srv.URL)
	err := c.Send(context.Background(), Message{To: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid to address")
}

func TestResendClient_OpaqueError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewResendClientWithBaseURL("re_key", "Shop <news@shop.co>", srv.URL)
	err := c.Send(context.Background(), Message{To: "maya@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
