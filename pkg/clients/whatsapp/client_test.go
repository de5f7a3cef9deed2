package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavilla/almacen/internal/config"
)

func TestSendText(t *testing.T) {
	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "secret", PhoneNumberID: "12345", BaseURL: srv.URL + "/", APIVersion: "v20.0"})

	id, err := client.SendText(context.Background(), "51999888777", "Stock agotado: Aspirina")
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", id)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "51999888777", got.To)
	assert.Equal(t, "Stock agotado: Aspirina", got.Text.Body)
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "secret", PhoneNumberID: "12345", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "51999888777", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=100")
	assert.Contains(t, err.Error(), "Invalid parameter")
}

func TestSendTextTruncatesLongBodies(t *testing.T) {
	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "secret", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "5199", strings.Repeat("x", 5000))
	require.NoError(t, err)
	assert.Len(t, got.Text.Body, maxBodyLength)
	assert.True(t, strings.HasSuffix(got.Text.Body, "..."))

	_, err = client.SendText(context.Background(), "5199", strings.Repeat("más ", 1500))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(got.Text.Body))
	assert.Equal(t, maxBodyLength, utf8.RuneCountInString(got.Text.Body))
	assert.True(t, strings.HasPrefix(got.Text.Body, "más más"))

	_, err = client.SendText(context.Background(), "5199", strings.Repeat("é", maxBodyLength))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", maxBodyLength), got.Text.Body, "bodies at the limit are sent whole")
}

func TestSendTextRequiresRecipient(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://127.0.0.1:0", APIVersion: "v20.0"})
	_, err := client.SendText(context.Background(), "", "hola")
	assert.Error(t, err)
}
