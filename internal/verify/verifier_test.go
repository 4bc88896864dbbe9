package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPVerifierClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		err := json.NewDecoder(r.Body).Decode(&payload)
		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/p.jpg", payload["photoUrl"])
		assert.Equal(t, "plastic", payload["wasteType"])

		json.NewEncoder(w).Encode(Classification{
			Label:      "plastic",
			Confidence: 0.92,
			Accepted:   true,
		})
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL)
	result, err := v.Classify(context.Background(), "https://example.com/p.jpg", "plastic")
	assert.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "plastic", result.Label)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
}

func TestHTTPVerifierNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL)
	_, err := v.Classify(context.Background(), "https://example.com/p.jpg", "plastic")
	assert.Error(t, err)
}

func TestStaticVerifier(t *testing.T) {
	v := AcceptAll()
	result, err := v.Classify(context.Background(), "", "glass")
	assert.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "glass", result.Label)

	rejecting := &StaticVerifier{Result: Classification{Label: "not_waste", Accepted: false}}
	result, err = rejecting.Classify(context.Background(), "", "glass")
	assert.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, "not_waste", result.Label)
}
