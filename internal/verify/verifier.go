package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Classification is the verifier's judgement of a report photo
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Accepted   bool    `json:"accepted"`
}

// Verifier classifies a report photo against the waste type claimed by the
// submitter. Implementations are external collaborators; callers treat the
// result as opaque.
type Verifier interface {
	Classify(ctx context.Context, photoURL, claimedType string) (*Classification, error)
}

// HTTPVerifier calls a remote classification endpoint with a JSON payload
type HTTPVerifier struct {
	url    string
	client *http.Client
}

// NewHTTPVerifier creates a verifier backed by the given endpoint
func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (v *HTTPVerifier) Classify(ctx context.Context, photoURL, claimedType string) (*Classification, error) {
	payload, err := json.Marshal(map[string]string{
		"photoUrl":  photoURL,
		"wasteType": claimedType,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}

	var result Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// StaticVerifier returns a fixed classification. It backs deployments with
// no verifier endpoint configured, and tests.
type StaticVerifier struct {
	Result Classification
	Err    error
}

// AcceptAll returns a verifier that accepts every photo
func AcceptAll() *StaticVerifier {
	return &StaticVerifier{Result: Classification{Accepted: true}}
}

func (v *StaticVerifier) Classify(ctx context.Context, photoURL, claimedType string) (*Classification, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	result := v.Result
	if result.Label == "" {
		result.Label = claimedType
	}
	return &result, nil
}
