package narrative_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmforge/dm-api/internal/clients/narrative"
	"github.com/dmforge/dm-api/internal/errors"
)

func completionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*narrative.OpenAIClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := narrative.NewOpenAI(&narrative.Config{
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		BaseURL:    server.URL + "/v1",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
	require.NoError(t, err)
	return client, server
}

func TestOpenAI_Generate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		messages := req["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(
			"You slip past the guard. [[XP: 50]]"))
	})

	out, err := client.Generate(context.Background(), &narrative.GenerateInput{
		System:    "You are the game master.",
		Utterance: "The player attempts: sneak past the guard.",
	})
	require.NoError(t, err)

	assert.Equal(t, "You slip past the guard.", out.Narrative)
	require.Len(t, out.Deltas, 1)
	assert.Equal(t, narrative.DeltaXP, out.Deltas[0].Kind)
	assert.Equal(t, 50, out.Deltas[0].XP)
	assert.Contains(t, out.Raw, "[[XP: 50]]")
}

func TestOpenAI_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("The door creaks open."))
	})

	out, err := client.Generate(context.Background(), &narrative.GenerateInput{
		Utterance: "open the door",
	})
	require.NoError(t, err)

	assert.Equal(t, "The door creaks open.", out.Narrative)
	assert.Equal(t, int64(2), calls.Load())
}

func TestOpenAI_UnavailableAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.Generate(context.Background(), &narrative.GenerateInput{
		Utterance: "open the door",
	})
	require.Error(t, err)

	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, int64(3), calls.Load(), "initial attempt plus two retries")
}

func TestOpenAI_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := narrative.NewOpenAI(&narrative.Config{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &narrative.GenerateInput{
		Utterance: "open the door",
	})
	require.Error(t, err)

	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, int64(1), calls.Load(), "zero retries leaves the single attempt")
}

func TestOpenAI_TimeoutMapsToDeadlineExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client, err := narrative.NewOpenAI(&narrative.Config{
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		BaseURL:    server.URL + "/v1",
		Timeout:    50 * time.Millisecond,
		MaxRetries: 1,
	})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &narrative.GenerateInput{
		Utterance: "wait around",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDeadlineExceeded(err))
}

func TestOpenAI_EmptyResponseIsDataLoss(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("[[XP: 10]]"))
	})

	_, err := client.Generate(context.Background(), &narrative.GenerateInput{
		Utterance: "look around",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDataLoss(err))
}

func TestOpenAI_Validation(t *testing.T) {
	_, err := narrative.NewOpenAI(&narrative.Config{Model: "gpt-4o-mini"})
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = narrative.NewOpenAI(&narrative.Config{APIKey: "key"})
	assert.True(t, errors.IsInvalidArgument(err))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err = client.Generate(context.Background(), nil)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = client.Generate(context.Background(), &narrative.GenerateInput{})
	assert.True(t, errors.IsInvalidArgument(err))
}
