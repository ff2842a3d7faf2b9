package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

func newTestClient(cfg config.ThreadsConfig) *Client {
	client := NewClient(cfg, httputil.New(logger.Nop()).DisableRetry(), logger.Nop())
	client.sleep = func(time.Duration) {}
	return client
}

func TestClient_PostUnconfigured(t *testing.T) {
	client := newTestClient(config.ThreadsConfig{})

	result := client.Post(context.Background(), "테스트 브리핑")

	// 자격 증명이 없어도 성공으로 처리된다
	assert.True(t, result.Success)
	assert.True(t, result.Simulated)
	assert.Equal(t, SimulatedPostID, result.ID)
	assert.Equal(t, "테스트 브리핑", result.Content)
}

func TestClient_PostTwoPhase(t *testing.T) {
	var createCalls, publishCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "token-123", payload["access_token"])

		switch r.URL.Path {
		case "/user-1/threads":
			createCalls++
			assert.Equal(t, "TEXT", payload["media_type"])
			assert.Equal(t, "테스트 브리핑", payload["text"])
			fmt.Fprint(w, `{"id":"container-77"}`)

		case "/user-1/threads_publish":
			publishCalls++
			assert.Equal(t, "container-77", payload["creation_id"])
			fmt.Fprint(w, `{"id":"post-88"}`)

		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(config.ThreadsConfig{
		AccessToken: "token-123",
		UserID:      "user-1",
		BaseURL:     server.URL,
	})

	result := client.Post(context.Background(), "테스트 브리핑")

	assert.True(t, result.Success)
	assert.False(t, result.Simulated)
	assert.Equal(t, "post-88", result.ID)
	assert.Equal(t, 1, createCalls)
	assert.Equal(t, 1, publishCalls)
}

func TestClient_PostAPIFailureFallsBackToSimulation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(config.ThreadsConfig{
		AccessToken: "expired",
		UserID:      "user-1",
		BaseURL:     server.URL,
	})

	result := client.Post(context.Background(), "테스트 브리핑")

	// 게시 실패도 시뮬레이션 성공으로 강등된다
	assert.True(t, result.Success)
	assert.True(t, result.Simulated)
	assert.Equal(t, SimulatedPostID, result.ID)
}
