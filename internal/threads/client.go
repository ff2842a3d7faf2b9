package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// SimulatedPostID marks results produced without a real API call
const SimulatedPostID = "simulated_post_id"

// PostResult is the outcome of one publish attempt. Simulated results are
// successes: 자격 증명이 없거나 API가 실패해도 파이프라인은 계속 간다.
type PostResult struct {
	ID        string    `json:"id"`
	Success   bool      `json:"success"`
	Simulated bool      `json:"simulated"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to the Threads Graph API.
// ⭐ SSOT: Threads 게시 프로토콜은 여기서만 구현
//
// Posting is a two-phase flow: create a media container, wait for
// processing, then publish the container.
type Client struct {
	cfg        config.ThreadsConfig
	httpClient *httputil.Client
	logger     *logger.Logger

	// sleep is replaceable for tests
	sleep func(time.Duration)
}

// NewClient creates a Threads client; missing credentials are tolerated
// and switch every post to simulation.
func NewClient(cfg config.ThreadsConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if !cfg.Configured() {
		log.Warn("Threads credentials missing, posts will be simulated")
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log,
		sleep:      time.Sleep,
	}
}

// Configured reports whether real publishing is possible
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Post publishes a text post, falling back to a simulated result when
// credentials are missing or the API rejects the attempt.
func (c *Client) Post(ctx context.Context, content string) *PostResult {
	if !c.cfg.Configured() {
		c.logger.Warn("No Threads access token, simulating post")
		return c.simulate(content)
	}

	id, err := c.publish(ctx, content)
	if err != nil {
		c.logger.WithError(err).Error("Threads publish failed")
		return c.simulate(content)
	}

	c.logger.WithField("post_id", id).Info("Threads post published")
	return &PostResult{
		ID:        id,
		Success:   true,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// publish runs the two-phase container flow and returns the post id
func (c *Client) publish(ctx context.Context, content string) (string, error) {
	creationID, err := c.createContainer(ctx, content)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	// 컨테이너 처리 대기 후 게시
	c.sleep(c.cfg.PublishDelay)

	id, err := c.publishContainer(ctx, creationID)
	if err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}
	return id, nil
}

// createContainer creates a TEXT media container and returns its id
func (c *Client) createContainer(ctx context.Context, content string) (string, error) {
	url := fmt.Sprintf("%s/%s/threads", c.cfg.BaseURL, c.cfg.UserID)
	payload := map[string]string{
		"media_type":   "TEXT",
		"text":         content,
		"access_token": c.cfg.AccessToken,
	}

	resp, err := c.httpClient.PostJSON(ctx, url, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeID(resp)
}

// publishContainer publishes a created container and returns the post id
func (c *Client) publishContainer(ctx context.Context, creationID string) (string, error) {
	url := fmt.Sprintf("%s/%s/threads_publish", c.cfg.BaseURL, c.cfg.UserID)
	payload := map[string]string{
		"creation_id":  creationID,
		"access_token": c.cfg.AccessToken,
	}

	resp, err := c.httpClient.PostJSON(ctx, url, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeID(resp)
}

// decodeID extracts {"id": "..."} from a Graph API response
func decodeID(resp *http.Response) (string, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("response missing id")
	}
	return body.ID, nil
}

// simulate logs the would-be post and returns a successful placeholder
func (c *Client) simulate(content string) *PostResult {
	c.logger.WithField("content", content).Info("=== Threads 게시 시뮬레이션 ===")
	return &PostResult{
		ID:        SimulatedPostID,
		Success:   true,
		Simulated: true,
		Content:   content,
		Timestamp: time.Now(),
	}
}
