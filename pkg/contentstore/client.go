package contentstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neuroscreen-ai/platform/pkg/common/httpclient"
)

// UploadResult carries the content identifier and the execution node
// that accepted the upload.
type UploadResult struct {
	CID  string `json:"cid"`
	Node string `json:"node_id"`
}

// Client uploads derived payloads to a content-addressed file store.
// Uploads are best-effort at the pipeline level: callers log failures
// and continue without a CID.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpclient.New(timeout),
	}
}

type uploadRequest struct {
	Name       string `json:"name"`
	ContentB64 string `json:"content_b64"`
}

func (c *Client) Upload(ctx context.Context, name string, content []byte) (*UploadResult, error) {
	if c == nil {
		return nil, fmt.Errorf("content store not configured")
	}

	body, err := json.Marshal(uploadRequest{
		Name:       name,
		ContentB64: base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("content store rejected %s: status %d: %s", name, resp.StatusCode, string(raw))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.CID == "" {
		return nil, fmt.Errorf("content store returned empty cid for %s", name)
	}

	return &result, nil
}
