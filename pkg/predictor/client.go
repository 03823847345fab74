package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/neuroscreen-ai/platform/pkg/common/httpclient"
	"github.com/neuroscreen-ai/platform/pkg/common/models"
)

const DefaultTimeout = 10 * time.Second

// Predictor is what the case pipeline calls to score a payload. The
// live HTTP client and the mock implementation both satisfy it.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error)
}

// Client talks to the external prediction service. One POST per call,
// bounded by the configured timeout, no automatic retries: retry is a
// user-triggered operation at the pipeline level.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: httpclient.New(timeout),
	}
}

type predictEnvelope struct {
	Status       string  `json:"status"`
	RequestID    string  `json:"request_id"`
	Prediction   string  `json:"prediction"`
	Probability  float64 `json:"probability"`
	Confidence   float64 `json:"confidence"`
	RiskLevel    string  `json:"risk_level"`
	ModelVersion string  `json:"model_version"`
	Error        string  `json:"error"`
	ErrorCode    string  `json:"error_code"`
	ErrorType    string  `json:"error_type"`
	ErrorMessage string  `json:"error_message"`
}

func (c *Client) Predict(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ValidationError{Violations: []string{fmt.Sprintf("payload not serialisable: %v", err)}}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Message: "building prediction request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &NetworkError{
				Message: fmt.Sprintf("prediction request timed out after %s", c.timeout),
				Cause:   err,
			}
		}
		return nil, &NetworkError{Message: "prediction request failed", Cause: err}
	}
	defer resp.Body.Close()

	var envelope predictEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &NetworkError{Message: "decoding prediction response", Cause: err}
	}

	if envelope.Status == "error" || resp.StatusCode >= 400 {
		apiErr := &APIError{
			Code:      envelope.ErrorCode,
			Type:      envelope.ErrorType,
			Message:   envelope.ErrorMessage,
			RequestID: envelope.RequestID,
		}
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, apiErr
	}

	return &models.PredictResponse{
		Status:       envelope.Status,
		RequestID:    envelope.RequestID,
		Prediction:   envelope.Prediction,
		Probability:  envelope.Probability,
		Confidence:   envelope.Confidence,
		RiskLevel:    envelope.RiskLevel,
		ModelVersion: envelope.ModelVersion,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
