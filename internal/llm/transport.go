package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// apiErrorBody is the error envelope shared by the supported providers.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// postJSON POSTs payload to endpoint and decodes a 200 response into out.
// Any other status becomes an apiError carrying the provider's message.
func postJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorBody
		_ = json.Unmarshal(respBody, &errResp)
		return apiError(resp.StatusCode, errResp.Error.Message)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
