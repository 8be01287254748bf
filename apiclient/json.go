package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/agent-console/internal/errors"
)

const maxErrorBody = 64 << 10

// DoJSON sends body as JSON and decodes a successful response into out (which may
// be nil). Non-2xx responses become *errors.APIError.
func DoJSON(ctx context.Context, r Requester, method, path string, body, out interface{}) error {
	req, err := r.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := r.Send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[apiclient DoJSON] decode %s %s: %w", method, path, err)
	}
	return nil
}

// GetRaw fetches path and returns the body bytes unchanged.
func GetRaw(ctx context.Context, r Requester, path string) ([]byte, error) {
	req, err := r.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errors.ErrTransport, path, err)
	}
	return data, nil
}

// CheckResponse returns nil for 2xx responses and an *errors.APIError carrying the
// server's detail message otherwise. It does not close the body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &errors.APIError{StatusCode: resp.StatusCode, Detail: detail(data)}
}

// detail extracts the "detail" field the API puts on errors. Validation errors
// carry a list there, which is kept as raw JSON.
func detail(data []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return string(data)
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
