// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// requestTimeout bounds one API call. The purge endpoints walk every session,
// so this is generous.
const requestTimeout = 2 * time.Minute

var httpClient = &http.Client{Timeout: requestTimeout}

// apiGet performs a GET against the intake API and decodes the JSON response
// into out. Non-2xx responses become errors carrying the server's message.
func apiGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+path, nil)
	if err != nil {
		return err
	}
	return doRequest(req, out)
}

// apiPost performs a POST with a JSON body against the intake API.
func apiPost(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(req, out)
}

func doRequest(req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	// Health returns 503 with a valid payload when the engine is down;
	// decode the body first and let callers inspect it.
	if decodeErr := json.Unmarshal(data, out); decodeErr != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, string(data))
		}
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, decodeErr)
	}

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusServiceUnavailable {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s returned %d", req.URL.Path, resp.StatusCode)
	}

	return nil
}

// printJSON renders any payload as indented JSON for --json output.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
