// Package commands implements the CLI subcommands.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelforge/reelforge/config"
)

// apiURL resolves the API base URL.
func apiURL() string {
	return config.GetEnv("REELFORGE_API_URL", "http://localhost:8080")
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// call performs a JSON round-trip against the API and pretty-prints the
// response body.
func call(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, apiURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}
