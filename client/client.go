// Package client is a typed HTTP client for the rewind service.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	shared "rewind/shared/types"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

func (c *Client) Checkpoint(workspace, message string) (*shared.CheckpointOutcome, error) {
	var outcome shared.CheckpointOutcome
	err := c.post("/api/workspaces/checkpoint", map[string]string{
		"workspace": workspace,
		"message":   message,
	}, &outcome)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *Client) Diff(workspace, from, to string) (string, error) {
	var result map[string]string
	err := c.post("/api/workspaces/diff", map[string]string{
		"workspace": workspace,
		"from":      from,
		"to":        to,
	}, &result)
	if err != nil {
		return "", err
	}
	return result["diff"], nil
}

func (c *Client) Revert(workspace, sha string) error {
	return c.post("/api/workspaces/revert", map[string]string{
		"workspace": workspace,
		"sha":       sha,
	}, nil)
}

func (c *Client) Initialize(workspace string) error {
	return c.post("/api/workspaces/initialize", map[string]string{
		"workspace": workspace,
	}, nil)
}

func (c *Client) HasRepository(workspace string) (bool, error) {
	var result map[string]bool
	err := c.get("/api/workspaces/has-repository", url.Values{"workspace": {workspace}}, &result)
	if err != nil {
		return false, err
	}
	return result["has_repository"], nil
}

func (c *Client) CurrentCommit(workspace string) (string, error) {
	var result map[string]string
	err := c.get("/api/workspaces/current", url.Values{"workspace": {workspace}}, &result)
	if err != nil {
		return "", err
	}
	return result["hash"], nil
}

func (c *Client) History(workspace string, limit int) ([]shared.Commit, error) {
	var commits []shared.Commit
	query := url.Values{"workspace": {workspace}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if err := c.get("/api/workspaces/history", query, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *Client) FileAtCommit(workspace, sha, path string) (string, error) {
	var result map[string]string
	err := c.get("/api/workspaces/file", url.Values{
		"workspace": {workspace},
		"sha":       {sha},
		"path":      {path},
	}, &result)
	if err != nil {
		return "", err
	}
	return result["content"], nil
}

// BackendInfo reports the active backend type and whether it is real.
func (c *Client) BackendInfo() (shared.BackendType, bool, error) {
	var result struct {
		Type shared.BackendType `json:"type"`
		Real bool               `json:"real"`
	}
	if err := c.get("/api/backend", nil, &result); err != nil {
		return "", false, err
	}
	return result.Type, result.Real, nil
}

func (c *Client) SwitchBackend(backendType shared.BackendType) error {
	return c.post("/api/backend/switch", map[string]string{
		"type": string(backendType),
	}, nil)
}

func (c *Client) post(path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) get(path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.httpClient.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var apiErr map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr["error"] != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr["error"])
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
