package ado

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// adoResourceID is the Azure DevOps application ID used for Entra ID token requests.
const adoResourceID = "499b84ac-1321-427f-aa17-267ca6975798"

// AuthProvider produces Authorization header values for ADO calls.
//
// A configured personal access token always wins and is sent as Basic
// credentials (":"+PAT). Without one, an Entra ID token is obtained from the
// Azure CLI and cached until shortly before it expires.
type AuthProvider struct {
	pat         string
	cachedToken string
	tokenExpiry time.Time
	mu          sync.Mutex
	// execCommand is a hook for tests; defaults to exec.CommandContext.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewAuthProvider creates an AuthProvider. An empty pat enables the Azure CLI path.
func NewAuthProvider(pat string) *AuthProvider {
	return &AuthProvider{
		pat:         pat,
		execCommand: exec.CommandContext,
	}
}

// InvalidateToken drops any cached Entra token so the next call re-acquires one.
func (a *AuthProvider) InvalidateToken() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cachedToken = ""
	a.tokenExpiry = time.Time{}
}

// azTokenResponse is the JSON printed by `az account get-access-token`.
type azTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresOn   string `json:"expiresOn"`
}

// GetAuthHeader returns the Authorization header value for the next request.
func (a *AuthProvider) GetAuthHeader(ctx context.Context) (string, error) {
	if a.pat != "" {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+a.pat)), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// 5-minute buffer before expiry.
	if a.cachedToken != "" && time.Now().Before(a.tokenExpiry.Add(-5*time.Minute)) {
		return "Bearer " + a.cachedToken, nil
	}

	token, expiry, err := a.getEntraToken(ctx)
	if err != nil {
		return "", fmt.Errorf("no authentication available: no PAT configured and Entra ID failed (%w)", err)
	}
	a.cachedToken = token
	a.tokenExpiry = expiry
	slog.Debug("using Entra ID token for ADO authentication")
	return "Bearer " + token, nil
}

func (a *AuthProvider) getEntraToken(ctx context.Context) (string, time.Time, error) {
	cmd := a.execCommand(ctx, "az", "account", "get-access-token",
		"--resource", adoResourceID,
		"--output", "json")

	output, err := cmd.Output()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("az CLI failed: %w", err)
	}

	var resp azTokenResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse az CLI output: %w", err)
	}
	if resp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token from az CLI")
	}

	// az prints local time as "2026-02-09 12:00:00.000000".
	for _, layout := range []string{"2006-01-02 15:04:05.000000", "2006-01-02 15:04:05"} {
		if expiry, err := time.ParseInLocation(layout, resp.ExpiresOn, time.Local); err == nil {
			return resp.AccessToken, expiry, nil
		}
	}
	slog.Warn("could not parse token expiry, using 30-minute default", "expiresOn", resp.ExpiresOn)
	return resp.AccessToken, time.Now().Add(30 * time.Minute), nil
}
