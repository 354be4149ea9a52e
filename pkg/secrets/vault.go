// Package secrets loads secret material (the OpenAI API key, database and
// webhook credentials) from a HashiCorp Vault KV store into the process
// environment before configuration is read. Vault is optional; when
// VAULT_ENABLED is not "true" the process runs on plain env vars.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Options controls the Vault fetch. Zero values are filled from the
// VAULT_* environment by OptionsFromEnv.
type Options struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Summary reports what Apply did.
type Summary struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
}

// OptionsFromEnv builds Options from the VAULT_* environment variables.
func OptionsFromEnv() Options {
	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}

	kvVersion := 2
	if val := os.Getenv("VAULT_KV_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			kvVersion = parsed
		}
	}

	timeout := 5 * time.Second
	if val := os.Getenv("VAULT_TIMEOUT_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return Options{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     mount,
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: kvVersion,
		Timeout:   timeout,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
}

// Apply fetches the secret set at opts.Path and exports each key/value pair
// into the environment. Keys already set are skipped unless Overwrite is on.
func Apply(ctx context.Context, opts Options) (Summary, error) {
	if !opts.Enabled {
		return Summary{Enabled: false}, nil
	}

	summary := Summary{Enabled: true, Path: opts.Path}

	if opts.Addr == "" || opts.Token == "" || opts.Path == "" {
		return summary, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}

	url, err := secretURL(opts)
	if err != nil {
		return summary, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return summary, err
	}
	req.Header.Set("X-Vault-Token", opts.Token)
	if opts.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", opts.Namespace)
	}

	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return summary, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return summary, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return summary, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := decodeSecretData(body, opts.KVVersion)
	if err != nil {
		return summary, err
	}

	for key, value := range data {
		if !opts.Overwrite && os.Getenv(key) != "" {
			summary.Skipped++
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return summary, err
		}
		summary.Loaded++
	}

	return summary, nil
}

func secretURL(opts Options) (string, error) {
	addr := strings.TrimRight(opts.Addr, "/")
	mount := strings.Trim(opts.Mount, "/")
	path := strings.TrimLeft(opts.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if opts.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func decodeSecretData(body []byte, kvVersion int) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault response missing data for KV v%d", kvVersion)
	}
	if kvVersion == 1 {
		return data, nil
	}

	inner, ok := data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("vault response missing data for KV v2")
	}
	return inner, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
