// Package update resolves a target bundle version and re-installs when
// the installed version differs.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for version resolution.
var (
	// ErrVersionResolution wraps registry and network failures. The
	// update is aborted with no partial state change.
	ErrVersionResolution = errors.New("version resolution failed")

	// ErrVersionUnavailable means the registry resolved a version this
	// binary does not carry; upgrading the binary is the fix.
	ErrVersionUnavailable = errors.New("version not available in this binary")
)

// Request selects which version to resolve.
type Request struct {
	// Package is the registry package name.
	Package string

	// Pinned requests one exact version. Empty resolves a channel tag.
	Pinned string

	// Beta resolves the beta channel instead of latest.
	Beta bool
}

// Resolver obtains a target version string. It is an external
// collaborator: implementations must not touch the installation.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (string, error)
}

// RegistryResolver resolves versions against an npm-style registry.
type RegistryResolver struct {
	// BaseURL is the registry root, e.g. https://registry.npmjs.org.
	BaseURL string

	// Client is the HTTP client. Nil uses a 15s-timeout default.
	Client *http.Client
}

// packumentTags is the slice of registry metadata we consume.
type packumentTags struct {
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
}

// Resolve fetches package metadata and picks the requested version.
func (r *RegistryResolver) Resolve(ctx context.Context, req Request) (string, error) {
	if req.Package == "" {
		return "", fmt.Errorf("%w: no package name configured", ErrVersionResolution)
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	endpoint := fmt.Sprintf("%s/%s", r.BaseURL, url.PathEscape(req.Package))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVersionResolution, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVersionResolution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: registry returned %s", ErrVersionResolution, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVersionResolution, err)
	}

	var meta packumentTags
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", fmt.Errorf("%w: decoding registry response: %v", ErrVersionResolution, err)
	}

	if req.Pinned != "" {
		if _, ok := meta.Versions[req.Pinned]; !ok {
			return "", fmt.Errorf("%w: version %s not published", ErrVersionResolution, req.Pinned)
		}
		return req.Pinned, nil
	}

	tag := "latest"
	if req.Beta {
		tag = "beta"
	}
	version, ok := meta.DistTags[tag]
	if !ok || version == "" {
		return "", fmt.Errorf("%w: no %q tag for %s", ErrVersionResolution, tag, req.Package)
	}
	return version, nil
}

// StaticResolver returns a fixed version; tests and --version short-circuit
// through it.
type StaticResolver string

// Resolve implements Resolver.
func (s StaticResolver) Resolve(context.Context, Request) (string, error) {
	return string(s), nil
}
