package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultIndexURL is the Python package index queried for the latest release.
const DefaultIndexURL = "https://pypi.org"

// DefaultPackage is the distribution that ships the rapidkit engine.
const DefaultPackage = "rapidkit-core"

// LatestFetcher looks up the newest published version.
type LatestFetcher interface {
	Latest(ctx context.Context) (string, error)
}

// PackageIndex queries a PyPI-compatible JSON API.
type PackageIndex struct {
	baseURL string
	pkg     string
	client  *http.Client
}

// NewPackageIndex creates a PackageIndex. Empty arguments get defaults.
func NewPackageIndex(baseURL, pkg string, client *http.Client) *PackageIndex {
	if baseURL == "" {
		baseURL = DefaultIndexURL
	}
	if pkg == "" {
		pkg = DefaultPackage
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PackageIndex{
		baseURL: strings.TrimRight(baseURL, "/"),
		pkg:     pkg,
		client:  client,
	}
}

// Latest returns info.version from /pypi/<package>/json.
func (p *PackageIndex) Latest(ctx context.Context) (string, error) {
	endpoint := p.baseURL + "/pypi/" + url.PathEscape(p.pkg) + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying package index: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("package index returned %s", resp.Status)
	}

	var body struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding package index response: %w", err)
	}
	if body.Info.Version == "" {
		return "", fmt.Errorf("package index response has no version")
	}
	return body.Info.Version, nil
}
