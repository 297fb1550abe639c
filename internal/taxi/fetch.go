package taxi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ManifestClient downloads the published list of trip-data file URLs, one
// URL per line.
type ManifestClient struct {
	URL        string
	HTTPClient *http.Client
}

func NewManifestClient(url string, httpClient *http.Client) *ManifestClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ManifestClient{URL: url, HTTPClient: httpClient}
}

func (c *ManifestClient) FetchURLs(ctx context.Context) ([]string, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("manifest url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("manifest fetch http status=%d body=%q", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
