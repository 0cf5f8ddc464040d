// Package keywords is a client for a keyword-volume API. It satisfies
// branded.VolumeLookup.
package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/branded"
)

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = eris.New("KEYWORD_API_KEY is not set")

// Client calls POST {BaseURL}/keywords/volume.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New returns a Client with its own http.Client bounded by timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type volumeRequest struct {
	Keywords []string `json:"keywords"`
	Country  string   `json:"country,omitempty"`
}

type volumeResponse struct {
	Results []struct {
		Keyword      string `json:"keyword"`
		SearchVolume int    `json:"search_volume"`
	} `json:"results"`
	CreditsUsed float64 `json:"credits_used"`
}

// LookupVolumes fetches the monthly search volume of every term in one request.
func (c *Client) LookupVolumes(ctx context.Context, terms []string, country string) ([]branded.Volume, branded.Usage, error) {
	if c.APIKey == "" {
		return nil, branded.Usage{}, ErrMissingAPIKey
	}

	payload, err := json.Marshal(volumeRequest{Keywords: terms, Country: strings.ToLower(country)})
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "keywords: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/keywords/volume", bytes.NewReader(payload))
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "keywords: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "keywords: request volumes")
	}
	defer closeBody(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, branded.Usage{}, eris.Wrap(err, "keywords: read response")
	}
	// A rejected call is still billed as one call.
	usage := branded.Usage{Calls: 1}
	if resp.StatusCode != http.StatusOK {
		return nil, usage, eris.Errorf("keywords: unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded volumeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, usage, eris.Wrap(err, "keywords: decode response")
	}
	usage.Credits = decoded.CreditsUsed

	volumes := make([]branded.Volume, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		volumes = append(volumes, branded.Volume{Term: r.Keyword, SearchVolume: r.SearchVolume})
	}
	return volumes, usage, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		zap.L().Debug("keywords: close response body", zap.Error(err))
	}
}
