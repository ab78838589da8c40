package fuel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// HTTPClient fetches diesel prices from the public fuel-price API.
type HTTPClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

func NewHTTPClient(url string, log *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{},
		log:    log,
	}
}

type priceResponse struct {
	Precos struct {
		Diesel struct {
			SC string `json:"sc"`
		} `json:"diesel"`
	} `json:"precos"`
	DataColeta string `json:"data_coleta"`
	Fonte      string `json:"fonte"`
}

func (c *HTTPClient) CurrentDieselPrice(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"price":  body.Precos.Diesel.SC,
		"source": body.Fonte,
	}).Debug("diesel price fetched")

	return Quote{
		Raw:         body.Precos.Diesel.SC,
		CollectedAt: body.DataColeta,
		Source:      body.Fonte,
	}, nil
}
