// Package imf provides a client for the IMF DataMapper REST API and helpers
// to flatten its nested indicator values into stream records.
package imf

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/pkg/errors"
)

// Indicator holds the metadata served by the /indicators endpoint.
type Indicator struct {
	Code        string `json:"-"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Unit        string `json:"unit"`
	Dataset     string `json:"dataset"`
}

// Values maps country code -> year -> value, where a nil value represents a
// null in the API response.
type Values map[string]map[string]*float64

// Client is the interface used by components so the API can be mocked in tests.
type Client interface {
	Indicators(ctx context.Context) ([]Indicator, error)
	IndicatorValues(ctx context.Context, code string) (Values, error)
}

type ClientConfig struct {
	Log            logger.Logger `errorTxt:"logger" mandatory:"yes"`
	BaseUrl        string        // default constants.ImfApiBaseUrl
	Dataset        string        // empty means no dataset filter; CLI flags default this to constants.ImfApiDatasetDefault.
	TimeoutSeconds int           // default constants.ImfApiTimeoutSeconds
}

// HttpClient implements Client against the DataMapper API.
type HttpClient struct {
	log     logger.Logger
	baseUrl string
	dataset string
	client  *http.Client
}

// NewClient validates cfg, applies defaults and returns a ready HttpClient.
func NewClient(cfg *ClientConfig) (*HttpClient, error) {
	if cfg == nil || cfg.Log == nil {
		return nil, fmt.Errorf("please supply a logger for the DataMapper API client")
	}
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = constants.ImfApiBaseUrl
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = constants.ImfApiTimeoutSeconds
	}
	return &HttpClient{
		log:     cfg.Log,
		baseUrl: baseUrl,
		dataset: cfg.Dataset,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

type indicatorsResponse struct {
	Indicators map[string]Indicator `json:"indicators"`
}

type valuesResponse struct {
	Values map[string]Values `json:"values"`
}

// Indicators fetches /indicators and returns the entries belonging to the
// configured dataset, sorted by indicator code.  With no dataset configured
// every entry is returned.
func (c *HttpClient) Indicators(ctx context.Context) ([]Indicator, error) {
	body, err := c.get(ctx, "indicators")
	if err != nil {
		return nil, err
	}
	resp := indicatorsResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "unable to decode the indicators response")
	}
	retval := make([]Indicator, 0, len(resp.Indicators))
	for code, ind := range resp.Indicators {
		if c.dataset != "" && ind.Dataset != c.dataset { // if the indicator belongs to another dataset...
			continue
		}
		ind.Code = code
		retval = append(retval, ind)
	}
	sort.Slice(retval, func(i, j int) bool {
		return retval[i].Code < retval[j].Code
	})
	if c.dataset == "" {
		c.log.Info("fetched ", len(retval), " indicators across all datasets")
	} else {
		c.log.Info("fetched ", len(retval), " indicators for dataset ", c.dataset)
	}
	return retval, nil
}

// IndicatorValues fetches /{code} and returns the nested values for that code.
// A response without values for the code yields an empty map, not an error.
func (c *HttpClient) IndicatorValues(ctx context.Context, code string) (Values, error) {
	if code == "" {
		return nil, fmt.Errorf("please supply an indicator code")
	}
	body, err := c.get(ctx, url.PathEscape(code))
	if err != nil {
		return nil, err
	}
	resp := valuesResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(err, "unable to decode the values response for indicator %v", code)
	}
	v, ok := resp.Values[code]
	if !ok { // if the API had no data for this code...
		c.log.Warn("no values found for indicator ", code)
		return Values{}, nil
	}
	return v, nil
}

func (c *HttpClient) get(ctx context.Context, path string) ([]byte, error) {
	u := fmt.Sprintf("%v/%v", c.baseUrl, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build request for %v", u)
	}
	req.Header.Set("Accept", "application/json")
	c.log.Debug("GET ", u)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request failed for %v", u)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %v from %v", resp.StatusCode, u)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read response body from %v", u)
	}
	return body, nil
}
