package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"net/http"
	"strings"
)

// Client talks to a running marketplace over its HTTP api.
type Client struct {
	url        string
	adminToken string
	httpClient *retryablehttp.Client
}

type ResponseError struct {
	Status  int
	Class   string
	Message string
}

func (e ResponseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Class, e.Message)
}

func NewClient(url, adminToken string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3

	return &Client{strings.TrimSuffix(url, "/"), adminToken, retryClient}
}

func (c *Client) Health() (map[string]string, error) {
	health := map[string]string{}
	err := c.call(http.MethodGet, "/health", nil, &health)

	return health, err
}

func (c *Client) Listings() ([]entity.Listing, error) {
	listings := make([]entity.Listing, 0)
	err := c.call(http.MethodGet, "/listings", nil, &listings)

	return listings, err
}

func (c *Client) Offers(collection string, tokenId uint64) ([]entity.Offer, error) {
	offers := make([]entity.Offer, 0)
	err := c.call(http.MethodGet, assetPath("/offers", collection, tokenId), nil, &offers)

	return offers, err
}

func (c *Client) Auction(collection string, tokenId uint64) (*entity.Auction, error) {
	var auction entity.Auction
	if err := c.call(http.MethodGet, assetPath("/auctions", collection, tokenId), nil, &auction); err != nil {
		return nil, err
	}

	return &auction, nil
}

func (c *Client) CompleteBid(collection string, tokenId uint64) (*entity.Settlement, error) {
	var settlement entity.Settlement
	if err := c.call(http.MethodPost, assetPath("/auctions", collection, tokenId)+"/complete", nil, &settlement); err != nil {
		return nil, err
	}

	return &settlement, nil
}

func (c *Client) PlatformFee() (*entity.FeeConfig, error) {
	var fee entity.FeeConfig
	if err := c.call(http.MethodGet, "/fee", nil, &fee); err != nil {
		return nil, err
	}

	return &fee, nil
}

func (c *Client) SetPlatformFee(bps uint, recipient string) (*entity.FeeConfig, error) {
	var fee entity.FeeConfig
	if err := c.call(http.MethodPut, "/admin/fee", setFeeRequest{bps, recipient}, &fee); err != nil {
		return nil, err
	}

	return &fee, nil
}

func (c *Client) call(method, path string, body interface{}, v interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := retryablehttp.NewRequest(method, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	if c.adminToken != "" {
		req.Header.Add(AdminTokenHeader, c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("path", path)).Warn("Client: Request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err != nil {
			errResp.Error = strings.TrimSpace(string(data))
		}
		return ResponseError{resp.StatusCode, errResp.Class, errResp.Error}
	}

	if v == nil || len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, v)
}

func assetPath(prefix, collection string, tokenId uint64) string {
	return fmt.Sprintf("%s/%s/%d", prefix, collection, tokenId)
}
