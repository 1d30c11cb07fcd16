package sdk

import (
	"bytes"
	"context"
	"encoding/json"
)

// GetMyExchanges lists the exchange requests where the user is buyer or seller
func (c *Client) GetMyExchanges(ctx context.Context) (*ExchangeList, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result ExchangeList
	if err := c.get(ctx, "/exchange/my-requests", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetExchangeHistory lists the user's exchanges for the profile page
func (c *Client) GetExchangeHistory(ctx context.Context) ([]*ExchangeRequest, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.get(ctx, "/exchange/user", nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' && raw[0] != '[' {
		return nil, nil
	}
	var result ExchangeList
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result.Exchanges, nil
}

// StartExchange proposes a meeting at a booth
func (c *Client) StartExchange(ctx context.Context, req *StartExchangeRequest) (*ExchangeRequest, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var result struct {
		ExchangeRequest
		Exchange *ExchangeRequest `json:"exchange"`
	}
	if err := c.post(ctx, "/exchange/start", req, &result); err != nil {
		return nil, err
	}
	if result.Exchange != nil {
		return result.Exchange, nil
	}
	return &result.ExchangeRequest, nil
}

// AcceptExchange accepts a pending request as its seller and returns the invoice token
func (c *Client) AcceptExchange(ctx context.Context, exchangeId string) (*AcceptExchangeResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result AcceptExchangeResponse
	if err := c.post(ctx, "/exchange/"+exchangeId+"/accept", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectExchange rejects a pending request as its seller
func (c *Client) RejectExchange(ctx context.Context, exchangeId string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.post(ctx, "/exchange/"+exchangeId+"/reject", struct{}{}, nil)
}
