package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"walletcore/internal/logger"
)

const statusCheckTimeout = 5 * time.Second

// Client talks to the bank gateway over HTTP.
// Settlement calls are awaited to completion: caller cancellation must not
// abort a request the bank may already be processing, so the outgoing request
// detaches from the caller's cancellation.
type Client struct {
	GatewayAddr string

	client *http.Client
	logger logger.Logger
}

func NewClient(addr string, l logger.Logger) *Client {
	if l == nil {
		l = logger.NewNop()
	}

	return &Client{
		GatewayAddr: addr,
		client:      &http.Client{},
		logger:      l,
	}
}

type settlementRequest struct {
	SourceRef       string `json:"source_ref,omitempty"`
	DestinationIBAN string `json:"destination_iban,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	ReferenceCode   string `json:"reference_code"`
}

type settlementResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

func (c *Client) RequestTopUp(ctx context.Context, sourceRef string, amount decimal.Decimal, currencyCode string, referenceCode string) (bool, error) {
	return c.settle(ctx, "/api/topups", settlementRequest{
		SourceRef:     sourceRef,
		Amount:        amount.String(),
		Currency:      currencyCode,
		ReferenceCode: referenceCode,
	})
}

func (c *Client) RequestWithdraw(ctx context.Context, destinationIBAN string, amount decimal.Decimal, currencyCode string, referenceCode string) (bool, error) {
	return c.settle(ctx, "/api/withdrawals", settlementRequest{
		DestinationIBAN: destinationIBAN,
		Amount:          amount.String(),
		Currency:        currencyCode,
		ReferenceCode:   referenceCode,
	})
}

// CheckSettlement asks the gateway what happened to an earlier settlement.
// A reference the bank never saw counts as declined: the request died before
// reaching the bank, so no money moved on their side.
// The lookup is read-only, so unlike settle it is bounded: a stalled status
// endpoint must not hold a reconciler worker.
func (c *Client) CheckSettlement(ctx context.Context, referenceCode string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, statusCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayAddr+"/api/settlements/"+referenceCode, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create settlement status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach bank gateway: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return SettlementDeclined, nil
	default:
		return "", fmt.Errorf("unexpected bank gateway status %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode bank gateway response: %w", err)
	}

	switch result.Status {
	case SettlementPending, SettlementApproved, SettlementDeclined:
		return result.Status, nil
	default:
		return "", fmt.Errorf("unknown settlement status %q", result.Status)
	}
}

func (c *Client) settle(ctx context.Context, path string, sr settlementRequest) (bool, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return false, fmt.Errorf("failed to encode settlement request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, c.GatewayAddr+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach bank gateway: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Bank gateway returned unexpected status", "status_code", resp.StatusCode, "reference_code", sr.ReferenceCode)
		return false, fmt.Errorf("unexpected bank gateway status %d", resp.StatusCode)
	}

	var result settlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode bank gateway response: %w", err)
	}

	c.logger.Debug("Settlement answered", "reference_code", sr.ReferenceCode, "approved", result.Approved, "reason", result.Reason)
	return result.Approved, nil
}
