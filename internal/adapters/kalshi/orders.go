package kalshi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// ErrNotAuthenticated is returned by portfolio calls without a signing key.
var ErrNotAuthenticated = errors.New("kalshi: no signing key configured")

// PlaceOrder submits a limit buy. Paper requests never reach the network
// and fill at the limit price. A non-2xx response is a failed OrderResult,
// not an error.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if req.Paper {
		slog.Info("kalshi: paper order",
			"ticker", req.Ticker,
			"side", req.Side,
			"qty", req.Quantity,
			"price_cents", req.LimitPriceCents,
		)
		return domain.OrderResult{
			Success:        true,
			OrderID:        "paper-" + req.Ticker,
			FilledPrice:    domain.CentsToPrice(int64(req.LimitPriceCents)),
			FilledQuantity: req.Quantity,
		}, nil
	}
	if !c.CanSign() {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: %w", ErrNotAuthenticated)
	}

	price := req.LimitPriceCents
	body := createOrderRequest{
		Ticker:        req.Ticker,
		ClientOrderID: uuid.NewString(),
		Action:        "buy",
		Side:          req.Side,
		Type:          "limit",
		Count:         req.Quantity,
	}
	if req.Side == "yes" {
		body.YesPrice = &price
	} else {
		body.NoPrice = &price
	}

	status, respBody, err := c.do(ctx, c.writeLimiter, http.MethodPost, "/portfolio/orders", nil, body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: %s: %w", req.Ticker, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		msg := errorMessage(respBody)
		slog.Warn("kalshi: order rejected", "ticker", req.Ticker, "status", status, "error", msg)
		return domain.OrderResult{Success: false, Error: msg}, nil
	}

	var resp createOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: decode response: %w", err)
	}

	filled := domain.CentsToPrice(int64(price))
	if resp.Order.AvgFillPrice != nil {
		filled = domain.CentsToPrice(*resp.Order.AvgFillPrice)
	}
	slog.Info("kalshi: order placed",
		"ticker", req.Ticker,
		"order_id", resp.Order.OrderID,
		"status", resp.Order.Status,
		"filled", resp.Order.FilledCount,
	)
	return domain.OrderResult{
		Success:        true,
		OrderID:        resp.Order.OrderID,
		FilledPrice:    filled,
		FilledQuantity: resp.Order.FilledCount,
	}, nil
}

// GetBalance returns the available balance in cents.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	if !c.CanSign() {
		return 0, fmt.Errorf("kalshi.GetBalance: %w", ErrNotAuthenticated)
	}
	var resp balanceResponse
	if err := c.get(ctx, "/portfolio/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("kalshi.GetBalance: %w", err)
	}
	return resp.Balance, nil
}
