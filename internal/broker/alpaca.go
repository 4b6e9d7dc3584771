package broker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"zorrobridge/internal/domain"
	"zorrobridge/internal/util"
)

// Compile-time interface check.
var _ Client = (*AlpacaClient)(nil)

// Endpoints for the two account environments.
const (
	LiveBaseURL  = "https://api.alpaca.markets"
	PaperBaseURL = "https://paper-api.alpaca.markets"
)

// AlpacaClient implements Client against the Alpaca trading API. All calls
// are paced through a token-bucket limiter so a polling loop cannot blow
// the account's request allowance.
type AlpacaClient struct {
	api     *alpaca.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaClient creates an AlpacaClient for the given credentials and
// endpoint. ratePerMin bounds outbound request pacing.
func NewAlpacaClient(apiKey, apiSecret, baseURL string, ratePerMin int) *AlpacaClient {
	return &AlpacaClient{
		api: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		limiter: util.NewRateLimiter(ratePerMin),
		log:     slog.Default().With("component", "broker"),
	}
}

// GetClock returns the broker's market clock.
func (c *AlpacaClient) GetClock(ctx context.Context) (*domain.Clock, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	clock, err := c.api.GetClock()
	if err != nil {
		return nil, translate(err)
	}
	return &domain.Clock{
		Timestamp: clock.Timestamp,
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

// GetAccount returns the account snapshot.
func (c *AlpacaClient) GetAccount(ctx context.Context) (*domain.Account, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	acct, err := c.api.GetAccount()
	if err != nil {
		return nil, translate(err)
	}
	return &domain.Account{
		AccountNumber: acct.AccountNumber,
		Equity:        acct.Equity.InexactFloat64(),
		Cash:          acct.Cash.InexactFloat64(),
		BuyingPower:   acct.BuyingPower.InexactFloat64(),
	}, nil
}

// GetAsset returns instrument metadata for one symbol.
func (c *AlpacaClient) GetAsset(ctx context.Context, symbol string) (*domain.Asset, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	asset, err := c.api.GetAsset(symbol)
	if err != nil {
		return nil, translate(err)
	}
	a := toAsset(asset)
	return &a, nil
}

// ListAssets returns all active tradable assets.
func (c *AlpacaClient) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	assets, err := c.api.GetAssets(alpaca.GetAssetsRequest{Status: "active"})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]domain.Asset, 0, len(assets))
	for i := range assets {
		out = append(out, toAsset(&assets[i]))
	}
	return out, nil
}

// SubmitOrder sends a new order for execution.
func (c *AlpacaClient) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	qty := decimal.NewFromInt(req.Qty)
	placeReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type),
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		ClientOrderID: req.ClientOrderID,
		ExtendedHours: req.ExtendedHours,
	}
	if req.LimitPrice > 0 {
		px := decimal.NewFromFloat(req.LimitPrice)
		placeReq.LimitPrice = &px
	}
	if req.StopPrice > 0 {
		px := decimal.NewFromFloat(req.StopPrice)
		placeReq.StopPrice = &px
	}

	order, err := c.api.PlaceOrder(placeReq)
	if err != nil {
		return nil, translate(err)
	}
	c.log.Debug("order submitted",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"order_id", order.ID,
	)
	return toOrder(order), nil
}

// GetOrder fetches an order snapshot by broker order id.
func (c *AlpacaClient) GetOrder(ctx context.Context, brokerOrderID string) (*domain.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	order, err := c.api.GetOrder(brokerOrderID)
	if err != nil {
		return nil, translate(err)
	}
	return toOrder(order), nil
}

// GetOrderByClientID fetches an order snapshot by client order id.
func (c *AlpacaClient) GetOrderByClientID(ctx context.Context, clientOrderID string) (*domain.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	order, err := c.api.GetOrderByClientOrderID(clientOrderID)
	if err != nil {
		return nil, translate(err)
	}
	return toOrder(order), nil
}

// CancelOrder requests cancellation of an open order.
func (c *AlpacaClient) CancelOrder(ctx context.Context, brokerOrderID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.api.CancelOrder(brokerOrderID); err != nil {
		return translate(err)
	}
	return nil
}

// ReplaceOrder resizes/reprices a working order in place.
func (c *AlpacaClient) ReplaceOrder(ctx context.Context, brokerOrderID string, req domain.ReplaceRequest) (*domain.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	order, err := c.api.ReplaceOrder(brokerOrderID, toReplaceRequest(req))
	if err != nil {
		return nil, translate(err)
	}
	return toOrder(order), nil
}

// GetPosition returns the open position for a symbol.
func (c *AlpacaClient) GetPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	pos, err := c.api.GetPosition(symbol)
	if err != nil {
		return nil, translate(err)
	}
	p := toPosition(pos)
	return &p, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

// toReplaceRequest converts a replace request to the SDK form. A zero
// limit price is omitted so the broker keeps the resting price.
func toReplaceRequest(req domain.ReplaceRequest) alpaca.ReplaceOrderRequest {
	qty := decimal.NewFromInt(req.Qty)
	out := alpaca.ReplaceOrderRequest{
		Qty:           &qty,
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		ClientOrderID: req.ClientOrderID,
	}
	if req.LimitPrice > 0 {
		px := decimal.NewFromFloat(req.LimitPrice)
		out.LimitPrice = &px
	}
	return out
}

// toOrder converts an SDK order snapshot to the bridge's order type.
func toOrder(o *alpaca.Order) *domain.Order {
	out := &domain.Order{
		BrokerOrderID: o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          domain.OrderSide(o.Side),
		Type:          domain.OrderType(o.Type),
		TimeInForce:   domain.TimeInForce(o.TimeInForce),
		Status:        domain.OrderStatus(o.Status),
		FilledQty:     o.FilledQty.IntPart(),
		SubmittedAt:   o.SubmittedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Qty != nil {
		out.Qty = o.Qty.IntPart()
	}
	if o.FilledAvgPrice != nil {
		out.FilledAvgPrice = o.FilledAvgPrice.InexactFloat64()
	}
	if o.LimitPrice != nil {
		out.LimitPrice = o.LimitPrice.InexactFloat64()
	}
	return out
}

// toPosition converts an SDK position to the bridge's position type. The
// brokerage reports short positions with a negative quantity; the bridge
// keeps quantity positive and carries direction on the side.
func toPosition(p *alpaca.Position) domain.Position {
	qty := p.Qty.IntPart()
	side := domain.Buy
	if qty < 0 || p.Side == "short" {
		side = domain.Sell
		if qty < 0 {
			qty = -qty
		}
	}
	out := domain.Position{
		Symbol:        p.Symbol,
		Qty:           qty,
		Side:          side,
		AvgEntryPrice: p.AvgEntryPrice.InexactFloat64(),
	}
	if p.UnrealizedPL != nil {
		out.UnrealizedPL = p.UnrealizedPL.InexactFloat64()
	}
	return out
}

// toAsset converts an SDK asset to the bridge's asset type.
func toAsset(a *alpaca.Asset) domain.Asset {
	return domain.Asset{
		Symbol:     a.Symbol,
		Name:       a.Name,
		Exchange:   a.Exchange,
		Tradable:   a.Tradable,
		Marginable: a.Marginable,
		Shortable:  a.Shortable,
		Easy:       a.EasyToBorrow,
		Fractional: a.Fractionable,
	}
}

// translate normalises SDK errors into *Error.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}
