// Package broker defines the brokerage client interface the bridge calls
// and its Alpaca implementation.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zorrobridge/internal/domain"
)

// Client abstracts the brokerage REST surface used by the bridge. Every
// method returns either a value or an error; brokerage-originated failures
// carry a *Error with a machine-readable code and human-readable message.
type Client interface {
	// GetClock returns the broker's market clock.
	GetClock(ctx context.Context) (*domain.Clock, error)

	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.Account, error)

	// GetAsset returns tradable-instrument metadata for one symbol.
	GetAsset(ctx context.Context, symbol string) (*domain.Asset, error)

	// ListAssets returns all active tradable assets.
	ListAssets(ctx context.Context) ([]domain.Asset, error)

	// SubmitOrder sends a new order for execution and returns the broker's
	// snapshot of it.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)

	// GetOrder fetches an order snapshot by broker order id.
	GetOrder(ctx context.Context, brokerOrderID string) (*domain.Order, error)

	// GetOrderByClientID fetches an order snapshot by the bridge-assigned
	// client order id correlation token.
	GetOrderByClientID(ctx context.Context, clientOrderID string) (*domain.Order, error)

	// CancelOrder requests cancellation of an open order.
	CancelOrder(ctx context.Context, brokerOrderID string) error

	// ReplaceOrder resizes/reprices a working order in place and returns the
	// replacement order snapshot.
	ReplaceOrder(ctx context.Context, brokerOrderID string, req domain.ReplaceRequest) (*domain.Order, error)

	// GetPosition returns the open position for a symbol. A symbol with no
	// open position yields a not-found error (see IsNotFound).
	GetPosition(ctx context.Context, symbol string) (*domain.Position, error)
}

// Error is a typed brokerage failure.
type Error struct {
	StatusCode int    // HTTP status
	Code       int    // brokerage error code
	Message    string // human-readable message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("broker: %s (code=%d, status=%d)", e.Message, e.Code, e.StatusCode)
}

// IsNotFound reports whether err represents a missing entity (unknown
// order, no open position). Callers treat these as zero/empty results.
func IsNotFound(err error) bool {
	var berr *Error
	if !errors.As(err, &berr) {
		return false
	}
	if berr.StatusCode == 404 {
		return true
	}
	msg := strings.ToLower(berr.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}
