package remote

import (
	"context"
	"fmt"

	"pos-floor-backend/internal/model"
)

// Client is the boundary to the authoritative session store. The remote
// store is the source of truth for occupancy whenever it is reachable.
type Client interface {
	ListTables(ctx context.Context) ([]model.TableRecord, error)
	UpsertTables(ctx context.Context, tables []model.TableRecord) error
	StartSession(ctx context.Context, label, serverID, serverName string) (StartResult, error)
	StopSession(ctx context.Context, label string) (StopResult, error)
	MoveSession(ctx context.Context, fromLabel, toLabel string) error
	// GetActiveSession returns nil when no session is open for the label.
	GetActiveSession(ctx context.Context, label string) (*model.ActiveSession, error)
	ListActiveSessions(ctx context.Context) ([]model.ActiveSession, error)
	GetSessionItems(ctx context.Context, label string) ([]model.LineItem, error)
	// CloseOrders asks the store to close any still-open orders for the
	// label's session. Best effort; callers tolerate failure.
	CloseOrders(ctx context.Context, label string) error
}

// StartResult is the store's answer to a session start request.
type StartResult struct {
	SessionID string `json:"sessionId"`
	BillingID string `json:"billingId"`
	Message   string `json:"message"`
}

// StopResult is the store's answer to a session stop request.
type StopResult struct {
	BillSummary string `json:"billSummary"`
	Message     string `json:"message"`
}

// APIError is an application-level rejection from the session store,
// as opposed to a transport failure.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("session store rejected request (code %d): %s", e.Code, e.Message)
}
