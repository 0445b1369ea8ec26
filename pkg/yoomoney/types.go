package yoomoney

import "time"

const (
	OperationStatusSuccess = "success"
	DirectionIn            = "in"
)

// Operation is one entry of the gateway's operation history.
type Operation struct {
	OperationID string    `json:"operation_id"`
	Status      string    `json:"status"`
	Direction   string    `json:"direction"`
	Amount      float64   `json:"amount"`
	Label       string    `json:"label"`
	Title       string    `json:"title"`
	Datetime    time.Time `json:"datetime"`
}

type operationHistoryResponse struct {
	Error      string      `json:"error"`
	Operations []Operation `json:"operations"`
}

// AccountInfo is the subset of /api/account-info the app surfaces.
type AccountInfo struct {
	Account  string  `json:"account"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}
