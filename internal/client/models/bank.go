package models

import (
	"errors"
	"fmt"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

type Account struct {
	ID             int64       `json:"id"`
	CustomerID     int64       `json:"customerId"`
	Type           AccountType `json:"type"`
	Balance        float64     `json:"balance"`
	InterestRate   *float64    `json:"interestRate,omitempty"`
	OverdraftLimit *float64    `json:"overdraftLimit,omitempty"`
}

func (a Account) String() string {
	return fmt.Sprintf("#%d %s %.2f", a.ID, a.Type, a.Balance)
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionCommitted TransactionStatus = "COMMITTED"
)

type Transaction struct {
	ID       int64             `json:"id"`
	Amount   float64           `json:"amount"`
	Sender   Account           `json:"sender"`
	Receiver Account           `json:"receiver"`
	Status   TransactionStatus `json:"status"`
}

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrSameAccount     = errors.New("sender and receiver must differ")
	ErrMissingAccounts = errors.New("sender and receiver are required")
)

// TransferRequest is sent as query parameters, not as a body.
type TransferRequest struct {
	SenderAccountID   int64
	ReceiverAccountID int64
	Amount            float64
}

func (r TransferRequest) Validate() error {
	if r.SenderAccountID <= 0 || r.ReceiverAccountID <= 0 {
		return ErrMissingAccounts
	}
	if r.SenderAccountID == r.ReceiverAccountID {
		return ErrSameAccount
	}
	if !(r.Amount > 0) {
		return ErrInvalidAmount
	}
	return nil
}
