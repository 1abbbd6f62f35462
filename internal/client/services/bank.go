package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/models"
	"github.com/dmitrijs2005/securebank/internal/logging"
)

// BankService reads accounts and moves money through the gateway.
type BankService interface {
	Accounts(ctx context.Context, customerID int64) ([]models.Account, error)
	Balance(ctx context.Context, accountID int64) (float64, error)
	Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	Transfer(ctx context.Context, req models.TransferRequest) (string, error)
}

type bankService struct {
	doer client.Doer
	log  logging.Logger
}

func NewBankService(doer client.Doer, log logging.Logger) BankService {
	return &bankService{doer: doer, log: logging.OrDiscard(log)}
}

func (s *bankService) Accounts(ctx context.Context, customerID int64) ([]models.Account, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("invalid customer id %d", customerID)
	}
	accounts, err := client.Call(ctx, s.doer, client.AccountsEndpoint, customerID)
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	return accounts, nil
}

func (s *bankService) Balance(ctx context.Context, accountID int64) (float64, error) {
	if accountID <= 0 {
		return 0, fmt.Errorf("invalid account id %d", accountID)
	}
	b, err := client.Call(ctx, s.doer, client.BalanceEndpoint, accountID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

func (s *bankService) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("invalid account id %d", accountID)
	}
	txs, err := client.Call(ctx, s.doer, client.TransactionsEndpoint, accountID)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return txs, nil
}

// Transfer validates req locally before it is sent.
func (s *bankService) Transfer(ctx context.Context, req models.TransferRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	msg, err := client.Call(ctx, s.doer, client.TransferEndpoint, req)
	if err != nil {
		return "", fmt.Errorf("transfer: %w", err)
	}
	s.log.Info(ctx, "transfer submitted", "sender", req.SenderAccountID, "receiver", req.ReceiverAccountID)
	return msg, nil
}
