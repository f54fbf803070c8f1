package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/paysim/gateway/internal/events"
	"github.com/paysim/gateway/internal/logging"
	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/repo"
)

// ErrPaymentDeclined is the simulated downstream gateway saying no. The
// declined transaction is still recorded.
var ErrPaymentDeclined = errors.New("payment declined")

type TransactionService struct {
	Store  *repo.Repo
	Events *events.Producer

	MaxAmount   int64   // minor units; 0 means no cap
	DeclineRate float64 // 0..1

	// overridable in tests to make declines deterministic
	RandFloat func() float64
}

type SimulateInput struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail"`
	Description   string `json:"description"`
}

// Simulate runs one payment through the fake gateway under the calling
// merchant's account. Amounts over MaxAmount always decline; otherwise a
// configurable fraction of charges decline at random.
func (s *TransactionService) Simulate(ctx context.Context, merchantID uuid.UUID, in SimulateInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(in.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	if !emailRe.MatchString(strings.ToLower(strings.TrimSpace(in.CustomerEmail))) {
		return nil, fmt.Errorf("%w: invalid customer email", ErrValidation)
	}

	declined := false
	switch {
	case s.MaxAmount > 0 && in.Amount > s.MaxAmount:
		declined = true
	case s.DeclineRate > 0 && s.randFloat() < s.DeclineRate:
		declined = true
	}

	txn := &models.Transaction{
		MerchantID:    merchantID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		CustomerEmail: strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		Description:   strings.TrimSpace(in.Description),
		Status:        models.TxnSucceeded,
		Reference:     newReference(),
	}
	if declined {
		txn.Status = models.TxnDeclined
	}

	if err := s.Store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.TypeTransactionSimulated, merchantID.String(), txn)

	if declined {
		logging.FromContext(ctx).Info("payment declined", "reference", txn.Reference, "amount", txn.Amount)
		return txn, ErrPaymentDeclined
	}
	logging.FromContext(ctx).Info("payment simulated", "reference", txn.Reference, "amount", txn.Amount)
	return txn, nil
}

type History struct {
	Transactions []models.Transaction  `json:"transactions"`
	Stats        repo.TransactionStats `json:"stats"`
}

func (s *TransactionService) History(ctx context.Context, merchantID uuid.UUID) (*History, error) {
	txns, err := s.Store.ListTransactionsByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Store.MerchantTransactionStats(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return &History{Transactions: txns, Stats: stats}, nil
}

func (s *TransactionService) randFloat() float64 {
	if s.RandFloat != nil {
		return s.RandFloat()
	}
	return rand.Float64()
}

func newReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TXN-" + id[:16]
}
