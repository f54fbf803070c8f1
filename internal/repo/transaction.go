package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/paysim/gateway/internal/models"
)

// TransactionStats aggregates a merchant's simulated payment history.
type TransactionStats struct {
	Count     int64 `json:"count"`
	Volume    int64 `json:"volume"` // minor units, succeeded transactions only
	Succeeded int64 `json:"succeeded"`
	Declined  int64 `json:"declined"`
}

func (r *Repo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *Repo) ListTransactionsByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.DB.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *Repo) MerchantTransactionStats(ctx context.Context, merchantID uuid.UUID) (TransactionStats, error) {
	var stats TransactionStats
	err := r.DB.WithContext(ctx).Model(&models.Transaction{}).
		Select("COUNT(*) AS count, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS volume, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS succeeded, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS declined",
			models.TxnSucceeded, models.TxnSucceeded, models.TxnDeclined).
		Where("merchant_id = ?", merchantID).
		Scan(&stats).Error
	return stats, err
}
