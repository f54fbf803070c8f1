package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paysim/gateway/internal/models"
)

func TestTransactionStatsAndListing(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	merchant := uuid.New()
	other := uuid.New()

	seed := []models.Transaction{
		{MerchantID: merchant, Amount: 1000, Currency: "USD", CustomerEmail: "c1@x.com", Status: models.TxnSucceeded, Reference: "TXN-A"},
		{MerchantID: merchant, Amount: 2500, Currency: "USD", CustomerEmail: "c2@x.com", Status: models.TxnSucceeded, Reference: "TXN-B"},
		{MerchantID: merchant, Amount: 9000, Currency: "EUR", CustomerEmail: "c3@x.com", Status: models.TxnDeclined, Reference: "TXN-C"},
		{MerchantID: other, Amount: 7777, Currency: "USD", CustomerEmail: "c4@x.com", Status: models.TxnSucceeded, Reference: "TXN-D"},
	}
	for i := range seed {
		require.NoError(t, r.CreateTransaction(ctx, &seed[i]))
	}

	txns, err := r.ListTransactionsByMerchant(ctx, merchant)
	require.NoError(t, err)
	assert.Len(t, txns, 3, "only the merchant's own transactions")

	stats, err := r.MerchantTransactionStats(ctx, merchant)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, int64(3500), stats.Volume, "volume counts succeeded transactions only")
	assert.Equal(t, int64(2), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Declined)
}

func TestMerchantTransactionStats_Empty(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	stats, err := r.MerchantTransactionStats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.Volume)
}
