package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siuno/teamfund-api/models"
)

func TestMatchExpenseDelta(t *testing.T) {
	// 900k split over 10 participants, 2 guests: the fund pays the
	// full cost and recovers two 90k shares
	assert.Equal(t, int64(-720000), models.MatchExpenseDelta(900000, 10, 2))

	// no guests means the fund eats the whole cost
	assert.Equal(t, int64(-500000), models.MatchExpenseDelta(500000, 8, 0))

	// fractional share rounds to the nearest whole unit
	assert.Equal(t, int64(-100000+33333), models.MatchExpenseDelta(100000, 3, 1))
}

func TestTransactionBalanceDelta(t *testing.T) {
	tests := []struct {
		name string
		txn  models.Transaction
		want int64
	}{
		{
			name: "fund collection adds",
			txn:  models.Transaction{Type: models.TransactionFundCollection, Amount: 150000},
			want: 150000,
		},
		{
			name: "guest payment adds",
			txn:  models.Transaction{Type: models.TransactionGuestPayment, Amount: 50000},
			want: 50000,
		},
		{
			name: "expense subtracts",
			txn:  models.Transaction{Type: models.TransactionExpense, Amount: 200000},
			want: -200000,
		},
		{
			name: "monthly fee never touches the balance",
			txn:  models.Transaction{Type: models.TransactionMonthlyFee, Amount: 100000},
			want: 0,
		},
		{
			name: "match expense uses the participant figures",
			txn: models.Transaction{
				Type:              models.TransactionMatchExpense,
				Amount:            900000,
				TotalCost:         900000,
				TotalParticipants: 10,
				GuestCount:        2,
			},
			want: -720000,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.txn.BalanceDelta())
		})
	}
}

func TestTransactionTypeIsValid(t *testing.T) {
	assert.True(t, models.TransactionFundCollection.IsValid())
	assert.True(t, models.TransactionMatchExpense.IsValid())
	assert.False(t, models.TransactionType("Refund").IsValid())
}
