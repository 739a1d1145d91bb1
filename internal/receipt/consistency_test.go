package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"receiptscan/pkg/models"
)

func TestCheckConsistency(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.ReceiptCandidate
		want      []string
	}{
		{
			name:      "empty candidate",
			candidate: models.ReceiptCandidate{Items: []models.LineItem{}},
		},
		{
			name: "amounts agree within rounding",
			candidate: models.ReceiptCandidate{
				VATAmount: 107.14, TotalAmount: 892.86, TotalAmountDue: 1000.01,
				Items: []models.LineItem{{ItemName: "FEE", Quantity: 1, UnitPrice: 1000, TotalPrice: 1000}},
			},
		},
		{
			name: "total plus vat disagrees with due",
			candidate: models.ReceiptCandidate{
				VATAmount: 120, TotalAmount: 1000, TotalAmountDue: 1200,
			},
			want: []string{"total (1000.00) + VAT (120.00) = 1120.00, but amount due is 1200.00 (difference: 80.00)"},
		},
		{
			name: "line total disagrees with quantity times price",
			candidate: models.ReceiptCandidate{
				TotalAmountDue: 250,
				Items:          []models.LineItem{{ItemName: "BOND PAPER", Quantity: 2, UnitPrice: 150, TotalPrice: 250}},
			},
			want: []string{"item 1 (BOND PAPER): 2 x 150.00 = 300.00, but line total is 250.00"},
		},
		{
			name: "items match the pre-tax total",
			candidate: models.ReceiptCandidate{
				VATAmount: 12, TotalAmount: 100, TotalAmountDue: 112,
				Items: []models.LineItem{{ItemName: "PEN", Quantity: 10, UnitPrice: 10, TotalPrice: 100}},
			},
		},
		{
			name: "items match neither total",
			candidate: models.ReceiptCandidate{
				TotalAmount: 100, TotalAmountDue: 100,
				Items: []models.LineItem{{ItemName: "PEN", Quantity: 1, UnitPrice: 40, TotalPrice: 40}},
			},
			want: []string{"items add up to 40.00, which matches neither the total (100.00) nor the amount due (100.00)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckConsistency(tt.candidate))
		})
	}
}

func TestCheckConsistencySampleReceipt(t *testing.T) {
	assert.Empty(t, CheckConsistency(newTestExtractor().Extract(sampleReceipt)))
}

func TestCheckConsistencyDoesNotModify(t *testing.T) {
	c := models.ReceiptCandidate{
		VATAmount: 120, TotalAmount: 1000, TotalAmountDue: 1200,
		Items: []models.LineItem{{ItemName: "X", Quantity: 2, UnitPrice: 1, TotalPrice: 5}},
	}
	before := c
	before.Items = append([]models.LineItem(nil), c.Items...)

	require.NotEmpty(t, CheckConsistency(c))
	assert.Equal(t, before, c)
}
