package receipt

import (
	"fmt"
	"math"

	"receiptscan/pkg/models"
)

// amountTolerance absorbs rounding on printed receipts.
const amountTolerance = 0.02

// CheckConsistency compares the candidate's amounts against each other and
// returns human-readable warnings for the reviewer. It never changes the
// candidate; disagreeing values are left for the person editing the form.
func CheckConsistency(c models.ReceiptCandidate) []string {
	var warnings []string

	// Only meaningful when all three were read independently
	if c.TotalAmount > 0 && c.VATAmount > 0 && c.TotalAmountDue > 0 {
		calculated := c.TotalAmount + c.VATAmount
		if diff := math.Abs(calculated - c.TotalAmountDue); diff > amountTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"total (%.2f) + VAT (%.2f) = %.2f, but amount due is %.2f (difference: %.2f)",
				c.TotalAmount, c.VATAmount, calculated, c.TotalAmountDue, diff))
		}
	}

	var itemsTotal float64
	for i, item := range c.Items {
		itemsTotal += item.TotalPrice
		if item.Quantity > 0 && item.UnitPrice > 0 {
			expected := item.Quantity * item.UnitPrice
			if diff := math.Abs(expected - item.TotalPrice); diff > amountTolerance {
				warnings = append(warnings, fmt.Sprintf(
					"item %d (%s): %g x %.2f = %.2f, but line total is %.2f",
					i+1, item.ItemName, item.Quantity, item.UnitPrice, expected, item.TotalPrice))
			}
		}
	}

	if len(c.Items) > 0 && c.TotalAmountDue > 0 {
		// Items may be printed VAT-inclusive or exclusive, accept either
		matchesDue := math.Abs(itemsTotal-c.TotalAmountDue) <= amountTolerance
		matchesNet := c.TotalAmount > 0 && math.Abs(itemsTotal-c.TotalAmount) <= amountTolerance
		if !matchesDue && !matchesNet {
			warnings = append(warnings, fmt.Sprintf(
				"items add up to %.2f, which matches neither the total (%.2f) nor the amount due (%.2f)",
				itemsTotal, c.TotalAmount, c.TotalAmountDue))
		}
	}

	return warnings
}
