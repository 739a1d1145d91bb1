package models

// ReceiptCandidate is a best-effort structured reading of a receipt's
// recognized text. Every field is a suggestion meant to pre-fill an editable
// form; nothing here is validated.
type ReceiptCandidate struct {
	// Parties
	Supplier string `json:"supplier"` // Issuer name, may be empty

	// Dates
	TransactionDate string `json:"transaction_date"` // yyyy-mm-dd, today when unrecoverable

	// Tax and payment
	VATRegTIN *string `json:"vat_reg_tin,omitempty"` // Alphanumeric with hyphens, at least 5 characters
	Terms     *string `json:"terms,omitempty"`       // cash, net-15, net-30, net-60, net-90 or verbatim text

	// Amounts (plain floats, the downstream form owns rounding)
	VATAmount      float64 `json:"vat_amount"`
	TotalAmount    float64 `json:"total_amount"`     // Pre-tax subtotal
	TotalAmountDue float64 `json:"total_amount_due"` // Final payable amount

	// Items in receipt print order, top to bottom
	Items []LineItem `json:"items"`
}

// LineItem is a single purchased-article row.
type LineItem struct {
	ItemName   string  `json:"item_name"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}
