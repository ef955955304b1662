package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculateDueDate returns the due date of the given installment.
// Installment 1 is due one calendar month after the start date.
func CalculateDueDate(startDate time.Time, month int) time.Time {
	return startDate.AddDate(0, month, 0)
}

// FormatMoney renders an amount at currency precision.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
