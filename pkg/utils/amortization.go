package utils

import (
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/credit-engine/pkg/errors"
)

// DivisionPrecision is the number of fractional digits kept by intermediate divisions.
const DivisionPrecision = 16

// Fractional digits accepted on input; they match the NUMERIC columns that store them.
const (
	MoneyScale = 2
	RateScale  = 4
)

var (
	one            = decimal.NewFromInt(1)
	monthsPerYear  = decimal.NewFromInt(12)
	percentDivisor = decimal.NewFromInt(100)
)

// Terms are the derived, immutable repayment figures of a credit.
//
// MonthlyPayment is rounded to cents inside the calculation and TotalInterest is
// derived from that rounded figure, so it can be slightly off the exact value and
// even negative: 1000 at 0% over 3 months pays 333.33 a month for -0.01 interest.
type Terms struct {
	MonthlyPayment decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeTerms derives the fixed monthly installment of a fully amortizing loan.
//
//	r       = annualRatePercent / 100 / 12
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)   (P / n when r == 0)
//
// The installment is rounded to cents since it is the amount billed each month.
// Total interest is derived from the rounded installment, so
// MonthlyPayment*n - P == TotalInterest holds exactly.
func ComputeTerms(principal, annualRatePercent decimal.Decimal, durationMonths int) (Terms, error) {
	if durationMonths <= 0 {
		return Terms{}, customError.WrapInvalidLoanTerms("duration must be greater than zero")
	}
	if !principal.IsPositive() {
		return Terms{}, customError.WrapInvalidLoanTerms("principal must be greater than zero")
	}
	if !HasScale(principal, MoneyScale) {
		return Terms{}, customError.WrapInvalidLoanTerms("principal cannot have more than 2 decimal places")
	}
	if annualRatePercent.IsNegative() {
		return Terms{}, customError.WrapInvalidLoanTerms("interest rate cannot be negative")
	}
	if !HasScale(annualRatePercent, RateScale) {
		return Terms{}, customError.WrapInvalidLoanTerms("interest rate cannot have more than 4 decimal places")
	}

	monthlyPayment := CalculateMonthlyPayment(principal, annualRatePercent, durationMonths)
	totalInterest := monthlyPayment.Mul(decimal.NewFromInt(int64(durationMonths))).Sub(principal)

	return Terms{
		MonthlyPayment: monthlyPayment,
		TotalInterest:  totalInterest,
		TotalAmount:    principal.Add(totalInterest),
	}, nil
}

// HasScale reports whether d needs no more than places fractional digits.
// Trailing zeros do not count, so 10.500 has scale 2.
func HasScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// CalculateMonthlyPayment expects already validated inputs.
func CalculateMonthlyPayment(principal, annualRatePercent decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	monthlyRate := MonthlyRate(annualRatePercent)

	if monthlyRate.IsZero() {
		return principal.DivRound(n, DivisionPrecision).Round(2)
	}

	factor := compound(one.Add(monthlyRate), months)
	numerator := principal.Mul(monthlyRate).Mul(factor)
	payment := numerator.DivRound(factor.Sub(one), DivisionPrecision)

	return payment.Round(2)
}

// MonthlyRate converts an annual percentage into a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.DivRound(percentDivisor.Mul(monthsPerYear), DivisionPrecision)
}

// compound raises base to n by repeated squaring. Intermediate products are
// rounded to twice the division precision to keep operands bounded.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(2 * DivisionPrecision)
		}
		base = base.Mul(base).Round(2 * DivisionPrecision)
		n >>= 1
	}
	return result
}
