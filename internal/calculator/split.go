package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CentPlaces is the precision every share is rounded to.
const CentPlaces = 2

// Share is the amount one participant owes for an expense.
type Share struct {
	Participant string
	Amount      decimal.Decimal
}

// EqualShares splits total equally among participants, in participant order.
//
// Each share is total/n rounded half away from zero to cents, independently
// for every participant. The remainder is not redistributed, so the shares
// may differ from total by at most n half-cents: $10.00 over three people is
// three shares of $3.33 that sum to $9.99.
func EqualShares(total decimal.Decimal, participants []string) ([]Share, error) {
	if !total.IsPositive() {
		return nil, fmt.Errorf("total must be positive, got %s", total)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	share := total.Div(decimal.NewFromInt(int64(len(participants)))).Round(CentPlaces)

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{Participant: p, Amount: share}
	}
	return shares, nil
}

// Sum adds up the share amounts.
func Sum(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// MaxDrift is the largest difference EqualShares allows between the sum of
// n shares and the total.
func MaxDrift(n int) decimal.Decimal {
	return decimal.New(5, -3).Mul(decimal.NewFromInt(int64(n)))
}
