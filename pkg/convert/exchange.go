// Package convert exchanges game currency against the on-chain game token
// in both directions. All amount math is exact decimal on scaled
// representations of the input strings.
package convert

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gamepub/chain-middleware/pkg/config"
)

var (
	ErrInvalidRate   = errors.New("invalid exchange rate")
	ErrInvalidAmount = errors.New("invalid convert amount")
)

// Exchange converts between game currency units and token amounts at a
// fixed configured rate (currency units per one whole token).
type Exchange struct {
	rate          decimal.Decimal
	tokenDecimals int32
}

// NewExchange parses and validates the configured rate.
func NewExchange(cfg config.ConvertConfig, tokenDecimals int32) (*Exchange, error) {
	rate, err := decimal.NewFromString(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRate, cfg.Rate)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidRate, rate)
	}
	return &Exchange{rate: rate, tokenDecimals: tokenDecimals}, nil
}

// ToCurrency returns, for a whole-token amount string, the token amount in
// the smallest unit and the currency units granted. Currency is truncated
// to whole units.
func (e *Exchange) ToCurrency(tokenAmount string) (micro string, currency string, err error) {
	tokens, err := parsePositive(tokenAmount)
	if err != nil {
		return "", "", err
	}

	scaled := tokens.Shift(e.tokenDecimals).Truncate(0)
	if scaled.IsZero() {
		return "", "", fmt.Errorf("%w: %s is below the token's smallest unit", ErrInvalidAmount, tokenAmount)
	}
	granted := tokens.Mul(e.rate).Truncate(0)
	return scaled.String(), granted.String(), nil
}

// ToToken returns, for a currency amount string, the token amount in the
// smallest unit. The quotient is truncated at the token's precision so the
// service never over-pays.
func (e *Exchange) ToToken(currencyAmount string) (micro string, err error) {
	currency, err := parsePositive(currencyAmount)
	if err != nil {
		return "", err
	}

	tokens := currency.DivRound(e.rate, e.tokenDecimals+1).Truncate(e.tokenDecimals)
	scaled := tokens.Shift(e.tokenDecimals).Truncate(0)
	if scaled.IsZero() {
		return "", fmt.Errorf("%w: %s converts to less than the token's smallest unit", ErrInvalidAmount, currencyAmount)
	}
	return scaled.String(), nil
}

// compareMicro numerically compares two smallest-unit amounts.
func compareMicro(a, b string) (int, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, a)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, b)
	}
	return da.Cmp(db), nil
}

func parsePositive(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	return d, nil
}
