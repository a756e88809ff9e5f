// Package fees computes percentage-based fee splits and assembles the
// corresponding transfer messages. All arithmetic is exact decimal; native
// floats never touch an amount.
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/config"
)

// ErrInvalidAmount is returned for unparseable or non-positive fee amounts.
var ErrInvalidAmount = errors.New("invalid fee amount")

// Payee is one line of the fee split table.
type Payee struct {
	Name    string
	Address string
	Percent decimal.Decimal
}

// SplitTable is the fixed payee/percentage table. Percentages sum to 1.
type SplitTable []Payee

// NewSplitTable parses and validates a fee split configuration.
func NewSplitTable(cfg config.FeeSplitConfig) (SplitTable, error) {
	table := make(SplitTable, 0, len(cfg.Payees))
	sum := decimal.Zero
	for _, p := range cfg.Payees {
		pct, err := decimal.NewFromString(p.Percent)
		if err != nil {
			return nil, fmt.Errorf("payee %s: parse percent %q: %w", p.Name, p.Percent, err)
		}
		if pct.IsNegative() {
			return nil, fmt.Errorf("payee %s: negative percent", p.Name)
		}
		if p.Address == "" {
			return nil, fmt.Errorf("payee %s: address is required", p.Name)
		}
		table = append(table, Payee{Name: p.Name, Address: p.Address, Percent: pct})
		sum = sum.Add(pct)
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee split percentages sum to %s, want 1", sum)
	}
	return table, nil
}

// Assembler turns a fee amount into per-payee transfer messages for the
// native coin and the game's fungible token.
type Assembler struct {
	table          SplitTable
	nativeDenom    string
	nativeDecimals int32
	tokenContract  string
	tokenDecimals  int32
}

// NewAssembler creates a fee assembler from the split table and chain settings
func NewAssembler(table SplitTable, chainCfg *config.ChainConfig) *Assembler {
	return &Assembler{
		table:          table,
		nativeDenom:    chainCfg.NativeDenom,
		nativeDecimals: chainCfg.NativeDecimals,
		tokenContract:  chainCfg.TokenContract,
		tokenDecimals:  chainCfg.TokenDecimals,
	}
}

// Table returns the split table.
func (a *Assembler) Table() SplitTable {
	return a.table
}

// Split divides amount across the table. Each line item is computed
// independently as amount*percent truncated to the asset's decimal
// precision; the remainder is never redistributed, so the parts may sum to
// slightly less than the whole.
func (a *Assembler) Split(amount decimal.Decimal, decimals int32) []decimal.Decimal {
	parts := make([]decimal.Decimal, len(a.table))
	for i, payee := range a.table {
		parts[i] = amount.Mul(payee.Percent).RoundDown(decimals)
	}
	return parts
}

// NativeFeeMsgs builds one bank send per payee for a native coin fee.
// amount is a decimal string in whole coins.
func (a *Assembler) NativeFeeMsgs(sender, amount string) ([]chain.Msg, error) {
	total, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	parts := a.Split(total, a.nativeDecimals)
	msgs := make([]chain.Msg, 0, len(parts))
	for i, part := range parts {
		micro := part.Shift(a.nativeDecimals).String()
		msg, err := chain.NewMsgSend(sender, a.table[i].Address, []chain.Coin{
			{Denom: a.nativeDenom, Amount: micro},
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

type cw20Transfer struct {
	Transfer struct {
		Recipient string `json:"recipient"`
		Amount    string `json:"amount"`
	} `json:"transfer"`
}

// TokenFeeMsgs builds one token contract transfer per payee for a game token
// fee. amount is a decimal string in whole tokens.
func (a *Assembler) TokenFeeMsgs(sender, amount string) ([]chain.Msg, error) {
	total, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	parts := a.Split(total, a.tokenDecimals)
	msgs := make([]chain.Msg, 0, len(parts))
	for i, part := range parts {
		var exec cw20Transfer
		exec.Transfer.Recipient = a.table[i].Address
		exec.Transfer.Amount = part.Shift(a.tokenDecimals).String()

		msg, err := chain.NewMsgExecuteContract(sender, a.tokenContract, exec, nil)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func parseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, amount)
	}
	return d, nil
}
