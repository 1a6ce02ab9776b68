package handler

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MoneyFormatter renders whole-unit ledger amounts as display strings in a
// single configured currency, e.g. 1500 -> "₹1,500.00".
type MoneyFormatter struct {
	code   string
	factor decimal.Decimal
}

func NewMoneyFormatter(code string) (*MoneyFormatter, error) {
	cur := money.GetCurrency(code)
	if cur == nil {
		return nil, fmt.Errorf("NewMoneyFormatter: unknown currency %q", code)
	}
	factor, err := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	if err != nil {
		return nil, fmt.Errorf("NewMoneyFormatter: %w", err)
	}
	return &MoneyFormatter{code: cur.Code, factor: factor}, nil
}

func (f *MoneyFormatter) Currency() string { return f.code }

func (f *MoneyFormatter) Format(amount int64) string {
	minor := decimal.NewFromInt(amount).Mul(f.factor)
	return money.New(minor.IntPart(), f.code).Display()
}
