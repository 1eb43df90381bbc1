package amount

import (
	"bytes"
	"errors"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("amount overflow")
	ErrUnderflow      = errors.New("amount underflow")
	ErrDivisionByZero = errors.New("amount division by zero")
	ErrInvalid        = errors.New("amount is invalid")
)

// Amount is an unsigned 256-bit value. Every arithmetic method is checked and
// reports wrap-around as an error instead of returning a truncated result.
type Amount struct {
	v uint256.Int
}

var Zero = Amount{}

func New(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// Parse accepts a base-10 string without sign.
func Parse(raw string) (Amount, error) {
	if raw == "" {
		return Amount{}, ErrInvalid
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return Amount{}, ErrInvalid
		}
	}
	var a Amount
	if err := a.v.SetFromDecimal(raw); err != nil {
		return Amount{}, ErrInvalid
	}
	return a, nil
}

func MustParse(raw string) Amount {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, ErrUnderflow
	}
	return out, nil
}

func (a Amount) Mul(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.MulOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrOverflow
	}
	return out, nil
}

func (a Amount) Div(b Amount) (Amount, error) {
	if b.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	var out Amount
	out.v.Div(&a.v, &b.v)
	return out, nil
}

// MulDiv computes a*num/den with a checked intermediate product.
func (a Amount) MulDiv(num, den uint64) (Amount, error) {
	product, err := a.Mul(New(num))
	if err != nil {
		return Amount{}, err
	}
	return product.Div(New(den))
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) Equal(b Amount) bool   { return a.v.Eq(&b.v) }
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }
func (a Amount) GreaterThan(b Amount) bool {
	return a.v.Gt(&b.v)
}
func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) String() string {
	return a.v.Dec()
}

// Float64 is lossy and only meant for metrics.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.v.ToBig()).Float64()
	return f
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.v.Dec())), nil
}

// UnmarshalJSON accepts both "123" and 123 so RPC clients can send plain integers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return ErrInvalid
		}
		return a.UnmarshalText([]byte(unquoted))
	}
	return a.UnmarshalText(data)
}
