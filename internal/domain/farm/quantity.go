package farm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// Quantity is an exact decimal used for balances, prices and item counts.
// The zero value is 0.
type Quantity struct {
	value decimal.Decimal
}

var Zero = Quantity{}

func NewQuantity(n int64) Quantity {
	return Quantity{value: decimal.NewFromInt(n)}
}

func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, ErrInvalidQuantity
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return Quantity{value: d}, nil
}

// MustQuantity panics on malformed input. Intended for catalog constants.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Add(other Quantity) Quantity { return Quantity{value: q.value.Add(other.value)} }
func (q Quantity) Sub(other Quantity) Quantity { return Quantity{value: q.value.Sub(other.value)} }
func (q Quantity) Mul(n int64) Quantity        { return Quantity{value: q.value.Mul(decimal.NewFromInt(n))} }
func (q Quantity) LessThan(other Quantity) bool {
	return q.value.LessThan(other.value)
}
func (q Quantity) Equal(other Quantity) bool { return q.value.Equal(other.value) }
func (q Quantity) IsNegative() bool          { return q.value.IsNegative() }
func (q Quantity) IsZero() bool              { return q.value.IsZero() }

// String returns the canonical decimal form: no exponent, no trailing zeros.
func (q Quantity) String() string {
	return q.value.String()
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Bare numbers are accepted for hand-written payloads.
		var n json.Number
		if numErr := json.Unmarshal(b, &n); numErr != nil {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, string(b))
		}
		s = n.String()
	}
	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
