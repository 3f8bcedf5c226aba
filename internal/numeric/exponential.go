package numeric

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MantissaDigits is the maximum number of decimal digits kept in a mantissa.
const MantissaDigits = 15

// Exponential is a decimal number Mantissa * 10^Exponent.
// In JSON it is the two element array [mantissa, exponent].
type Exponential struct {
	Mantissa int64
	Exponent int64
}

// Compact encodes x keeping at most 15 significant decimal digits.
// Trailing digits are truncated, not rounded.
func Compact(x *big.Int) Exponential {
	if x == nil || x.Sign() == 0 {
		return Exponential{}
	}

	s := x.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var exp int64
	if len(s) > MantissaDigits {
		exp = int64(len(s) - MantissaDigits)
		s = s[:MantissaDigits]
	}

	m, _ := strconv.ParseInt(s, 10, 64)
	if neg {
		m = -m
	}
	return Exponential{Mantissa: m, Exponent: exp}
}

// Big reconstructs Mantissa * 10^Exponent.
func (e Exponential) Big() *big.Int {
	v := big.NewInt(e.Mantissa)
	if e.Exponent > 0 {
		p := new(big.Int).Exp(big.NewInt(10), big.NewInt(e.Exponent), nil)
		v.Mul(v, p)
	}
	return v
}

// String returns the value in "m e" form, mostly for logs.
func (e Exponential) String() string {
	if e.Exponent == 0 {
		return strconv.FormatInt(e.Mantissa, 10)
	}
	return fmt.Sprintf("%de%d", e.Mantissa, e.Exponent)
}

// MarshalJSON implements json.Marshaler.
func (e Exponential) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d]", e.Mantissa, e.Exponent)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Exponential) UnmarshalJSON(b []byte) error {
	var data []int64
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	if len(data) != 2 {
		return errors.New("exponential: expected [mantissa, exponent]")
	}
	e.Mantissa = data[0]
	e.Exponent = data[1]
	return nil
}

// ParseInt parses a non-negative decimal integer of any size.
func ParseInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid decimal integer %q", s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal integer %q", s)
	}
	return v, nil
}
