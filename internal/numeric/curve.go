package numeric

import "math/big"

// Curve holds the coefficients of f(x) = (C*x + 1) * D^(A*x + B).
type Curve struct {
	A int64 `yaml:"a" json:"a"`
	B int64 `yaml:"b" json:"b"`
	C int64 `yaml:"c" json:"c"`
	D int64 `yaml:"d" json:"d"`
}

// At evaluates the curve for the count-th unit (1-based).
// The result is a fresh value owned by the caller.
func (c Curve) At(count int) *big.Int {
	return c.AtMemo(SharedMemo(), count)
}

// AtMemo evaluates the curve using memo m.
func (c Curve) AtMemo(m *Memo, count int) *big.Int {
	k := memoKey{a: c.A, b: c.B, c: c.C, d: c.D, count: int64(count)}
	if v, ok := m.get(k); ok {
		return new(big.Int).Set(v)
	}

	v := c.eval(int64(count))
	m.put(k, v)
	return new(big.Int).Set(v)
}

func (c Curve) eval(x int64) *big.Int {
	s := big.NewInt(c.C*x + 1)
	u := big.NewInt(c.A*x + c.B)
	t := new(big.Int).Exp(big.NewInt(c.D), u, nil)
	return s.Mul(s, t)
}
