package numeric

import (
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ParseInt(s)
	require.NoError(t, err)
	return v
}

func TestCompact(t *testing.T) {
	assert.Equal(t, Exponential{0, 0}, Compact(mustParse(t, "0")))
	assert.Equal(t, Exponential{0, 0}, Compact(nil))
	assert.Equal(t, Exponential{1234, 0}, Compact(mustParse(t, "1234")))
	assert.Equal(t, Exponential{999999999999999, 0}, Compact(mustParse(t, "999999999999999")))
	assert.Equal(t, Exponential{111111111111110, 5}, Compact(mustParse(t, "11111111111111000000")))
	assert.Equal(t, Exponential{123456789012345, 7}, Compact(mustParse(t, "1234567890123456789000")))
}

func TestCompactTruncates(t *testing.T) {
	// 16 digits ending in 9 must not round up
	e := Compact(mustParse(t, "1234567890123459"))
	assert.Equal(t, Exponential{123456789012345, 1}, e)
	assert.Equal(t, "1234567890123450", e.Big().String())
}

func TestCompactMagnitude(t *testing.T) {
	x := new(big.Int).Exp(big.NewInt(7), big.NewInt(100), nil)
	e := Compact(x)
	back := e.Big()

	assert.Equal(t, len(x.String()), len(back.String()))
	assert.Equal(t, x.String()[:MantissaDigits], back.String()[:MantissaDigits])
	assert.True(t, back.Cmp(x) <= 0)
}

func TestExponentialJSON(t *testing.T) {
	b, err := json.Marshal(Exponential{123, 4})
	require.NoError(t, err)
	assert.JSONEq(t, `[123,4]`, string(b))

	var e Exponential
	require.NoError(t, json.Unmarshal([]byte(`[5,6]`), &e))
	assert.Equal(t, Exponential{5, 6}, e)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &e))
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("1234567890123456789012345")
	require.NoError(t, err)
	assert.Equal(t, "1234567890123456789012345", v.String())

	for _, bad := range []string{"", "-1", "1.5", "abc", "0x10"} {
		_, err := ParseInt(bad)
		assert.Error(t, err, bad)
	}
}

func TestCurve(t *testing.T) {
	power := Curve{A: 1, B: 2, C: 2, D: 3}
	price := Curve{A: 5, B: 4, C: 3, D: 2}

	assert.Equal(t, 0, power.At(1).Cmp(big.NewInt(81)))
	assert.Equal(t, 0, price.At(1).Cmp(big.NewInt(2048)))

	flat := Curve{A: 0, B: 1, C: 0, D: 10}
	assert.Equal(t, "10", flat.At(1).String())
	assert.Equal(t, "10", flat.At(50).String())
}

func TestCurveResultIsCopy(t *testing.T) {
	m := NewMemo(10)
	c := Curve{A: 1, B: 1, C: 1, D: 2}

	v := c.AtMemo(m, 3)
	v.Add(v, big.NewInt(1000))

	assert.Equal(t, "64", c.AtMemo(m, 3).String())
}

func TestMemoEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemo(2)
	c := Curve{A: 0, B: 1, C: 1, D: 2}

	c.AtMemo(m, 1)
	c.AtMemo(m, 2)
	c.AtMemo(m, 1) // touch 1, so 2 is oldest
	c.AtMemo(m, 3)

	assert.Equal(t, 2, m.Len())
	_, ok := m.get(memoKey{a: 0, b: 1, c: 1, d: 2, count: 2})
	assert.False(t, ok)
	_, ok = m.get(memoKey{a: 0, b: 1, c: 1, d: 2, count: 1})
	assert.True(t, ok)

	st := m.Stats()
	assert.Equal(t, 2, st.Capacity)
	assert.EqualValues(t, 2, st.Hits)
	assert.EqualValues(t, 4, st.Misses)
}

func TestMemoConcurrentUse(t *testing.T) {
	m := NewMemo(8)
	c := Curve{A: 1, B: 2, C: 3, D: 5}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 1; n <= 32; n++ {
				assert.Equal(t, c.eval(int64(n)).String(), c.AtMemo(m, n).String())
			}
		}()
	}
	wg.Wait()

	st := m.Stats()
	assert.LessOrEqual(t, st.Size, 8)
	assert.EqualValues(t, 8*32, st.Hits+st.Misses)
}
