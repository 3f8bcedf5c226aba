package game

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/model"
	"isuclicker-api/internal/numeric"
)

func flatItem(id int, a, b, c, d int64) model.Item {
	curve := numeric.Curve{A: a, B: b, C: c, D: d}
	return model.Item{ItemID: id, Power: curve, Price: curve}
}

func deposit(t int64, isu string) model.Deposit {
	v, ok := new(big.Int).SetString(isu, 10)
	if !ok {
		panic(isu)
	}
	return model.Deposit{Time: t, Amount: v}
}

func TestCalcStatus_Empty(t *testing.T) {
	s, err := CalcStatus(0, catalog.MustNew(), nil, nil)
	require.NoError(t, err)

	assert.Empty(t, s.Adding)
	assert.Empty(t, s.OnSale)
	require.Len(t, s.Schedule, 1)
	assert.Equal(t, model.Schedule{Time: 0}, s.Schedule[0])
}

func TestCalcStatus_Deposits(t *testing.T) {
	cat := catalog.MustNew()
	deposits := []model.Deposit{
		deposit(100, "1"),
		deposit(200, "2"),
		deposit(300, "1234567890123456789"),
	}

	s, err := CalcStatus(0, cat, deposits, nil)
	require.NoError(t, err)
	assert.Len(t, s.Adding, 3)
	require.Len(t, s.Schedule, 4)

	assert.Equal(t, int64(100), s.Schedule[1].Time)
	assert.Equal(t, numeric.Exponential{Mantissa: 1000}, s.Schedule[1].MilliIsu)
	assert.Equal(t, numeric.Exponential{Mantissa: 3000}, s.Schedule[2].MilliIsu)
	assert.Equal(t, numeric.Exponential{Mantissa: 123456789012345, Exponent: 7}, s.Schedule[3].MilliIsu)
	assert.Equal(t, model.Adding{Time: 300, Isu: "1234567890123456789"}, s.Adding[2])

	s, err = CalcStatus(500, cat, deposits, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Adding)
	require.Len(t, s.Schedule, 1)
	assert.Equal(t, int64(500), s.Schedule[0].Time)
	assert.Equal(t, numeric.Exponential{Mantissa: 123456789012345, Exponent: 7}, s.Schedule[0].MilliIsu)
}

func TestCalcStatus_BuySingle(t *testing.T) {
	cat := catalog.MustNew(flatItem(1, 0, 1, 0, 10))

	s, err := CalcStatus(0, cat,
		[]model.Deposit{deposit(0, "10")},
		[]model.Purchase{{ItemID: 1, Ordinal: 1, Time: 100}})
	require.NoError(t, err)

	assert.Empty(t, s.Adding)
	require.Len(t, s.Items, 1)
	require.Len(t, s.Schedule, 2)
	assert.Equal(t, model.Schedule{Time: 0}, s.Schedule[0])
	assert.Equal(t, model.Schedule{Time: 100, TotalPower: numeric.Exponential{Mantissa: 10}}, s.Schedule[1])

	item := s.Items[0]
	assert.Equal(t, 1, item.CountBought)
	assert.Equal(t, 0, item.CountBuilt)
	require.Len(t, item.Building, 1)
	assert.Equal(t, model.Building{Time: 100, CountBuilt: 1, Power: numeric.Exponential{Mantissa: 10}}, item.Building[0])
}

func TestCalcStatus_OnSaleLater(t *testing.T) {
	cat := catalog.MustNew(flatItem(1, 0, 1, 0, 1))

	s, err := CalcStatus(1, cat,
		[]model.Deposit{deposit(0, "1")},
		[]model.Purchase{{ItemID: 1, Ordinal: 1, Time: 0}})
	require.NoError(t, err)

	assert.Empty(t, s.Adding)
	assert.Len(t, s.Schedule, 1)
	require.Len(t, s.OnSale, 1)
	assert.Equal(t, model.OnSale{ItemID: 1, Time: 1000}, s.OnSale[0])

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].CountBought)
	assert.Equal(t, 1, s.Items[0].CountBuilt)
	assert.Equal(t, numeric.Exponential{Mantissa: 1}, s.Items[0].Power)
	assert.Equal(t, numeric.Exponential{Mantissa: 1}, s.Items[0].NextPrice)
}

func TestCalcStatus_Buy(t *testing.T) {
	x := model.Item{ItemID: 1, Power: numeric.Curve{A: 1, B: 1, C: 3, D: 2}, Price: numeric.Curve{A: 1, B: 1, C: 7, D: 6}}
	y := model.Item{ItemID: 2, Power: numeric.Curve{A: 1, B: 1, C: 7, D: 6}, Price: numeric.Curve{A: 1, B: 1, C: 3, D: 2}}
	cat := catalog.MustNew(x, y)

	s, err := CalcStatus(0, cat,
		[]model.Deposit{deposit(0, "10000000")},
		[]model.Purchase{
			{ItemID: 1, Ordinal: 1, Time: 100},
			{ItemID: 1, Ordinal: 2, Time: 200},
			{ItemID: 2, Ordinal: 1, Time: 300},
			{ItemID: 2, Ordinal: 2, Time: 2001},
		})
	require.NoError(t, err)

	assert.Empty(t, s.Adding)
	require.Len(t, s.Schedule, 4)
	assert.Len(t, s.Items, 2)

	milli := new(big.Int).Mul(big.NewInt(10000000), big.NewInt(1000))
	for _, p := range []*big.Int{x.GetPrice(1), x.GetPrice(2), y.GetPrice(1), y.GetPrice(2)} {
		milli.Sub(milli, new(big.Int).Mul(p, big.NewInt(1000)))
	}
	power := new(big.Int)

	assert.Equal(t, numeric.Compact(milli), s.Schedule[0].MilliIsu)
	assert.Equal(t, numeric.Compact(power), s.Schedule[0].TotalPower)

	power.Add(power, x.GetPower(1))
	assert.Equal(t, int64(100), s.Schedule[1].Time)
	assert.Equal(t, numeric.Compact(milli), s.Schedule[1].MilliIsu)
	assert.Equal(t, numeric.Compact(power), s.Schedule[1].TotalPower)

	milli.Add(milli, new(big.Int).Mul(power, big.NewInt(100)))
	power.Add(power, x.GetPower(2))
	assert.Equal(t, int64(200), s.Schedule[2].Time)
	assert.Equal(t, numeric.Compact(milli), s.Schedule[2].MilliIsu)
	assert.Equal(t, numeric.Compact(power), s.Schedule[2].TotalPower)

	milli.Add(milli, new(big.Int).Mul(power, big.NewInt(100)))
	power.Add(power, y.GetPower(1))
	assert.Equal(t, int64(300), s.Schedule[3].Time)
	assert.Equal(t, numeric.Compact(milli), s.Schedule[3].MilliIsu)
	assert.Equal(t, numeric.Compact(power), s.Schedule[3].TotalPower)

	assert.Equal(t, []model.OnSale{{ItemID: 1, Time: 0}, {ItemID: 2, Time: 0}}, s.OnSale)
	assert.Equal(t, 2, s.Items[1].CountBought)
	assert.Equal(t, 0, s.Items[1].CountBuilt)
}

func TestCalcStatus_UnknownItem(t *testing.T) {
	_, err := CalcStatus(0, catalog.MustNew(), nil, []model.Purchase{{ItemID: 9, Ordinal: 1}})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestCalcStatus_Deterministic(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	deposits := []model.Deposit{deposit(0, "100000"), deposit(500, "7")}
	purchases := []model.Purchase{
		{ItemID: 1, Ordinal: 1, Time: 10},
		{ItemID: 2, Ordinal: 1, Time: 10},
		{ItemID: 1, Ordinal: 2, Time: 600},
	}

	a, err := CalcStatus(0, cat, deposits, purchases)
	require.NoError(t, err)
	b, err := CalcStatus(0, cat, deposits, purchases)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
	assert.Len(t, a.Items, cat.Len())
}
