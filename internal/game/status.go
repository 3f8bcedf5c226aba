package game

import (
	"fmt"
	"math/big"
	"sort"

	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/model"
	"isuclicker-api/internal/numeric"
)

// ProjectionSteps is how many milliseconds past the current time a status looks ahead.
const ProjectionSteps = 1000

var thousand = big.NewInt(1000)

type itemState struct {
	item     model.Item
	bought   int
	built    int
	power    *big.Int
	building []model.Building
}

type pendingPrice struct {
	milli  *big.Int
	itemID int
}

// CalcStatus folds the ledger up to currentTime and projects the economy
// ProjectionSteps milliseconds ahead. The result has Time 0; callers stamp it.
func CalcStatus(currentTime int64, cat *catalog.Catalog, deposits []model.Deposit, purchases []model.Purchase) (*model.GameStatus, error) {
	var (
		totalMilli = new(big.Int)
		totalPower = new(big.Int)

		futureDeposits  = map[int64]*big.Int{}
		futurePurchases = map[int64][]model.Purchase{}
	)

	items := cat.Items()
	states := make(map[int]*itemState, len(items))
	for _, it := range items {
		states[it.ItemID] = &itemState{item: it, power: new(big.Int), building: []model.Building{}}
	}

	for _, d := range deposits {
		if d.Amount == nil {
			continue
		}
		if d.Time <= currentTime {
			totalMilli.Add(totalMilli, new(big.Int).Mul(d.Amount, thousand))
			continue
		}
		if acc, ok := futureDeposits[d.Time]; ok {
			acc.Add(acc, d.Amount)
		} else {
			futureDeposits[d.Time] = new(big.Int).Set(d.Amount)
		}
	}

	for _, p := range purchases {
		st, ok := states[p.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: item_id=%d", ErrUnknownItem, p.ItemID)
		}
		st.bought++
		totalMilli.Sub(totalMilli, new(big.Int).Mul(st.item.GetPrice(p.Ordinal), thousand))

		if p.Time > currentTime {
			futurePurchases[p.Time] = append(futurePurchases[p.Time], p)
			continue
		}
		power := st.item.GetPower(p.Ordinal)
		st.built++
		st.power.Add(st.power, power)
		totalPower.Add(totalPower, power)
		totalMilli.Add(totalMilli, new(big.Int).Mul(power, big.NewInt(currentTime-p.Time)))
	}

	status := &model.GameStatus{
		Adding:   []model.Adding{},
		Schedule: []model.Schedule{{Time: currentTime, MilliIsu: numeric.Compact(totalMilli), TotalPower: numeric.Compact(totalPower)}},
		Items:    make([]model.ItemStatus, 0, len(items)),
		OnSale:   []model.OnSale{},
	}

	onSale := map[int]int64{}
	var waiting []pendingPrice
	for _, it := range items {
		st := states[it.ItemID]
		status.Items = append(status.Items, model.ItemStatus{
			ItemID:      it.ItemID,
			CountBought: st.bought,
			CountBuilt:  st.built,
			NextPrice:   numeric.Compact(it.GetPrice(st.bought + 1)),
			Power:       numeric.Compact(st.power),
		})

		milli := new(big.Int).Mul(it.GetPrice(st.bought+1), thousand)
		if totalMilli.Cmp(milli) >= 0 {
			onSale[it.ItemID] = 0
			continue
		}
		waiting = append(waiting, pendingPrice{milli: milli, itemID: it.ItemID})
	}
	sort.Slice(waiting, func(i, j int) bool {
		if c := waiting[i].milli.Cmp(waiting[j].milli); c != 0 {
			return c < 0
		}
		return waiting[i].itemID < waiting[j].itemID
	})

	for t := currentTime + 1; t <= currentTime+ProjectionSteps; t++ {
		totalMilli.Add(totalMilli, totalPower)
		updated := false

		if amount, ok := futureDeposits[t]; ok {
			updated = true
			totalMilli.Add(totalMilli, new(big.Int).Mul(amount, thousand))
		}

		if ps, ok := futurePurchases[t]; ok {
			updated = true
			touched := make([]int, 0, len(ps))
			seen := map[int]bool{}
			for _, p := range ps {
				st := states[p.ItemID]
				power := st.item.GetPower(p.Ordinal)
				st.built++
				st.power.Add(st.power, power)
				totalPower.Add(totalPower, power)
				if !seen[p.ItemID] {
					seen[p.ItemID] = true
					touched = append(touched, p.ItemID)
				}
			}
			sort.Ints(touched)
			for _, id := range touched {
				st := states[id]
				st.building = append(st.building, model.Building{
					Time:       t,
					CountBuilt: st.built,
					Power:      numeric.Compact(st.power),
				})
			}
		}

		if updated {
			status.Schedule = append(status.Schedule, model.Schedule{
				Time:       t,
				MilliIsu:   numeric.Compact(totalMilli),
				TotalPower: numeric.Compact(totalPower),
			})
		}

		// waiting is sorted by price, so only a prefix can become affordable
		n := 0
		for n < len(waiting) && totalMilli.Cmp(waiting[n].milli) >= 0 {
			onSale[waiting[n].itemID] = t
			n++
		}
		waiting = waiting[n:]
	}

	for i := range status.Items {
		status.Items[i].Building = states[status.Items[i].ItemID].building
	}
	for _, it := range items {
		if t, ok := onSale[it.ItemID]; ok {
			status.OnSale = append(status.OnSale, model.OnSale{ItemID: it.ItemID, Time: t})
		}
	}

	times := make([]int64, 0, len(futureDeposits))
	for t := range futureDeposits {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	for _, t := range times {
		status.Adding = append(status.Adding, model.Adding{Time: t, Isu: futureDeposits[t].String()})
	}

	return status, nil
}
