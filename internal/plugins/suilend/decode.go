package suilend

import (
	"bytes"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// Move structs are rendered as {"type": ..., "fields": {...}}. The wire types
// below mirror that nesting and are converted to flat records right away.

type wireStruct[T any] struct {
	Type   string `json:"type"`
	Fields T      `json:"fields"`
}

type wireUID struct {
	ID string `json:"id"`
}

type wireDecimal = wireStruct[struct {
	Value wireNumber `json:"value"`
}]

type wireTypeName = wireStruct[struct {
	Name string `json:"name"`
}]

// wireNumber accepts both JSON numbers (u8..u32) and strings (u64 and wider).
type wireNumber string

func (n *wireNumber) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if string(data) == "null" {
		*n = ""
		return nil
	}
	*n = wireNumber(data)
	return nil
}

func (n wireNumber) decimal() (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}

// index parses an array index. Anything unparsable maps to -1 and never
// matches a reserve.
func (n wireNumber) index() int {
	i, err := strconv.Atoi(string(n))
	if err != nil || i < 0 {
		return -1
	}
	return i
}

type wireObligationOwnerCap struct {
	ID           wireUID `json:"id"`
	ObligationID string  `json:"obligation_id"`
}

type wireLendingMarket struct {
	ID       wireUID                   `json:"id"`
	Reserves []wireStruct[wireReserve] `json:"reserves"`
}

type wireReserve struct {
	ArrayIndex           wireNumber   `json:"array_index"`
	CoinType             wireTypeName `json:"coin_type"`
	AvailableAmount      wireNumber   `json:"available_amount"`
	CTokenSupply         wireNumber   `json:"ctoken_supply"`
	BorrowedAmount       wireDecimal  `json:"borrowed_amount"`
	CumulativeBorrowRate wireDecimal  `json:"cumulative_borrow_rate"`
	Config               wireStruct[struct {
		Element wireStruct[wireReserveConfig] `json:"element"`
	}] `json:"config"`
	DepositsPoolRewardManager wireStruct[wirePoolRewardManager] `json:"deposits_pool_reward_manager"`
	BorrowsPoolRewardManager  wireStruct[wirePoolRewardManager] `json:"borrows_pool_reward_manager"`
}

type wireReserveConfig struct {
	OpenLTVPct      wireNumber `json:"open_ltv_pct"`
	CloseLTVPct     wireNumber `json:"close_ltv_pct"`
	MaxCloseLTVPct  wireNumber `json:"max_close_ltv_pct"`
	BorrowWeightBps wireNumber `json:"borrow_weight_bps"`
}

type wirePoolRewardManager struct {
	PoolRewards []*wireStruct[wirePoolReward] `json:"pool_rewards"`
}

type wirePoolReward struct {
	ID                        wireUID      `json:"id"`
	CoinType                  wireTypeName `json:"coin_type"`
	CumulativeRewardsPerShare wireDecimal  `json:"cumulative_rewards_per_share"`
}

type wireObligation struct {
	ID                 wireUID                             `json:"id"`
	LendingMarketID    string                              `json:"lending_market_id"`
	Deposits           []wireStruct[wireDeposit]           `json:"deposits"`
	Borrows            []wireStruct[wireBorrow]            `json:"borrows"`
	UserRewardManagers []wireStruct[wireUserRewardManager] `json:"user_reward_managers"`
}

type wireDeposit struct {
	CoinType              wireTypeName `json:"coin_type"`
	ReserveArrayIndex     wireNumber   `json:"reserve_array_index"`
	DepositedCTokenAmount wireNumber   `json:"deposited_ctoken_amount"`
	MarketValue           wireDecimal  `json:"market_value"`
}

type wireBorrow struct {
	CoinType             wireTypeName `json:"coin_type"`
	ReserveArrayIndex    wireNumber   `json:"reserve_array_index"`
	BorrowedAmount       wireDecimal  `json:"borrowed_amount"`
	CumulativeBorrowRate wireDecimal  `json:"cumulative_borrow_rate"`
	MarketValue          wireDecimal  `json:"market_value"`
}

type wireUserRewardManager struct {
	Share   wireNumber                    `json:"share"`
	Rewards []*wireStruct[wireUserReward] `json:"rewards"`
}

type wireUserReward struct {
	PoolRewardID              string      `json:"pool_reward_id"`
	CumulativeRewardsPerShare wireDecimal `json:"cumulative_rewards_per_share"`
}

// decimals parses every value in order and stops at the first failure.
func decimals(values ...wireNumber) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := v.decimal()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", v, err)
		}
		out[i] = d
	}
	return out, nil
}

func decodeObligationOwnerCap(obj entity.MoveObject) (wireObligationOwnerCap, error) {
	var w wireObligationOwnerCap
	if err := json.Unmarshal(obj.Fields, &w); err != nil {
		return w, fmt.Errorf("decode obligation owner cap %s: %w", obj.ObjectID, err)
	}
	return w, nil
}

func decodeLendingMarket(obj entity.MoveObject) (LendingMarket, error) {
	var w wireLendingMarket
	if err := json.Unmarshal(obj.Fields, &w); err != nil {
		return LendingMarket{}, fmt.Errorf("decode lending market %s: %w", obj.ObjectID, err)
	}
	id := w.ID.ID
	if id == "" {
		id = obj.ObjectID
	}
	market := LendingMarket{ID: id, Reserves: make([]Reserve, 0, len(w.Reserves))}
	for i, wr := range w.Reserves {
		r := wr.Fields
		cfg := r.Config.Fields.Element.Fields
		d, err := decimals(
			r.AvailableAmount, r.CTokenSupply,
			r.BorrowedAmount.Fields.Value, r.CumulativeBorrowRate.Fields.Value,
			cfg.OpenLTVPct, cfg.CloseLTVPct, cfg.MaxCloseLTVPct, cfg.BorrowWeightBps,
		)
		if err != nil {
			return LendingMarket{}, fmt.Errorf("decode reserve %d of market %s: %w", i, id, err)
		}
		market.Reserves = append(market.Reserves, Reserve{
			ArrayIndex:              i,
			CoinType:                r.CoinType.Fields.Name,
			AvailableAmount:         d[0],
			CTokenSupply:            d[1],
			BorrowedAmountWad:       d[2],
			CumulativeBorrowRateWad: d[3],
			OpenLTVPct:              d[4],
			CloseLTVPct:             d[5],
			MaxCloseLTVPct:          d[6],
			BorrowWeightBps:         d[7],
		})
		for _, side := range []wirePoolRewardManager{r.DepositsPoolRewardManager.Fields, r.BorrowsPoolRewardManager.Fields} {
			for _, pr := range side.PoolRewards {
				if pr == nil {
					continue
				}
				perShare, err := pr.Fields.CumulativeRewardsPerShare.Fields.Value.decimal()
				if err != nil {
					return LendingMarket{}, fmt.Errorf("decode pool reward %s: %w", pr.Fields.ID.ID, err)
				}
				market.PoolRewards = append(market.PoolRewards, PoolReward{
					ID:                           pr.Fields.ID.ID,
					CoinType:                     pr.Fields.CoinType.Fields.Name,
					CumulativeRewardsPerShareWad: perShare,
				})
			}
		}
	}
	return market, nil
}

func decodeObligation(obj entity.MoveObject) (Obligation, error) {
	var w wireObligation
	if err := json.Unmarshal(obj.Fields, &w); err != nil {
		return Obligation{}, fmt.Errorf("decode obligation %s: %w", obj.ObjectID, err)
	}
	o := Obligation{ID: w.ID.ID, LendingMarketID: w.LendingMarketID}
	if o.ID == "" {
		o.ID = obj.ObjectID
	}

	for _, wd := range w.Deposits {
		dep := wd.Fields
		d, err := decimals(dep.DepositedCTokenAmount, dep.MarketValue.Fields.Value)
		if err != nil {
			return Obligation{}, fmt.Errorf("decode deposit of obligation %s: %w", o.ID, err)
		}
		o.Deposits = append(o.Deposits, Deposit{
			CoinType:              dep.CoinType.Fields.Name,
			ReserveArrayIndex:     dep.ReserveArrayIndex.index(),
			DepositedCTokenAmount: d[0],
			MarketValueWad:        d[1],
		})
	}

	for _, wb := range w.Borrows {
		bor := wb.Fields
		d, err := decimals(bor.BorrowedAmount.Fields.Value, bor.CumulativeBorrowRate.Fields.Value, bor.MarketValue.Fields.Value)
		if err != nil {
			return Obligation{}, fmt.Errorf("decode borrow of obligation %s: %w", o.ID, err)
		}
		o.Borrows = append(o.Borrows, Borrow{
			CoinType:                bor.CoinType.Fields.Name,
			ReserveArrayIndex:       bor.ReserveArrayIndex.index(),
			BorrowedAmountWad:       d[0],
			CumulativeBorrowRateWad: d[1],
			MarketValueWad:          d[2],
		})
	}

	for _, wm := range w.UserRewardManagers {
		share, err := wm.Fields.Share.decimal()
		if err != nil {
			return Obligation{}, fmt.Errorf("decode reward share of obligation %s: %w", o.ID, err)
		}
		manager := UserRewardManager{Share: share}
		for _, ur := range wm.Fields.Rewards {
			// settled streams are null
			if ur == nil {
				continue
			}
			perShare, err := ur.Fields.CumulativeRewardsPerShare.Fields.Value.decimal()
			if err != nil {
				return Obligation{}, fmt.Errorf("decode user reward of obligation %s: %w", o.ID, err)
			}
			manager.Rewards = append(manager.Rewards, UserReward{
				PoolRewardID:                 ur.Fields.PoolRewardID,
				CumulativeRewardsPerShareWad: perShare,
			})
		}
		o.UserRewardManagers = append(o.UserRewardManagers, manager)
	}
	return o, nil
}
