package suilend

import "github.com/shopspring/decimal"

// LendingMarket is the cached reference snapshot of one market.
// Reserves are addressed by their array index.
type LendingMarket struct {
	ID          string       `json:"id"`
	Reserves    []Reserve    `json:"reserves"`
	PoolRewards []PoolReward `json:"poolRewards"`
}

// Reserve is one asset pool of a market. Wad fields keep the 10^18 scale.
type Reserve struct {
	ArrayIndex              int             `json:"arrayIndex"`
	CoinType                string          `json:"coinType"`
	AvailableAmount         decimal.Decimal `json:"availableAmount"`
	CTokenSupply            decimal.Decimal `json:"ctokenSupply"`
	BorrowedAmountWad       decimal.Decimal `json:"borrowedAmountWad"`
	CumulativeBorrowRateWad decimal.Decimal `json:"cumulativeBorrowRateWad"`
	OpenLTVPct              decimal.Decimal `json:"openLtvPct"`
	CloseLTVPct             decimal.Decimal `json:"closeLtvPct"`
	MaxCloseLTVPct          decimal.Decimal `json:"maxCloseLtvPct"`
	BorrowWeightBps         decimal.Decimal `json:"borrowWeightBps"`
}

// PoolReward is one reward stream of a reserve, on its deposit or borrow side.
type PoolReward struct {
	ID                           string          `json:"id"`
	CoinType                     string          `json:"coinType"`
	CumulativeRewardsPerShareWad decimal.Decimal `json:"cumulativeRewardsPerShareWad"`
}

// Obligation is the live position record of one owner in one market.
type Obligation struct {
	ID                 string              `json:"id"`
	LendingMarketID    string              `json:"lendingMarketId"`
	Deposits           []Deposit           `json:"deposits"`
	Borrows            []Borrow            `json:"borrows"`
	UserRewardManagers []UserRewardManager `json:"userRewardManagers"`
}

// Deposit is a supplied position, held as ctokens.
type Deposit struct {
	CoinType              string          `json:"coinType"`
	ReserveArrayIndex     int             `json:"reserveArrayIndex"`
	DepositedCTokenAmount decimal.Decimal `json:"depositedCtokenAmount"`
	MarketValueWad        decimal.Decimal `json:"marketValueWad"`
}

// Borrow is a borrowed position as of its last rate snapshot.
type Borrow struct {
	CoinType                string          `json:"coinType"`
	ReserveArrayIndex       int             `json:"reserveArrayIndex"`
	BorrowedAmountWad       decimal.Decimal `json:"borrowedAmountWad"`
	CumulativeBorrowRateWad decimal.Decimal `json:"cumulativeBorrowRateWad"`
	MarketValueWad          decimal.Decimal `json:"marketValueWad"`
}

// UserRewardManager tracks the share of an obligation in the reward streams of one side of a reserve.
type UserRewardManager struct {
	Share   decimal.Decimal `json:"share"`
	Rewards []UserReward    `json:"rewards"`
}

// UserReward is the per-share snapshot taken when the user last settled a stream.
type UserReward struct {
	PoolRewardID                 string          `json:"poolRewardId"`
	CumulativeRewardsPerShareWad decimal.Decimal `json:"cumulativeRewardsPerShareWad"`
}

// poolRewardsByID indexes the reward streams of all markets.
func poolRewardsByID(markets []LendingMarket) map[string]PoolReward {
	out := make(map[string]PoolReward)
	for _, m := range markets {
		for _, pr := range m.PoolRewards {
			out[pr.ID] = pr
		}
	}
	return out
}
