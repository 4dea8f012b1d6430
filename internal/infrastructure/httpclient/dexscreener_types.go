package httpclient

// dexTokenPairs is the wrapped form some DEX Screener endpoints return.
type dexTokenPairs struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []pairData `json:"pairs"`
}

// pairData is one trading pair. Only the fields used for pricing are decoded.
type pairData struct {
	ChainID     string        `json:"chainId"`
	DexID       string        `json:"dexId"`
	PairAddress string        `json:"pairAddress"`
	BaseToken   dexToken      `json:"baseToken"`
	QuoteToken  dexToken      `json:"quoteToken"`
	PriceNative string        `json:"priceNative"`
	PriceUsd    string        `json:"priceUsd"`
	Liquidity   *dexLiquidity `json:"liquidity"` // may be null
	Fdv         float64       `json:"fdv"`
	MarketCap   float64       `json:"marketCap"`
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexLiquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}
