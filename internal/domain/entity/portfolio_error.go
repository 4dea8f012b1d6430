package entity

// PortfolioError represents a fetcher invocation that failed while building a portfolio.
// The elements of other fetchers are still returned alongside it.
type PortfolioError struct {
	Owner     string    `json:"owner"`
	NetworkID NetworkID `json:"networkId"`
	FetcherID string    `json:"fetcherId"`
	Retryable bool      `json:"retryable"`
	Message   string    `json:"message"`
}
