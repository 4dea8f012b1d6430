package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/utils"
)

// TokenPricesJobID identifies the price loader job.
const TokenPricesJobID = "token-prices"

const (
	stablecoinUSDCSymbol = "USDC"
	stablecoinUSDTSymbol = "USDT"
	stablecoinDAISymbol  = "DAI"

	pricePlatformDEXScreener = "dexscreener"
)

var stablecoinSymbols = map[string]struct{}{
	stablecoinUSDCSymbol: {},
	stablecoinUSDTSymbol: {},
	stablecoinDAISymbol:  {},
}

// TokenPriceServiceConfig tunes batching against the price source.
type TokenPriceServiceConfig struct {
	MaxTokensPerBatchRequest int
	MaxConcurrentRequests    int
	RequestTimeout           time.Duration
}

// TokenPriceService loads USD prices of listed tokens into the cache.
type TokenPriceService struct {
	tokenProvider   port.TokenProvider
	networkProvider port.NetworkDefinitionProvider
	priceSource     port.TokenPriceSource
	logger          port.Logger
	cfg             TokenPriceServiceConfig
	now             func() time.Time
}

// NewTokenPriceService creates a new instance of TokenPriceService.
func NewTokenPriceService(
	tp port.TokenProvider,
	np port.NetworkDefinitionProvider,
	src port.TokenPriceSource,
	l port.Logger,
	cfg TokenPriceServiceConfig,
) *TokenPriceService {
	if cfg.MaxTokensPerBatchRequest <= 0 {
		cfg.MaxTokensPerBatchRequest = 30
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 5
	}
	return &TokenPriceService{
		tokenProvider:   tp,
		networkProvider: np,
		priceSource:     src,
		logger:          l,
		cfg:             cfg,
		now:             time.Now,
	}
}

// Job exposes the loader as a scheduled job.
func (s *TokenPriceService) Job() port.Job {
	return port.Job{
		ID:       TokenPricesJobID,
		Label:    entity.JobLabelRealtime,
		Executor: s.LoadAndCacheTokenPrices,
	}
}

type priceBatch struct {
	netDef entity.NetworkDefinition
	tokens []entity.TokenInfo
}

// LoadAndCacheTokenPrices quotes every listed token of every active network
// and writes the prices into cache. It fails only when no batch succeeded.
func (s *TokenPriceService) LoadAndCacheTokenPrices(ctx context.Context, cache port.Cache) error {
	activeNetworks := s.networkProvider.GetAllNetworkDefinitions()
	if len(activeNetworks) == 0 {
		s.logger.Warn("No active networks found. Cannot fetch token prices.")
		return nil
	}

	tokensByNetwork, err := s.tokenProvider.GetTokensByNetwork(activeNetworks)
	if err != nil {
		return fmt.Errorf("failed to get tokens for price fetching: %w", err)
	}

	var batches []priceBatch
	for _, netDef := range activeNetworks {
		if netDef.DEXScreenerChainID == "" {
			s.logger.Warn("DEXScreenerChainID not defined for network, skipping price fetch for its tokens", "network", netDef.ID)
			continue
		}
		tokens := tokensByNetwork[netDef.ID]
		if len(tokens) == 0 {
			s.logger.Debug("No tokens to fetch prices for", "network", netDef.ID)
			continue
		}
		for _, b := range utils.Batch(tokens, s.cfg.MaxTokensPerBatchRequest) {
			batches = append(batches, priceBatch{netDef: netDef, tokens: b})
		}
	}
	if len(batches) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		prices []entity.TokenPrice
		merr   *multierror.Error
		missed int
	)
	sem := make(chan struct{}, s.cfg.MaxConcurrentRequests)
	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b priceBatch) {
			defer wg.Done()
			defer func() { <-sem }()

			got, missing, err := s.priceBatch(ctx, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to get token quotes", "network", b.netDef.ID, "token_count", len(b.tokens), "error", err)
				merr = multierror.Append(merr, err)
				return
			}
			prices = append(prices, got...)
			missed += missing
		}(batch)
	}
	wg.Wait()

	if merr != nil && len(merr.Errors) == len(batches) {
		return fmt.Errorf("all %d price batches failed: %w", len(batches), merr.ErrorOrNil())
	}
	if err := cache.SetTokenPrices(ctx, prices); err != nil {
		return fmt.Errorf("store token prices: %w", err)
	}

	failed := 0
	if merr != nil {
		failed = len(merr.Errors)
	}
	s.logger.Info("Finished loading token prices",
		"prices", len(prices), "missing", missed, "failed_batches", failed, "batches", len(batches))
	return nil
}

func (s *TokenPriceService) priceBatch(ctx context.Context, b priceBatch) ([]entity.TokenPrice, int, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	addresses := make([]string, len(b.tokens))
	for i, t := range b.tokens {
		addresses[i] = t.Address
	}
	quotes, err := s.priceSource.GetQuotes(ctx, b.netDef.DEXScreenerChainID, addresses)
	if err != nil {
		return nil, 0, err
	}

	byAddress := make(map[string][]port.TokenQuote, len(quotes))
	for _, q := range quotes {
		key := entity.FormatTokenAddress(q.Address, b.netDef.ID)
		byAddress[key] = append(byAddress[key], q)
	}

	ts := s.now().UnixMilli()
	prices := make([]entity.TokenPrice, 0, len(b.tokens))
	missing := 0
	for _, token := range b.tokens {
		key := entity.FormatTokenAddress(token.Address, b.netDef.ID)
		best, ok := s.selectBestPrice(byAddress[key])
		if !ok {
			s.logger.Debug("No usable quote for token", "network", b.netDef.ID, "token", token.Address)
			missing++
			continue
		}
		price, err := decimal.NewFromString(best.PriceUSD)
		if err != nil || !price.IsPositive() {
			s.logger.Warn("Failed to parse token price", "network", b.netDef.ID, "token", token.Address, "price_string", best.PriceUSD)
			missing++
			continue
		}
		symbol := token.Symbol
		if symbol == "" {
			symbol = best.Symbol
		}
		prices = append(prices, entity.TokenPrice{
			Address:   key,
			NetworkID: b.netDef.ID,
			Decimals:  token.Decimals,
			Price:     price,
			Symbol:    symbol,
			Platform:  pricePlatformDEXScreener,
			Timestamp: ts,
		})
	}
	return prices, missing, nil
}

// selectBestPrice prefers the deepest stablecoin-quoted pair, then the
// deepest pair overall.
func (s *TokenPriceService) selectBestPrice(quotes []port.TokenQuote) (port.TokenQuote, bool) {
	var bestOverall, bestStable *port.TokenQuote
	for i := range quotes {
		q := &quotes[i]
		if q.PriceUSD == "" || q.PriceUSD == "0" {
			continue
		}
		if _, isStable := stablecoinSymbols[strings.ToUpper(q.QuoteSymbol)]; isStable {
			if bestStable == nil || q.LiquidityUSD > bestStable.LiquidityUSD {
				bestStable = q
			}
		}
		if bestOverall == nil || q.LiquidityUSD > bestOverall.LiquidityUSD {
			bestOverall = q
		}
	}
	if bestStable != nil {
		return *bestStable, true
	}
	if bestOverall != nil {
		return *bestOverall, true
	}
	return port.TokenQuote{}, false
}
