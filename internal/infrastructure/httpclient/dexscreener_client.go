package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultMaxTokensPerRequest is the address limit of the /tokens/v1 endpoint.
const DefaultMaxTokensPerRequest = 30

// ErrTooManyTokens is returned when a batch exceeds the per-request limit.
var ErrTooManyTokens = errors.New("too many token addresses for one request")

// DEXScreenerClient quotes token prices from the DEX Screener API.
type DEXScreenerClient struct {
	client              *fasthttp.Client
	baseURL             string
	timeout             time.Duration
	logger              *zap.Logger
	maxTokensPerRequest int
}

var _ port.TokenPriceSource = (*DEXScreenerClient)(nil)

// NewDEXScreenerClient creates a new DEXScreenerClient.
func NewDEXScreenerClient(baseURL string, timeout time.Duration, logger *zap.Logger, maxTokensPerRequest int) *DEXScreenerClient {
	if maxTokensPerRequest <= 0 {
		maxTokensPerRequest = DefaultMaxTokensPerRequest
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DEXScreenerClient{
		client:              &fasthttp.Client{Name: "portfolio-aggregator"},
		baseURL:             strings.TrimRight(baseURL, "/"),
		timeout:             timeout,
		logger:              logger.Named("DEXScreenerClient"),
		maxTokensPerRequest: maxTokensPerRequest,
	}
}

// GetQuotes returns one quote per pair whose base token is in the request.
// Transport failures and non-200 answers wrap entity.ErrTransport.
func (c *DEXScreenerClient) GetQuotes(ctx context.Context, dexscreenerChainID string, tokenAddresses []string) ([]port.TokenQuote, error) {
	pairs, err := c.getTokenPairs(ctx, dexscreenerChainID, tokenAddresses)
	if err != nil {
		return nil, err
	}

	quotes := make([]port.TokenQuote, 0, len(pairs))
	for _, pair := range pairs {
		if pair.BaseToken.Address == "" || pair.PriceUsd == "" {
			continue
		}
		q := port.TokenQuote{
			Address:     pair.BaseToken.Address,
			Symbol:      pair.BaseToken.Symbol,
			PriceUSD:    pair.PriceUsd,
			QuoteSymbol: pair.QuoteToken.Symbol,
		}
		if pair.Liquidity != nil {
			q.LiquidityUSD = pair.Liquidity.Usd
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (c *DEXScreenerClient) getTokenPairs(ctx context.Context, dexscreenerChainID string, tokenAddresses []string) ([]pairData, error) {
	if len(tokenAddresses) == 0 {
		return nil, nil
	}
	if len(tokenAddresses) > c.maxTokensPerRequest {
		c.logger.Warn("Number of token addresses exceeds maxTokensPerRequest",
			zap.Int("requestedCount", len(tokenAddresses)),
			zap.Int("maxAllowed", c.maxTokensPerRequest))
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTokens, len(tokenAddresses), c.maxTokensPerRequest)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTransport, err)
	}

	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, dexscreenerChainID, strings.Join(tokenAddresses, ","))
	c.logger.Debug("Requesting token pairs from DEX Screener", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to DEX Screener", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: request to %s: %w", entity.ErrTransport, requestURL, err)
		}
	} else if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to DEX Screener (with default timeout)", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("%w: request to %s: %w", entity.ErrTransport, requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("DEX Screener API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("%w: DEX Screener request to %s failed with status %d", entity.ErrTransport, requestURL, resp.StatusCode())
	}

	var wrapped dexTokenPairs
	if err := json.Unmarshal(rawBody, &wrapped); err == nil && wrapped.Pairs != nil {
		c.logger.Debug("Decoded DEX Screener response (wrapped object)",
			zap.String("dexscreenerChainID", dexscreenerChainID),
			zap.Int("pairCount", len(wrapped.Pairs)))
		return wrapped.Pairs, nil
	}

	var directPairs []pairData
	if err := json.Unmarshal(rawBody, &directPairs); err != nil {
		c.logger.Error("Failed to decode DEX Screener response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to decode DEX Screener response from %s: %w", requestURL, err)
	}
	if len(directPairs) == 0 {
		c.logger.Warn("DEXScreener returned 200 OK with an empty array of pairs",
			zap.String("dexscreenerChainID", dexscreenerChainID),
			zap.Int("requestedCount", len(tokenAddresses)))
	}
	return directPairs, nil
}
