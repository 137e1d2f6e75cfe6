package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chronoswap/skillflux/internal/cache"
	"github.com/chronoswap/skillflux/internal/chain"
	"github.com/chronoswap/skillflux/internal/metrics"
	"github.com/chronoswap/skillflux/internal/models"
)

// QuoteTTL is how long one feed round is served before a fresh read.
const QuoteTTL = 60 * time.Second

// FallbackRoundID marks quotes built from the static per-chain constants.
const FallbackRoundID = "fallback"

// ChainProfile describes one supported chain.
type ChainProfile struct {
	ChainID        int64
	Name           string
	FeedAddress    string
	NativeSymbol   string
	NativeDecimals int32
	FallbackUSD    decimal.Decimal
}

// Static fallback rates are snapshots of real-world exchange rates at the time
// of writing and carry no staleness check.
var defaultProfiles = map[int64]ChainProfile{
	1: {
		ChainID: 1, Name: "ethereum",
		FeedAddress:  "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
		NativeSymbol: "ETH", NativeDecimals: 18,
		FallbackUSD: decimal.NewFromInt(3000),
	},
	137: {
		ChainID: 137, Name: "polygon",
		FeedAddress:  "0xAB594600376Ec9fD91F8e885dADF0CE036862dE0",
		NativeSymbol: "POL", NativeDecimals: 18,
		FallbackUSD: decimal.NewFromFloat(0.40),
	},
	56: {
		ChainID: 56, Name: "bsc",
		FeedAddress:  "0x0567F2323251f0Aab15c8dFb1967E4e8A7D42aeE",
		NativeSymbol: "BNB", NativeDecimals: 18,
		FallbackUSD: decimal.NewFromInt(600),
	},
	42161: {
		ChainID: 42161, Name: "arbitrum",
		FeedAddress:  "0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612",
		NativeSymbol: "ETH", NativeDecimals: 18,
		FallbackUSD: decimal.NewFromInt(3000),
	},
	8453: {
		ChainID: 8453, Name: "base",
		FeedAddress:  "0x71041dddad3595F9CEd3DcCFBe3D1F4b0a16Bb70",
		NativeSymbol: "ETH", NativeDecimals: 18,
		FallbackUSD: decimal.NewFromInt(3000),
	},
}

// Client reads the native/USD price feed and converts between USD and the
// smallest native unit. Quote fetching and formatting degrade to static
// fallbacks instead of failing, so pricing views stay usable during outages.
type Client struct {
	feeds    chain.FeedReader
	profiles map[int64]ChainProfile
	quotes   cache.Cache[models.PriceQuote]
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewClient(feeds chain.FeedReader, m *metrics.Metrics, log *slog.Logger) *Client {
	profiles := make(map[int64]ChainProfile, len(defaultProfiles))
	for id, p := range defaultProfiles {
		profiles[id] = p
	}
	return &Client{
		feeds:    feeds,
		profiles: profiles,
		quotes:   cache.NewStore[models.PriceQuote](QuoteTTL),
		metrics:  m,
		log:      log,
	}
}

func (c *Client) profile(chainID int64) ChainProfile {
	if p, ok := c.profiles[chainID]; ok {
		return p
	}
	// Unknown chains get the mainnet profile so conversion stays non-blocking.
	return defaultProfiles[1]
}

// GetLatestQuote returns the current native/USD quote for the chain, cached
// for QuoteTTL. It never fails: feed faults yield the static fallback rate
// with RoundID set to "fallback".
func (c *Client) GetLatestQuote(ctx context.Context, chainID int64) models.PriceQuote {
	key := strconv.FormatInt(chainID, 10)
	if quote, ok := c.quotes.Get(ctx, key); ok {
		return quote
	}

	profile := c.profile(chainID)
	quote, err := c.readQuote(ctx, profile)
	if err != nil {
		c.metrics.QuoteFallback()
		c.log.Warn("price feed read failed, using fallback rate",
			"chain", profile.Name, "err", err)
		quote = models.PriceQuote{
			Price:     profile.FallbackUSD,
			Decimals:  8,
			UpdatedAt: time.Now(),
			RoundID:   FallbackRoundID,
		}
	}

	c.quotes.Set(ctx, key, quote)
	return quote
}

func (c *Client) readQuote(ctx context.Context, profile ChainProfile) (models.PriceQuote, error) {
	decimals, err := c.feeds.Decimals(ctx, profile.FeedAddress)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("read feed decimals: %w", err)
	}

	round, err := c.feeds.LatestRoundData(ctx, profile.FeedAddress)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("read latest round: %w", err)
	}

	price := decimal.NewFromBigInt(round.Answer, -int32(decimals))
	if !price.IsPositive() {
		return models.PriceQuote{}, fmt.Errorf("non-positive feed answer: %s", price)
	}

	return models.PriceQuote{
		Price:     price,
		Decimals:  decimals,
		UpdatedAt: time.Unix(round.UpdatedAt.Int64(), 0),
		RoundID:   round.RoundID.String(),
	}, nil
}

// UsdToCrypto converts a USD amount into the smallest native unit.
func (c *Client) UsdToCrypto(ctx context.Context, usd decimal.Decimal, chainID int64) (*big.Int, error) {
	if usd.IsNegative() {
		return nil, fmt.Errorf("usd amount must not be negative: %s", usd)
	}

	quote := c.GetLatestQuote(ctx, chainID)
	if !quote.Price.IsPositive() {
		return nil, fmt.Errorf("unusable quote price: %s", quote.Price)
	}

	profile := c.profile(chainID)
	return usd.Div(quote.Price).Shift(profile.NativeDecimals).BigInt(), nil
}

// CryptoToUsd converts a smallest-native-unit amount into USD.
func (c *Client) CryptoToUsd(ctx context.Context, amount *big.Int, chainID int64) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, fmt.Errorf("nil amount")
	}

	quote := c.GetLatestQuote(ctx, chainID)
	profile := c.profile(chainID)
	native := decimal.NewFromBigInt(amount, -profile.NativeDecimals)
	return native.Mul(quote.Price), nil
}

// FormatPrice renders an on-chain amount for display. It never fails: when the
// USD conversion is unusable the crypto label is still populated and the USD
// label reads "Price unavailable".
func (c *Client) FormatPrice(ctx context.Context, amount *big.Int, chainID int64) models.FormattedPrice {
	profile := c.profile(chainID)

	native := decimal.Zero
	if amount != nil {
		native = decimal.NewFromBigInt(amount, -profile.NativeDecimals)
	}
	out := models.FormattedPrice{
		CryptoAmount: native,
		CryptoLabel:  fmt.Sprintf("%s %s", native.Round(4), profile.NativeSymbol),
		USDLabel:     "Price unavailable",
	}
	if amount == nil {
		return out
	}

	// Fallback rates stay usable for conversions, but a USD figure built on a
	// stale constant is not shown to users.
	quote := c.GetLatestQuote(ctx, chainID)
	if quote.RoundID == FallbackRoundID || !quote.Price.IsPositive() {
		return out
	}

	out.USDAmount = native.Mul(quote.Price).Round(2)
	out.USDLabel = fmt.Sprintf("$%s", out.USDAmount.StringFixed(2))
	return out
}

// FormatPrices formats a batch of listing amounts concurrently. Independent
// lookups are fanned out and awaited together to bound latency.
func (c *Client) FormatPrices(ctx context.Context, amounts []*big.Int, chainID int64) []models.FormattedPrice {
	results := make([]models.FormattedPrice, len(amounts))

	g, gctx := errgroup.WithContext(ctx)
	for i, amount := range amounts {
		i, amount := i, amount
		g.Go(func() error {
			results[i] = c.FormatPrice(gctx, amount, chainID)
			return nil
		})
	}
	_ = g.Wait() // FormatPrice never errors

	return results
}
