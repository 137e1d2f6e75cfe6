package pricefeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoswap/skillflux/internal/chain"
)

// fakeFeed is a scripted chain.FeedReader.
type fakeFeed struct {
	mu       sync.Mutex
	answer   int64
	decimals uint8
	fail     bool
	calls    int
}

func (f *fakeFeed) LatestRoundData(_ context.Context, _ string) (*chain.RoundData, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, fmt.Errorf("connection refused")
	}
	return &chain.RoundData{
		RoundID:         big.NewInt(42),
		Answer:          big.NewInt(f.answer),
		StartedAt:       big.NewInt(1700000000),
		UpdatedAt:       big.NewInt(1700000300),
		AnsweredInRound: big.NewInt(42),
	}, nil
}

func (f *fakeFeed) Decimals(_ context.Context, _ string) (uint8, error) {
	if f.fail {
		return 0, fmt.Errorf("connection refused")
	}
	return f.decimals, nil
}

func newTestClient(feed chain.FeedReader) *Client {
	return NewClient(feed, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetLatestQuote(t *testing.T) {
	feed := &fakeFeed{answer: 312045000000, decimals: 8}
	c := newTestClient(feed)

	quote := c.GetLatestQuote(context.Background(), 1)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("3120.45")))
	assert.Equal(t, "42", quote.RoundID)
	assert.Equal(t, uint8(8), quote.Decimals)
}

func TestGetLatestQuote_CachedPerChain(t *testing.T) {
	feed := &fakeFeed{answer: 300000000000, decimals: 8}
	c := newTestClient(feed)
	ctx := context.Background()

	c.GetLatestQuote(ctx, 1)
	c.GetLatestQuote(ctx, 1)
	assert.Equal(t, 1, feed.calls, "second lookup must be served from cache")

	c.GetLatestQuote(ctx, 137)
	assert.Equal(t, 2, feed.calls, "chains are cached independently")
}

func TestGetLatestQuote_FallbackNeverFails(t *testing.T) {
	c := newTestClient(&fakeFeed{fail: true})

	quote := c.GetLatestQuote(context.Background(), 137)
	assert.Equal(t, FallbackRoundID, quote.RoundID)
	assert.True(t, quote.Price.Equal(decimal.NewFromFloat(0.40)))
}

func TestUsdToCrypto(t *testing.T) {
	feed := &fakeFeed{answer: 300000000000, decimals: 8} // $3000
	c := newTestClient(feed)

	wei, err := c.UsdToCrypto(context.Background(), decimal.NewFromInt(150), 1)
	require.NoError(t, err)

	// $150 at $3000/ETH = 0.05 ETH = 5e16 wei.
	want, _ := new(big.Int).SetString("50000000000000000", 10)
	assert.Equal(t, want, wei)
}

func TestUsdToCrypto_NegativeAmount(t *testing.T) {
	c := newTestClient(&fakeFeed{answer: 300000000000, decimals: 8})
	_, err := c.UsdToCrypto(context.Background(), decimal.NewFromInt(-1), 1)
	assert.Error(t, err)
}

func TestCryptoToUsd(t *testing.T) {
	feed := &fakeFeed{answer: 300000000000, decimals: 8}
	c := newTestClient(feed)

	wei, _ := new(big.Int).SetString("50000000000000000", 10)
	usd, err := c.CryptoToUsd(context.Background(), wei, 1)
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(150)))
}

func TestFormatPrice(t *testing.T) {
	feed := &fakeFeed{answer: 300000000000, decimals: 8}
	c := newTestClient(feed)

	wei, _ := new(big.Int).SetString("50000000000000000", 10)
	fp := c.FormatPrice(context.Background(), wei, 1)

	assert.Equal(t, "0.05 ETH", fp.CryptoLabel)
	assert.Equal(t, "$150.00", fp.USDLabel)
	assert.True(t, fp.USDAmount.Equal(decimal.NewFromInt(150)))
}

func TestFormatPrice_UnavailableOnFeedFailure(t *testing.T) {
	c := newTestClient(&fakeFeed{fail: true})

	wei, _ := new(big.Int).SetString("50000000000000000", 10)
	fp := c.FormatPrice(context.Background(), wei, 1)

	assert.Equal(t, "Price unavailable", fp.USDLabel)
	assert.NotEmpty(t, fp.CryptoLabel)
	assert.Equal(t, "0.05 ETH", fp.CryptoLabel)
}

func TestFormatPrice_NilAmount(t *testing.T) {
	c := newTestClient(&fakeFeed{answer: 300000000000, decimals: 8})

	fp := c.FormatPrice(context.Background(), nil, 1)
	assert.Equal(t, "0 ETH", fp.CryptoLabel)
	assert.Equal(t, "Price unavailable", fp.USDLabel)
}

func TestFormatPrices_Batch(t *testing.T) {
	feed := &fakeFeed{answer: 300000000000, decimals: 8}
	c := newTestClient(feed)

	one := big.NewInt(1e18)
	amounts := []*big.Int{one, new(big.Int).Mul(one, big.NewInt(2)), nil}

	results := c.FormatPrices(context.Background(), amounts, 1)
	require.Len(t, results, 3)
	assert.Equal(t, "$3000.00", results[0].USDLabel)
	assert.Equal(t, "$6000.00", results[1].USDLabel)
	assert.Equal(t, "Price unavailable", results[2].USDLabel)
}
