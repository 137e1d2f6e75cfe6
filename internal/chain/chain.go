package chain

import (
	"context"
	"math/big"
)

// OracleReader reads the skill-pricing payload published by the oracle
// contract. The payload is a single string field holding the whole dataset;
// per-skill indexed reads are not used.
type OracleReader interface {
	ReadSkillData(ctx context.Context, contractAddress string) (string, error)
}

// RoundData is one decoded round of an aggregator price feed.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// FeedReader reads a price-feed aggregator contract.
type FeedReader interface {
	LatestRoundData(ctx context.Context, feedAddress string) (*RoundData, error)
	Decimals(ctx context.Context, feedAddress string) (uint8, error)
}
