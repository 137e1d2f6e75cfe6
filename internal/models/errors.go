package models

import "errors"

// Failure taxonomy for market analysis. Conversion and formatting paths never
// surface these; acquisition and analysis paths do, because no safe default
// market data can be fabricated.
var (
	// ErrUnsupportedSkill means no requested skill is in the supported catalog.
	ErrUnsupportedSkill = errors.New("no supported skill in request")

	// ErrNoOracleData means the oracle payload was empty or entirely unparseable.
	ErrNoOracleData = errors.New("oracle payload contains no usable skill data")

	// ErrRateLimited means the external service was called too recently.
	ErrRateLimited = errors.New("oracle rate limit in effect")

	// ErrOracleRead wraps chain or network faults during an on-chain read.
	ErrOracleRead = errors.New("on-chain oracle read failed")
)
