package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/chronoswap/skillflux/internal/chain"
	"github.com/chronoswap/skillflux/internal/utils/request"
)

// Function selectors for the contract calls this client issues.
const (
	selGetSkillData    = "0x1d6bf36e" // getSkillData()
	selLatestRoundData = "0xfeaf968c" // latestRoundData()
	selDecimals        = "0x313ce567" // decimals()
)

// Client reads contracts over plain JSON-RPC eth_call. It implements both
// chain.OracleReader and chain.FeedReader.
type Client struct {
	rpcURL     string
	httpClient *resty.Client
}

func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL:     rpcURL,
		httpClient: request.Request,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// ReadSkillData implements chain.OracleReader.
func (c *Client) ReadSkillData(ctx context.Context, contractAddress string) (string, error) {
	raw, err := c.ethCall(ctx, contractAddress, selGetSkillData)
	if err != nil {
		return "", fmt.Errorf("read skill data: %w", err)
	}

	payload, err := decodeABIString(raw)
	if err != nil {
		return "", fmt.Errorf("decode skill data: %w", err)
	}
	return payload, nil
}

// LatestRoundData implements chain.FeedReader.
func (c *Client) LatestRoundData(ctx context.Context, feedAddress string) (*chain.RoundData, error) {
	raw, err := c.ethCall(ctx, feedAddress, selLatestRoundData)
	if err != nil {
		return nil, fmt.Errorf("latest round data: %w", err)
	}

	words, err := splitWords(raw, 5)
	if err != nil {
		return nil, fmt.Errorf("decode round data: %w", err)
	}

	return &chain.RoundData{
		RoundID:         words[0],
		Answer:          words[1],
		StartedAt:       words[2],
		UpdatedAt:       words[3],
		AnsweredInRound: words[4],
	}, nil
}

// Decimals implements chain.FeedReader.
func (c *Client) Decimals(ctx context.Context, feedAddress string) (uint8, error) {
	raw, err := c.ethCall(ctx, feedAddress, selDecimals)
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}

	words, err := splitWords(raw, 1)
	if err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	return uint8(words[0].Uint64()), nil
}

func (c *Client) ethCall(ctx context.Context, to, data string) (string, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params:  []interface{}{callParams{To: to, Data: data}, "latest"},
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(c.rpcURL)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error: code=%d, message=%s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if rpcResp.Result == "" || rpcResp.Result == "0x" {
		return "", fmt.Errorf("empty call result")
	}

	return rpcResp.Result, nil
}

// decodeABIString decodes a solidity `string` return value: a 32-byte offset,
// a 32-byte length, then the UTF-8 bytes.
func decodeABIString(result string) (string, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) < 64 {
		return "", fmt.Errorf("result too short: %d bytes", len(b))
	}

	offset := new(big.Int).SetBytes(b[:32])
	if !offset.IsInt64() || offset.Int64()+32 > int64(len(b)) {
		return "", fmt.Errorf("string offset out of range")
	}

	start := offset.Int64()
	length := new(big.Int).SetBytes(b[start : start+32])
	if !length.IsInt64() || start+32+length.Int64() > int64(len(b)) {
		return "", fmt.Errorf("string length out of range")
	}

	return string(b[start+32 : start+32+length.Int64()]), nil
}

// splitWords decodes n consecutive 32-byte words as unsigned integers.
func splitWords(result string, n int) ([]*big.Int, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) < n*32 {
		return nil, fmt.Errorf("expected %d words, got %d bytes", n, len(b))
	}

	words := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		words[i] = new(big.Int).SetBytes(b[i*32 : (i+1)*32])
	}
	return words, nil
}
