package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chronoswap/skillflux/internal/models"

	_ "github.com/lib/pq"
)

// ArchivedAnalysis is one persisted analysis run.
type ArchivedAnalysis struct {
	ID              string
	ContractAddress string
	DataSource      string
	MarketHealth    models.MarketHealth
	Confidence      float64
	Result          models.MarketAnalysisResult
	CreatedAt       time.Time
}

// PostgresStorage archives analysis results and resolved price quotes so
// health trends can be inspected after the in-memory cache has cycled.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SaveAnalysis archives one completed market analysis.
func (s *PostgresStorage) SaveAnalysis(ctx context.Context, contractAddress string, result *models.MarketAnalysisResult) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	query := `
        INSERT INTO market_analyses (
            id, contract_address, data_source, market_health,
            confidence, result, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(),
		contractAddress,
		result.DataSource,
		string(result.MarketHealth),
		result.Confidence,
		blob,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// SaveQuote archives one resolved price-feed quote.
func (s *PostgresStorage) SaveQuote(ctx context.Context, chainID int64, quote models.PriceQuote) error {
	query := `
        INSERT INTO price_quotes (
            id, chain_id, price_usd, feed_decimals, round_id, updated_at, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		chainID,
		quote.Price.String(),
		int(quote.Decimals),
		quote.RoundID,
		quote.UpdatedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}

	return nil
}

// RecentAnalyses returns the newest archived analyses for a contract.
func (s *PostgresStorage) RecentAnalyses(ctx context.Context, contractAddress string, limit int) ([]ArchivedAnalysis, error) {
	query := `
        SELECT id, contract_address, data_source, market_health,
               confidence, result, created_at
        FROM market_analyses
        WHERE contract_address = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

	rows, err := s.db.QueryContext(ctx, query, contractAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var result []ArchivedAnalysis
	for rows.Next() {
		var a ArchivedAnalysis
		var blob []byte
		err := rows.Scan(
			&a.ID,
			&a.ContractAddress,
			&a.DataSource,
			&a.MarketHealth,
			&a.Confidence,
			&blob,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if err := json.Unmarshal(blob, &a.Result); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis rows: %w", err)
	}

	return result, nil
}

// LatestQuote returns the newest archived quote for a chain.
func (s *PostgresStorage) LatestQuote(ctx context.Context, chainID int64) (*models.PriceQuote, error) {
	query := `
        SELECT price_usd, feed_decimals, round_id, updated_at
        FROM price_quotes
        WHERE chain_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `

	var priceStr string
	var decimals int
	var quote models.PriceQuote

	err := s.db.QueryRowContext(ctx, query, chainID).Scan(
		&priceStr,
		&decimals,
		&quote.RoundID,
		&quote.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no quotes archived for chain %d", chainID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archived price: %w", err)
	}
	quote.Price = price
	quote.Decimals = uint8(decimals)

	return &quote, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS market_analyses (
			id UUID PRIMARY KEY,
			contract_address VARCHAR(64) NOT NULL,
			data_source VARCHAR(64) NOT NULL,
			market_health VARCHAR(16) NOT NULL,
			confidence NUMERIC(5, 4),
			result JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS price_quotes (
			id UUID PRIMARY KEY,
			chain_id BIGINT NOT NULL,
			price_usd NUMERIC(24, 10) NOT NULL,
			feed_decimals INT NOT NULL,
			round_id VARCHAR(80) NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_market_analyses_contract
			ON market_analyses (contract_address, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
