// Package postgres persists launch run records to PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/model"
)

// Store provides Postgres persistence for launch records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutLaunch inserts or updates the launch row for a token.
func (s *Store) PutLaunch(record model.LaunchRecord) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO launches (
			token, name, symbol, decimals, total_supply, merkle_root, salt,
			strategy, auction, auction_supply, reserve_supply, funded_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
		ON CONFLICT (token)
		DO UPDATE SET
			auction = EXCLUDED.auction,
			auction_supply = EXCLUDED.auction_supply,
			reserve_supply = EXCLUDED.reserve_supply,
			funded_at = EXCLUDED.funded_at,
			updated_at = now()
	`,
		record.Token,
		record.Name,
		record.Symbol,
		int16(record.Decimals),
		record.TotalSupply,
		record.MerkleRoot,
		record.Salt,
		record.Strategy,
		record.Auction,
		record.AuctionSupply,
		record.ReserveSupply,
		int64(record.FundedAt),
	)
	return err
}

// PutMigration inserts or updates the migration row for a token.
func (s *Store) PutMigration(record model.MigrationRecord) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO migrations (
			token, currency, pool_id, clearing_price_x192, sqrt_price_x96, tick,
			token_amount, currency_amount, leftover_currency, liquidity,
			one_sided_planned, one_sided_included, plan_ops, migrated_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
		ON CONFLICT (token)
		DO UPDATE SET
			pool_id = EXCLUDED.pool_id,
			clearing_price_x192 = EXCLUDED.clearing_price_x192,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			token_amount = EXCLUDED.token_amount,
			currency_amount = EXCLUDED.currency_amount,
			leftover_currency = EXCLUDED.leftover_currency,
			liquidity = EXCLUDED.liquidity,
			one_sided_planned = EXCLUDED.one_sided_planned,
			one_sided_included = EXCLUDED.one_sided_included,
			plan_ops = EXCLUDED.plan_ops,
			migrated_at = EXCLUDED.migrated_at,
			updated_at = now()
	`,
		record.Token,
		record.Currency,
		record.PoolID,
		record.ClearingPrice,
		record.SqrtPrice,
		record.Tick,
		record.TokenAmount,
		record.CurrencyAmount,
		record.LeftoverCurrency,
		record.Liquidity,
		record.OneSidedPlanned,
		record.OneSidedIncluded,
		record.PlanOps,
		int64(record.MigratedAt),
	)
	return err
}

// PutPlanOps batch-upserts the executed plan operations.
func (s *Store) PutPlanOps(ops []model.PlanOpRecord) error {
	if len(ops) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, op := range ops {
		batch.Queue(`
			INSERT INTO plan_ops (token, seq, action, params, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (token, seq)
			DO UPDATE SET action = EXCLUDED.action, params = EXCLUDED.params
		`,
			op.Token,
			op.Seq,
			int16(op.Action),
			op.Params,
		)
	}

	br := s.pool.SendBatch(context.Background(), batch)
	defer br.Close()

	for range ops {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutSweeps batch-inserts sweep records.
func (s *Store) PutSweeps(sweeps []model.SweepRecord) error {
	if len(sweeps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sweep := range sweeps {
		batch.Queue(`
			INSERT INTO sweeps (token, asset, caller, amount, swept_at, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
		`,
			sweep.Token,
			sweep.Asset,
			sweep.Caller,
			sweep.Amount,
			int64(sweep.SweptAt),
		)
	}

	br := s.pool.SendBatch(context.Background(), batch)
	defer br.Close()

	for range sweeps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadMigration reads back the migration row for a token.
func (s *Store) LoadMigration(ctx context.Context, tokenAddr string) (model.MigrationRecord, bool, error) {
	var r model.MigrationRecord
	var migratedAt int64
	row := s.pool.QueryRow(ctx, `
		SELECT token, currency, pool_id, clearing_price_x192, sqrt_price_x96, tick,
			token_amount, currency_amount, leftover_currency, liquidity,
			one_sided_planned, one_sided_included, plan_ops, migrated_at
		FROM migrations WHERE token = $1
	`, tokenAddr)
	err := row.Scan(
		&r.Token, &r.Currency, &r.PoolID, &r.ClearingPrice, &r.SqrtPrice, &r.Tick,
		&r.TokenAmount, &r.CurrencyAmount, &r.LeftoverCurrency, &r.Liquidity,
		&r.OneSidedPlanned, &r.OneSidedIncluded, &r.PlanOps, &migratedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.MigrationRecord{}, false, nil
		}
		return model.MigrationRecord{}, false, err
	}
	r.MigratedAt = uint64(migratedAt)
	return r, true, nil
}
