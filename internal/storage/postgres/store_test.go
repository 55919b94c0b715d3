package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/model"
)

func TestStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store, cleanup := setupTestDB(t)
	defer cleanup()

	launch := model.LaunchRecord{
		Token:         "0xbb00000000000000000000000000000000000002",
		Name:          "Launch Token",
		Symbol:        "LCH",
		Decimals:      18,
		TotalSupply:   "1000000000000000000000",
		MerkleRoot:    "0x0000000000000000000000000000000000000000000000000000000000000000",
		Salt:          "0x0000000000000000000000000000000000000000000000000000000000000001",
		Strategy:      "0x1100000000000000000000000000000000000011",
		Auction:       "0x4400000000000000000000000000000000000044",
		AuctionSupply: "500000000000000000000",
		ReserveSupply: "500000000000000000000",
		FundedAt:      42,
	}
	require.NoError(t, store.PutLaunch(launch))
	// Upserting the same token again must not fail.
	require.NoError(t, store.PutLaunch(launch))

	migration := model.MigrationRecord{
		Token:            launch.Token,
		Currency:         "0xaa00000000000000000000000000000000000001",
		PoolID:           "0x1111111111111111111111111111111111111111111111111111111111111111",
		ClearingPrice:    "6277101735386680763835789423207666416102355444464034512896",
		SqrtPrice:        "79228162514264337593543950336",
		Tick:             0,
		TokenAmount:      "500",
		CurrencyAmount:   "500",
		LeftoverCurrency: "0",
		Liquidity:        "500",
		OneSidedPlanned:  false,
		OneSidedIncluded: false,
		PlanOps:          5,
		MigratedAt:       100,
	}
	require.NoError(t, store.PutMigration(migration))

	got, ok, err := store.LoadMigration(context.Background(), launch.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, migration.TokenAmount, got.TokenAmount)
	assert.Equal(t, migration.SqrtPrice, got.SqrtPrice)
	assert.Equal(t, migration.PlanOps, got.PlanOps)
	assert.Equal(t, migration.MigratedAt, got.MigratedAt)

	_, ok, err = store.LoadMigration(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.False(t, ok)

	ops := []model.PlanOpRecord{
		{Token: launch.Token, Seq: 0, Action: 0x0b, Params: "0xdead"},
		{Token: launch.Token, Seq: 1, Action: 0x02, Params: "0xbeef"},
	}
	require.NoError(t, store.PutPlanOps(ops))
	require.NoError(t, store.PutPlanOps(ops))

	sweeps := []model.SweepRecord{
		{Token: launch.Token, Asset: migration.Currency, Caller: launch.Strategy, Amount: "7", SweptAt: 200},
	}
	require.NoError(t, store.PutSweeps(sweeps))
}
