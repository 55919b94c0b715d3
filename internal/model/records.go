// Package model holds the JSON-tagged record types emitted by a launch run.
// Big numbers are string-encoded so records survive any JSON consumer.
package model

import (
	"encoding/json"
)

// LaunchRecord captures the issued token and the supply split at funding.
type LaunchRecord struct {
	Token         string `json:"token"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	TotalSupply   string `json:"total_supply"`
	MerkleRoot    string `json:"merkle_root"`
	Salt          string `json:"salt"`
	Strategy      string `json:"strategy"`
	Auction       string `json:"auction"`
	AuctionSupply string `json:"auction_supply"`
	ReserveSupply string `json:"reserve_supply"`
	FundedAt      uint64 `json:"funded_at"`
}

// MigrationRecord captures the migration result for one launch.
type MigrationRecord struct {
	Token            string `json:"token"`
	Currency         string `json:"currency"`
	PoolID           string `json:"pool_id"`
	ClearingPrice    string `json:"clearing_price_x192"`
	SqrtPrice        string `json:"sqrt_price_x96"`
	Tick             int32  `json:"tick"`
	TokenAmount      string `json:"token_amount"`
	CurrencyAmount   string `json:"currency_amount"`
	LeftoverCurrency string `json:"leftover_currency"`
	Liquidity        string `json:"liquidity"`
	OneSidedPlanned  bool   `json:"one_sided_planned"`
	OneSidedIncluded bool   `json:"one_sided_included"`
	PlanOps          int    `json:"plan_ops"`
	MigratedAt       uint64 `json:"migrated_at"`
}

// PlanOpRecord is one executed plan operation.
type PlanOpRecord struct {
	Token  string `json:"token"`
	Seq    int    `json:"seq"`
	Action uint8  `json:"action"`
	Params string `json:"params"`
}

// SweepRecord is one post-migration balance sweep.
type SweepRecord struct {
	Token   string `json:"token"`
	Asset   string `json:"asset"`
	Caller  string `json:"caller"`
	Amount  string `json:"amount"`
	SweptAt uint64 `json:"swept_at"`
}

// MarshalJSON ensures LaunchRecord is encoded with stable field names.
func (r LaunchRecord) MarshalJSON() ([]byte, error) {
	type Alias LaunchRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a LaunchRecord from JSON.
func (r *LaunchRecord) UnmarshalJSON(data []byte) error {
	type Alias LaunchRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = LaunchRecord(a)
	return nil
}
