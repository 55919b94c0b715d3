package auction

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Uniswap/liquidity-launcher-sub001/internal/token"
)

var (
	tokenAsset  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	currency    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	auctionAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	beneficiary = common.HexToAddress("0x4000000000000000000000000000000000000004")
	bidderA     = common.HexToAddress("0x5000000000000000000000000000000000000005")
	bidderB     = common.HexToAddress("0x6000000000000000000000000000000000000006")
)

func priceX192(n uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(n), 192)
}

func newTestAuction(t *testing.T, supply uint64) (*Auction, *token.Ledger) {
	t.Helper()
	ledger := token.NewLedger()
	if err := ledger.Register(currency, token.Metadata{Symbol: "USD", Decimals: 6}); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Register(tokenAsset, token.Metadata{Symbol: "TKN", Decimals: 18}); err != nil {
		t.Fatal(err)
	}
	for _, b := range []common.Address{bidderA, bidderB} {
		if err := ledger.Mint(currency, b, uint256.NewInt(10_000)); err != nil {
			t.Fatal(err)
		}
	}
	return New(auctionAddr, tokenAsset, currency, uint256.NewInt(supply), beneficiary, ledger), ledger
}

func TestPlaceBidEscrows(t *testing.T) {
	a, ledger := newTestAuction(t, 1000)
	if err := a.PlaceBid(bidderA, uint256.NewInt(300), priceX192(1)); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if got := ledger.BalanceOf(currency, auctionAddr).Uint64(); got != 300 {
		t.Errorf("escrow = %d, want 300", got)
	}
	if got := ledger.BalanceOf(currency, bidderA).Uint64(); got != 9_700 {
		t.Errorf("bidder balance = %d, want 9700", got)
	}
}

func TestPlaceBidValidation(t *testing.T) {
	a, _ := newTestAuction(t, 1000)
	if err := a.PlaceBid(bidderA, new(uint256.Int), priceX192(1)); err != ErrInvalidBid {
		t.Errorf("zero amount: got %v", err)
	}
	if err := a.PlaceBid(bidderA, uint256.NewInt(1), new(uint256.Int)); err != ErrInvalidBid {
		t.Errorf("zero price: got %v", err)
	}
	if err := a.PlaceBid(bidderA, uint256.NewInt(100_000), priceX192(1)); err == nil {
		t.Error("bid beyond balance should fail")
	}
}

func TestReadsBeforeClose(t *testing.T) {
	a, _ := newTestAuction(t, 1000)
	if _, err := a.FinalPrice(); err != ErrAuctionOpen {
		t.Errorf("FinalPrice: got %v, want ErrAuctionOpen", err)
	}
	if _, err := a.RaisedAmount(); err != ErrAuctionOpen {
		t.Errorf("RaisedAmount: got %v, want ErrAuctionOpen", err)
	}
}

func TestCloseDerivesClearingPrice(t *testing.T) {
	a, ledger := newTestAuction(t, 1000)
	// Bidder A concedes more (accepts 1 token per currency), B demands 2.
	if err := a.PlaceBid(bidderA, uint256.NewInt(600), priceX192(1)); err != nil {
		t.Fatal(err)
	}
	if err := a.PlaceBid(bidderB, uint256.NewInt(400), priceX192(2)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// At limit 1 the cumulative demand (600 tokens) misses the 1000
	// supply; adding B at limit 2 demands 2000 and clears there.
	price, err := a.FinalPrice()
	if err != nil {
		t.Fatal(err)
	}
	if !price.Eq(priceX192(2)) {
		t.Errorf("clearing price = %s, want 2<<192", price.Dec())
	}

	// At price 2 the supply caps currency intake at 500.
	raised, err := a.RaisedAmount()
	if err != nil {
		t.Fatal(err)
	}
	if raised.Uint64() != 500 {
		t.Errorf("raised = %d, want 500", raised.Uint64())
	}
	if got := ledger.BalanceOf(currency, beneficiary).Uint64(); got != 500 {
		t.Errorf("beneficiary = %d, want 500", got)
	}
	// Unfilled escrow is refunded; nothing is stranded with the auction.
	if got := ledger.BalanceOf(currency, auctionAddr).Uint64(); got != 0 {
		t.Errorf("stranded escrow = %d", got)
	}
}

func TestCloseUndersubscribed(t *testing.T) {
	a, _ := newTestAuction(t, 1_000_000)
	if err := a.PlaceBid(bidderA, uint256.NewInt(100), priceX192(1)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	price, _ := a.FinalPrice()
	if !price.Eq(priceX192(1)) {
		t.Errorf("undersubscribed clearing = %s, want highest limit", price.Dec())
	}
	raised, _ := a.RaisedAmount()
	if raised.Uint64() != 100 {
		t.Errorf("raised = %d, want full escrow", raised.Uint64())
	}
}

func TestCloseAtPrice(t *testing.T) {
	a, ledger := newTestAuction(t, 1000)
	if err := a.PlaceBid(bidderA, uint256.NewInt(300), priceX192(1)); err != nil {
		t.Fatal(err)
	}
	if err := a.PlaceBid(bidderB, uint256.NewInt(200), priceX192(3)); err != nil {
		t.Fatal(err)
	}
	// Bidder B's limit exceeds the chosen price and is excluded.
	if err := a.CloseAtPrice(priceX192(2)); err != nil {
		t.Fatalf("CloseAtPrice: %v", err)
	}
	raised, _ := a.RaisedAmount()
	if raised.Uint64() != 300 {
		t.Errorf("raised = %d, want 300", raised.Uint64())
	}
	if got := ledger.BalanceOf(currency, bidderB).Uint64(); got != 10_000 {
		t.Errorf("excluded bidder refund: balance %d, want 10000", got)
	}
}

func TestCloseIsOneShot(t *testing.T) {
	a, _ := newTestAuction(t, 1000)
	if err := a.PlaceBid(bidderA, uint256.NewInt(100), priceX192(1)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != ErrAuctionClosed {
		t.Errorf("second close: got %v", err)
	}
	if err := a.PlaceBid(bidderA, uint256.NewInt(1), priceX192(1)); err != ErrAuctionClosed {
		t.Errorf("bid after close: got %v", err)
	}
}

func TestCloseNoBids(t *testing.T) {
	a, _ := newTestAuction(t, 1000)
	if err := a.Close(); err != ErrNoBids {
		t.Errorf("Close: got %v, want ErrNoBids", err)
	}
}

func TestFactoryDistinctAddresses(t *testing.T) {
	ledger := token.NewLedger()
	f := NewFactory(ledger, currency)
	a1 := f.Create(tokenAsset, uint256.NewInt(100), beneficiary)
	a2 := f.Create(tokenAsset, uint256.NewInt(100), beneficiary)
	if a1.Address() == a2.Address() {
		t.Error("factory must derive distinct auction addresses")
	}
}
