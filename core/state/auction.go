package state

import (
	"math/big"

	"nftmarket/native/auction"
)

const (
	auctionConfigKey    = "auction/config"
	auctionRecordPrefix = "auction/record/"
	auctionBidPrefix    = "auction/bid/"
)

type auctionRecord struct {
	Asset      [20]byte
	TokenID    uint64
	Owner      [20]byte
	MinimumBid *big.Int
	StartTime  uint64
	EndTime    uint64
}

type bidRecord struct {
	Asset    [20]byte
	TokenID  uint64
	Bidder   [20]byte
	Amount   *big.Int
	PlacedAt uint64
}

// AuctionConfig returns the auction house configuration or an empty one.
func (m *Manager) AuctionConfig() (*auction.Config, error) {
	cfg := new(auction.Config)
	ok, err := m.KVGet([]byte(auctionConfigKey), cfg)
	if err != nil {
		return nil, err
	}
	if !ok || cfg.PlatformFee == nil {
		cfg.PlatformFee = big.NewInt(0)
	}
	return cfg, nil
}

// AuctionConfigPut stores the auction house configuration.
func (m *Manager) AuctionConfigPut(cfg *auction.Config) error {
	return m.KVPut([]byte(auctionConfigKey), cfg)
}

func auctionKey(prefix string, asset [20]byte, id uint64) []byte {
	return joinKey(prefix, asset[:], uint64Bytes(id))
}

// AuctionGet loads the auction of a token.
func (m *Manager) AuctionGet(asset [20]byte, id uint64) (*auction.Auction, bool, error) {
	var rec auctionRecord
	ok, err := m.KVGet(auctionKey(auctionRecordPrefix, asset, id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &auction.Auction{
		Asset:      rec.Asset,
		TokenID:    rec.TokenID,
		Owner:      rec.Owner,
		MinimumBid: rec.MinimumBid,
		StartTime:  int64(rec.StartTime),
		EndTime:    int64(rec.EndTime),
	}, true, nil
}

// AuctionPut stores an auction.
func (m *Manager) AuctionPut(a *auction.Auction) error {
	rec := &auctionRecord{
		Asset:      a.Asset,
		TokenID:    a.TokenID,
		Owner:      a.Owner,
		MinimumBid: a.MinimumBid,
		StartTime:  uint64(a.StartTime),
		EndTime:    uint64(a.EndTime),
	}
	return m.KVPut(auctionKey(auctionRecordPrefix, a.Asset, a.TokenID), rec)
}

// AuctionDelete removes an auction.
func (m *Manager) AuctionDelete(asset [20]byte, id uint64) error {
	return m.KVDelete(auctionKey(auctionRecordPrefix, asset, id))
}

// AuctionBidGet loads the highest bid of an auction.
func (m *Manager) AuctionBidGet(asset [20]byte, id uint64) (*auction.HighestBid, bool, error) {
	var rec bidRecord
	ok, err := m.KVGet(auctionKey(auctionBidPrefix, asset, id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &auction.HighestBid{
		Asset:    rec.Asset,
		TokenID:  rec.TokenID,
		Bidder:   rec.Bidder,
		Amount:   rec.Amount,
		PlacedAt: int64(rec.PlacedAt),
	}, true, nil
}

// AuctionBidPut stores the highest bid of an auction.
func (m *Manager) AuctionBidPut(b *auction.HighestBid) error {
	rec := &bidRecord{
		Asset:    b.Asset,
		TokenID:  b.TokenID,
		Bidder:   b.Bidder,
		Amount:   b.Amount,
		PlacedAt: uint64(b.PlacedAt),
	}
	return m.KVPut(auctionKey(auctionBidPrefix, b.Asset, b.TokenID), rec)
}

// AuctionBidDelete clears the highest bid of an auction.
func (m *Manager) AuctionBidDelete(asset [20]byte, id uint64) error {
	return m.KVDelete(auctionKey(auctionBidPrefix, asset, id))
}
