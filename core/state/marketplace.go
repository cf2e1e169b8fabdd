package state

import (
	"math/big"

	"nftmarket/native/marketplace"
)

const (
	marketConfigKey     = "market/config"
	marketListingPrefix = "market/listing/"
	marketOfferPrefix   = "market/offer/"
)

type offerRecord struct {
	Asset      [20]byte
	TokenID    uint64
	Offerer    [20]byte
	Amount     *big.Int
	Expiration uint64
}

// MarketConfig returns the marketplace configuration or an empty one.
func (m *Manager) MarketConfig() (*marketplace.Config, error) {
	cfg := new(marketplace.Config)
	ok, err := m.KVGet([]byte(marketConfigKey), cfg)
	if err != nil {
		return nil, err
	}
	if !ok || cfg.PlatformFee == nil {
		cfg.PlatformFee = big.NewInt(0)
	}
	return cfg, nil
}

// MarketConfigPut stores the marketplace configuration.
func (m *Manager) MarketConfigPut(cfg *marketplace.Config) error {
	return m.KVPut([]byte(marketConfigKey), cfg)
}

func listingKey(asset [20]byte, id uint64) []byte {
	return joinKey(marketListingPrefix, asset[:], uint64Bytes(id))
}

// MarketListingGet loads the listing of a token.
func (m *Manager) MarketListingGet(asset [20]byte, id uint64) (*marketplace.Listing, bool, error) {
	l := new(marketplace.Listing)
	ok, err := m.KVGet(listingKey(asset, id), l)
	if err != nil || !ok {
		return nil, false, err
	}
	return l, true, nil
}

// MarketListingPut stores a listing.
func (m *Manager) MarketListingPut(l *marketplace.Listing) error {
	return m.KVPut(listingKey(l.Asset, l.TokenID), l)
}

// MarketListingDelete removes a listing.
func (m *Manager) MarketListingDelete(asset [20]byte, id uint64) error {
	return m.KVDelete(listingKey(asset, id))
}

func offerKey(asset [20]byte, id uint64, offerer [20]byte) []byte {
	return joinKey(marketOfferPrefix, asset[:], uint64Bytes(id), offerer[:])
}

// MarketOfferGet loads an offer.
func (m *Manager) MarketOfferGet(asset [20]byte, id uint64, offerer [20]byte) (*marketplace.Offer, bool, error) {
	var rec offerRecord
	ok, err := m.KVGet(offerKey(asset, id, offerer), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &marketplace.Offer{
		Asset:      rec.Asset,
		TokenID:    rec.TokenID,
		Offerer:    rec.Offerer,
		Amount:     rec.Amount,
		Expiration: int64(rec.Expiration),
	}, true, nil
}

// MarketOfferPut stores an offer.
func (m *Manager) MarketOfferPut(o *marketplace.Offer) error {
	rec := &offerRecord{
		Asset:      o.Asset,
		TokenID:    o.TokenID,
		Offerer:    o.Offerer,
		Amount:     o.Amount,
		Expiration: uint64(o.Expiration),
	}
	return m.KVPut(offerKey(o.Asset, o.TokenID, o.Offerer), rec)
}

// MarketOfferDelete removes an offer.
func (m *Manager) MarketOfferDelete(asset [20]byte, id uint64, offerer [20]byte) error {
	return m.KVDelete(offerKey(asset, id, offerer))
}
