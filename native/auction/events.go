package auction

import (
	"math/big"
	"strconv"

	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/settlement"
)

const (
	EventTypeCreated                = "auction.created"
	EventTypeBidPlaced              = "auction.bid_placed"
	EventTypeBidRefunded            = "auction.bid_refunded"
	EventTypeBidWithdrawn           = "auction.bid_withdrawn"
	EventTypeCancelled              = "auction.cancelled"
	EventTypeUpdatedMinBid          = "auction.updated_min_bid"
	EventTypeUpdatedStartTime       = "auction.updated_start_time"
	EventTypeUpdatedEndTime         = "auction.updated_end_time"
	EventTypeResulted               = "auction.resulted"
	EventTypePausedToggled          = "auction.paused_toggled"
	EventTypeUpdatedPlatformFee     = "auction.updated_platform_fee"
	EventTypeUpdatedFeeRecipient    = "auction.updated_fee_recipient"
	EventTypeUpdatedAddressRegistry = "auction.updated_address_registry"
)

func keyAttrs(asset [20]byte, id uint64) map[string]string {
	return map[string]string{
		"asset":   crypto.HexAddress(asset),
		"tokenId": strconv.FormatUint(id, 10),
	}
}

func formatTime(ts int64) string { return strconv.FormatInt(ts, 10) }

func CreatedEvent(a *Auction) *types.Event {
	attrs := keyAttrs(a.Asset, a.TokenID)
	attrs["owner"] = crypto.HexAddress(a.Owner)
	attrs["minimumBid"] = a.MinimumBid.String()
	attrs["startTime"] = formatTime(a.StartTime)
	attrs["endTime"] = formatTime(a.EndTime)
	return &types.Event{Type: EventTypeCreated, Attributes: attrs}
}

func bidEvent(kind string, b *HighestBid) *types.Event {
	attrs := keyAttrs(b.Asset, b.TokenID)
	attrs["bidder"] = crypto.HexAddress(b.Bidder)
	attrs["amount"] = b.Amount.String()
	return &types.Event{Type: kind, Attributes: attrs}
}

func BidPlacedEvent(b *HighestBid) *types.Event   { return bidEvent(EventTypeBidPlaced, b) }
func BidRefundedEvent(b *HighestBid) *types.Event { return bidEvent(EventTypeBidRefunded, b) }
func BidWithdrawnEvent(b *HighestBid) *types.Event {
	return bidEvent(EventTypeBidWithdrawn, b)
}

func CancelledEvent(asset [20]byte, id uint64) *types.Event {
	return &types.Event{Type: EventTypeCancelled, Attributes: keyAttrs(asset, id)}
}

func UpdatedMinBidEvent(asset [20]byte, id uint64, minBid *big.Int) *types.Event {
	attrs := keyAttrs(asset, id)
	attrs["minimumBid"] = minBid.String()
	return &types.Event{Type: EventTypeUpdatedMinBid, Attributes: attrs}
}

func UpdatedStartTimeEvent(asset [20]byte, id uint64, start int64) *types.Event {
	attrs := keyAttrs(asset, id)
	attrs["startTime"] = formatTime(start)
	return &types.Event{Type: EventTypeUpdatedStartTime, Attributes: attrs}
}

func UpdatedEndTimeEvent(asset [20]byte, id uint64, end int64) *types.Event {
	attrs := keyAttrs(asset, id)
	attrs["endTime"] = formatTime(end)
	return &types.Event{Type: EventTypeUpdatedEndTime, Attributes: attrs}
}

func ResultedEvent(a *Auction, winner [20]byte, b *settlement.Breakdown) *types.Event {
	attrs := keyAttrs(a.Asset, a.TokenID)
	attrs["owner"] = crypto.HexAddress(a.Owner)
	attrs["winner"] = crypto.HexAddress(winner)
	attrs["amount"] = b.Gross.String()
	attrs["platformFee"] = b.Platform.String()
	attrs["royaltyFee"] = b.Royalty.String()
	attrs["royaltyRecipient"] = crypto.HexAddress(b.RoyaltyRecipient)
	attrs["sellerProceeds"] = b.Seller.String()
	return &types.Event{Type: EventTypeResulted, Attributes: attrs}
}

func PausedToggledEvent(paused bool) *types.Event {
	return &types.Event{Type: EventTypePausedToggled, Attributes: map[string]string{"paused": strconv.FormatBool(paused)}}
}

func UpdatedPlatformFeeEvent(fee *big.Int) *types.Event {
	return &types.Event{Type: EventTypeUpdatedPlatformFee, Attributes: map[string]string{"platformFee": fee.String()}}
}

func UpdatedFeeRecipientEvent(recipient [20]byte) *types.Event {
	return &types.Event{Type: EventTypeUpdatedFeeRecipient, Attributes: map[string]string{"feeRecipient": crypto.HexAddress(recipient)}}
}

func UpdatedAddressRegistryEvent(registry [20]byte) *types.Event {
	return &types.Event{Type: EventTypeUpdatedAddressRegistry, Attributes: map[string]string{"addressRegistry": crypto.HexAddress(registry)}}
}
