package marketplace

import (
	"math/big"
	"strconv"

	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/settlement"
)

const (
	EventTypeItemListed             = "marketplace.item_listed"
	EventTypeListingUpdated         = "marketplace.listing_updated"
	EventTypeListingCancelled       = "marketplace.listing_cancelled"
	EventTypeItemBought             = "marketplace.item_bought"
	EventTypeOfferCreated           = "marketplace.offer_created"
	EventTypeOfferCancelled         = "marketplace.offer_cancelled"
	EventTypeOfferAccepted          = "marketplace.offer_accepted"
	EventTypeUpdatedPlatformFee     = "marketplace.updated_platform_fee"
	EventTypeUpdatedFeeRecipient    = "marketplace.updated_fee_recipient"
	EventTypeUpdatedAddressRegistry = "marketplace.updated_address_registry"
)

func assetAttrs(asset [20]byte, id uint64) map[string]string {
	return map[string]string{
		"asset":   crypto.HexAddress(asset),
		"tokenId": strconv.FormatUint(id, 10),
	}
}

func settlementAttrs(attrs map[string]string, b *settlement.Breakdown) {
	attrs["platformFee"] = b.Platform.String()
	attrs["royaltyFee"] = b.Royalty.String()
	attrs["royaltyRecipient"] = crypto.HexAddress(b.RoyaltyRecipient)
	attrs["sellerProceeds"] = b.Seller.String()
}

func ItemListedEvent(l *Listing) *types.Event {
	attrs := assetAttrs(l.Asset, l.TokenID)
	attrs["seller"] = crypto.HexAddress(l.Seller)
	attrs["price"] = l.Price.String()
	return &types.Event{Type: EventTypeItemListed, Attributes: attrs}
}

func ListingUpdatedEvent(l *Listing) *types.Event {
	attrs := assetAttrs(l.Asset, l.TokenID)
	attrs["seller"] = crypto.HexAddress(l.Seller)
	attrs["price"] = l.Price.String()
	return &types.Event{Type: EventTypeListingUpdated, Attributes: attrs}
}

func ListingCancelledEvent(seller, asset [20]byte, id uint64) *types.Event {
	attrs := assetAttrs(asset, id)
	attrs["seller"] = crypto.HexAddress(seller)
	return &types.Event{Type: EventTypeListingCancelled, Attributes: attrs}
}

func ItemBoughtEvent(buyer [20]byte, l *Listing, b *settlement.Breakdown) *types.Event {
	attrs := assetAttrs(l.Asset, l.TokenID)
	attrs["buyer"] = crypto.HexAddress(buyer)
	attrs["seller"] = crypto.HexAddress(l.Seller)
	attrs["price"] = l.Price.String()
	settlementAttrs(attrs, b)
	return &types.Event{Type: EventTypeItemBought, Attributes: attrs}
}

func OfferCreatedEvent(o *Offer) *types.Event {
	attrs := assetAttrs(o.Asset, o.TokenID)
	attrs["offerer"] = crypto.HexAddress(o.Offerer)
	attrs["amount"] = o.Amount.String()
	attrs["expiration"] = strconv.FormatInt(o.Expiration, 10)
	return &types.Event{Type: EventTypeOfferCreated, Attributes: attrs}
}

func OfferCancelledEvent(o *Offer) *types.Event {
	attrs := assetAttrs(o.Asset, o.TokenID)
	attrs["offerer"] = crypto.HexAddress(o.Offerer)
	return &types.Event{Type: EventTypeOfferCancelled, Attributes: attrs}
}

func OfferAcceptedEvent(seller [20]byte, o *Offer, token [20]byte, b *settlement.Breakdown) *types.Event {
	attrs := assetAttrs(o.Asset, o.TokenID)
	attrs["offerer"] = crypto.HexAddress(o.Offerer)
	attrs["seller"] = crypto.HexAddress(seller)
	attrs["amount"] = o.Amount.String()
	attrs["paymentToken"] = crypto.HexAddress(token)
	settlementAttrs(attrs, b)
	return &types.Event{Type: EventTypeOfferAccepted, Attributes: attrs}
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
