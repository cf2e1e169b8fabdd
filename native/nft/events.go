package nft

import (
	"strconv"

	"nftmarket/core/types"
	"nftmarket/crypto"
)

const (
	EventTypeCollectionDeployed = "nft.collection_deployed"
	EventTypeMinted             = "nft.minted"
	EventTypeTransfer           = "nft.transfer"
	EventTypeApproval           = "nft.approval"
	EventTypeApprovalForAll     = "nft.approval_for_all"
	EventTypeUpdatedRoyalty     = "nft.updated_royalty"
	EventTypeRemovedRoyalty     = "nft.removed_royalty"
	EventTypeUpdatedMintFee     = "nft.updated_mint_fee"
)

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

func newEvent(kind string, collection [20]byte, attrs map[string]string) *types.Event {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	attrs["collection"] = crypto.HexAddress(collection)
	return &types.Event{Type: kind, Attributes: attrs}
}

func CollectionDeployedEvent(c *Collection) *types.Event {
	return newEvent(EventTypeCollectionDeployed, c.Address, map[string]string{
		"name":             c.Name,
		"symbol":           c.Symbol,
		"owner":            crypto.HexAddress(c.Owner),
		"royaltyRecipient": crypto.HexAddress(c.RoyaltyRecipient),
		"royaltyBps":       formatID(c.RoyaltyBps),
		"public":           strconv.FormatBool(c.Public),
	})
}

func MintedEvent(t *Token) *types.Event {
	return newEvent(EventTypeMinted, t.Collection, map[string]string{
		"tokenId": formatID(t.ID),
		"owner":   crypto.HexAddress(t.Owner),
		"uri":     t.URI,
	})
}

func TransferEvent(collection, from, to [20]byte, id uint64) *types.Event {
	return newEvent(EventTypeTransfer, collection, map[string]string{
		"from":    crypto.HexAddress(from),
		"to":      crypto.HexAddress(to),
		"tokenId": formatID(id),
	})
}

func ApprovalEvent(collection, owner, approved [20]byte, id uint64) *types.Event {
	return newEvent(EventTypeApproval, collection, map[string]string{
		"owner":    crypto.HexAddress(owner),
		"approved": crypto.HexAddress(approved),
		"tokenId":  formatID(id),
	})
}

func ApprovalForAllEvent(collection, owner, operator [20]byte, approved bool) *types.Event {
	return newEvent(EventTypeApprovalForAll, collection, map[string]string{
		"owner":    crypto.HexAddress(owner),
		"operator": crypto.HexAddress(operator),
		"approved": strconv.FormatBool(approved),
	})
}

func UpdatedRoyaltyEvent(collection, recipient [20]byte, bps uint64) *types.Event {
	return newEvent(EventTypeUpdatedRoyalty, collection, map[string]string{
		"recipient":  crypto.HexAddress(recipient),
		"royaltyBps": formatID(bps),
	})
}

func RemovedRoyaltyEvent(collection [20]byte) *types.Event {
	return newEvent(EventTypeRemovedRoyalty, collection, nil)
}

func UpdatedMintFeeEvent(collection [20]byte, fee string) *types.Event {
	return newEvent(EventTypeUpdatedMintFee, collection, map[string]string{"mintFee": fee})
}
