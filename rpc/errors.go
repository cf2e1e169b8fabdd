package rpc

import (
	"context"
	"errors"

	coreerrors "nftmarket/core/errors"
	corestate "nftmarket/core/state"
	"nftmarket/native/auction"
	"nftmarket/native/common"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
	"nftmarket/native/registry"
	"nftmarket/native/settlement"
	"nftmarket/native/token"
)

// Revert classes. The message of a revert is always the module's own revert
// string so clients can match on it.
const (
	codeNotAuthorized = -32030
	codeStateConflict = -32031
	codeTiming        = -32032
	codeValue         = -32033
	codeInvariant     = -32034
)

type errorClass struct {
	err  error
	code int
}

var errorClasses = []errorClass{
	{coreerrors.ErrUnknownMethod, codeMethodNotFound},
	{coreerrors.ErrInvalidParams, codeInvalidParams},

	{registry.ErrNotOwner, codeNotAuthorized},
	{nft.ErrNotOwner, codeNotAuthorized},
	{nft.ErrNotApproved, codeNotAuthorized},
	{factory.ErrNotOwner, codeNotAuthorized},
	{marketplace.ErrNotOwner, codeNotAuthorized},
	{marketplace.ErrNotTokenOwner, codeNotAuthorized},
	{marketplace.ErrNotApproved, codeNotAuthorized},
	{auction.ErrNotOwner, codeNotAuthorized},
	{auction.ErrNotTokenOwner, codeNotAuthorized},
	{auction.ErrNotAuctionOwner, codeNotAuthorized},
	{auction.ErrNotNFTOwner, codeNotAuthorized},
	{auction.ErrNotHighestBidder, codeNotAuthorized},

	{common.ErrModulePaused, codeStateConflict},
	{coreerrors.ErrUnknownRegistry, codeStateConflict},
	{coreerrors.ErrUnknownToken, codeStateConflict},
	{registry.ErrUnknownRole, codeStateConflict},
	{nft.ErrCollectionNotFound, codeStateConflict},
	{nft.ErrCollectionExists, codeStateConflict},
	{nft.ErrTokenNotFound, codeStateConflict},
	{nft.ErrNotPublic, codeStateConflict},
	{nft.ErrWrongFrom, codeStateConflict},
	{nft.ErrApproveToOwner, codeStateConflict},
	{marketplace.ErrAlreadyListed, codeStateConflict},
	{marketplace.ErrItemNotListed, codeStateConflict},
	{marketplace.ErrOfferExists, codeStateConflict},
	{marketplace.ErrNoSuchOffer, codeStateConflict},
	{marketplace.ErrRegistryUnset, codeStateConflict},
	{marketplace.ErrPaymentTokenUnset, codeStateConflict},
	{auction.ErrPaused, codeStateConflict},
	{auction.ErrItemNotListed, codeStateConflict},
	{auction.ErrAuctionExists, codeStateConflict},
	{auction.ErrAuctionNotFound, codeStateConflict},
	{auction.ErrAuctionAlreadyStarted, codeStateConflict},
	{auction.ErrCannotUpdateMinBid, codeStateConflict},
	{auction.ErrNoBidder, codeStateConflict},

	{marketplace.ErrInvalidExpiration, codeTiming},
	{auction.ErrInvalidTimeStart, codeTiming},
	{auction.ErrInvalidStartTime, codeTiming},
	{auction.ErrEndTimeTooSoon, codeTiming},
	{auction.ErrEndBeforeStart, codeTiming},
	{auction.ErrStartTooCloseToEnd, codeTiming},
	{auction.ErrInvalidEndTime, codeTiming},
	{auction.ErrAuctionEnded, codeTiming},
	{auction.ErrOutOfTime, codeTiming},
	{auction.ErrTooEarlyToWithdraw, codeTiming},
	{auction.ErrAuctionNotEnded, codeTiming},

	{coreerrors.ErrNotPayable, codeValue},
	{coreerrors.ErrNegativeValue, codeValue},
	{corestate.ErrInsufficientBalance, codeValue},
	{token.ErrInvalidAmount, codeValue},
	{token.ErrInsufficientBalance, codeValue},
	{token.ErrInsufficientAllowance, codeValue},
	{nft.ErrNoTokenURI, codeValue},
	{nft.ErrEmptyRecipient, codeValue},
	{nft.ErrZeroAddress, codeValue},
	{nft.ErrRoyaltyTooHigh, codeValue},
	{nft.ErrInsufficientFunds, codeValue},
	{factory.ErrEmptyRecipient, codeValue},
	{factory.ErrInsufficientFunds, codeValue},
	{factory.ErrRoyaltyTooHigh, codeValue},
	{factory.ErrInvalidFee, codeValue},
	{marketplace.ErrZeroPrice, codeValue},
	{marketplace.ErrNonPositivePrice, codeValue},
	{marketplace.ErrInsufficientFunds, codeValue},
	{marketplace.ErrZeroOffer, codeValue},
	{marketplace.ErrEmptyRecipient, codeValue},
	{marketplace.ErrInvalidFee, codeValue},
	{auction.ErrBidBelowMinimum, codeValue},
	{auction.ErrBidTooLow, codeValue},
	{auction.ErrEmptyRecipient, codeValue},
	{auction.ErrInvalidFee, codeValue},
	{auction.ErrInvalidMinBid, codeValue},

	{settlement.ErrNegativeAmount, codeInvariant},
	{settlement.ErrFeesExceedGross, codeInvariant},
}

// rpcErrorFrom classifies an execution error. Known reverts carry their
// revert string as message and the full error as data when it adds context.
func rpcErrorFrom(err error) *RPCError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &RPCError{Code: codeServerError, Message: "request cancelled"}
	}
	for _, class := range errorClasses {
		if errors.Is(err, class.err) {
			out := &RPCError{Code: class.code, Message: class.err.Error()}
			if full := err.Error(); full != out.Message {
				out.Data = full
			}
			return out
		}
	}
	return &RPCError{Code: codeServerError, Message: err.Error()}
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
}
