package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"nftmarket/core"
	coreerrors "nftmarket/core/errors"
	"nftmarket/native/auction"
	"nftmarket/native/marketplace"
)

func TestParseWei(t *testing.T) {
	cases := map[string]string{
		"1000":  "1000",
		"0x10":  "16",
		"-5":    "-5",
		"-0x10": "-16",
	}
	for in, want := range cases {
		got, err := parseWei("amount", in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.String(), in)
	}
	_, err := parseWei("amount", "1e18")
	require.Error(t, err)
	_, err = parseAmount("price", "  ")
	require.ErrorContains(t, err, "price required")
}

func TestSplitValue(t *testing.T) {
	value, rest, err := splitValue(json.RawMessage(`{"asset":"0x00000000000000000000000000000000000000b1","tokenId":3,"value":"0x0de0b6b3a7640000"}`))
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", value.String())

	decoded, err := decodeArgs[itemArgs, core.ItemParams](rest)
	require.NoError(t, err)
	item := decoded.(core.ItemParams)
	require.Equal(t, uint64(3), item.TokenID)

	value, _, err = splitValue(nil)
	require.NoError(t, err)
	require.Nil(t, value)

	_, _, err = splitValue(json.RawMessage(`{"value":1}`))
	require.Error(t, err)
	_, _, err = splitValue(json.RawMessage(`[1,2]`))
	require.Error(t, err)
}

func TestOptionalAddressesDecodeToZero(t *testing.T) {
	decoded, err := decodeArgs[createCollectionArgs, core.CreateCollectionParams](json.RawMessage(`{"name":"Art","symbol":"ART","royaltyBps":250}`))
	require.NoError(t, err)
	params := decoded.(core.CreateCollectionParams)
	require.Equal(t, [20]byte{}, params.RoyaltyRecipient)
	require.Equal(t, uint64(250), params.RoyaltyBps)
}

func TestRPCErrorFromWrappedRevert(t *testing.T) {
	res := rpcErrorFrom(fmt.Errorf("%w: marketplace.nothing", coreerrors.ErrUnknownMethod))
	require.Equal(t, codeMethodNotFound, res.Code)
	require.Equal(t, coreerrors.ErrUnknownMethod.Error(), res.Message)
	require.Equal(t, "call: unknown method: marketplace.nothing", res.Data)

	res = rpcErrorFrom(auction.ErrEndTimeTooSoon)
	require.Equal(t, codeTiming, res.Code)
	require.Nil(t, res.Data)

	res = rpcErrorFrom(errors.New("disk on fire"))
	require.Equal(t, codeServerError, res.Code)
}

func TestRPCErrorRevertStrings(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{auction.ErrInvalidTimeStart, codeTiming, "invalid time start"},
		{auction.ErrInvalidStartTime, codeTiming, "invalid start time"},
		{auction.ErrNotNFTOwner, codeNotAuthorized, "not nft owner"},
		{auction.ErrNotAuctionOwner, codeNotAuthorized, "not auction owner"},
		{marketplace.ErrZeroPrice, codeValue, "price cannot be zero"},
		{marketplace.ErrNonPositivePrice, codeValue, "price cannot be less than zero"},
		{marketplace.ErrNoSuchOffer, codeStateConflict, "offer doesn't exist or expired"},
	}
	for _, tc := range cases {
		res := rpcErrorFrom(tc.err)
		require.Equal(t, tc.code, res.Code, tc.msg)
		require.Equal(t, tc.msg, res.Message)
	}
}
