package token

import (
	"math/big"

	"nftmarket/core/types"
	"nftmarket/crypto"
)

const (
	EventTypeDeposit    = "token.deposit"
	EventTypeWithdrawal = "token.withdrawal"
	EventTypeTransfer   = "token.transfer"
	EventTypeApproval   = "token.approval"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// DepositEvent is emitted when native currency is wrapped.
func DepositEvent(owner [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposit,
		Attributes: map[string]string{
			"owner":  crypto.HexAddress(owner),
			"amount": amountString(amount),
		},
	}
}

// WithdrawalEvent is emitted when wrapped tokens are redeemed.
func WithdrawalEvent(owner [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawal,
		Attributes: map[string]string{
			"owner":  crypto.HexAddress(owner),
			"amount": amountString(amount),
		},
	}
}

// TransferEvent is emitted for every balance movement between holders.
func TransferEvent(from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   crypto.HexAddress(from),
			"to":     crypto.HexAddress(to),
			"amount": amountString(amount),
		},
	}
}

// ApprovalEvent is emitted when an owner sets a spender allowance.
func ApprovalEvent(owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproval,
		Attributes: map[string]string{
			"owner":   crypto.HexAddress(owner),
			"spender": crypto.HexAddress(spender),
			"amount":  amountString(amount),
		},
	}
}
