package errors

import stderrors "errors"

var (
	ErrUnknownMethod   = stderrors.New("call: unknown method")
	ErrInvalidParams   = stderrors.New("call: invalid params")
	ErrNotPayable      = stderrors.New("call: method does not accept value")
	ErrNegativeValue   = stderrors.New("call: value must not be negative")
	ErrGenesisRequired = stderrors.New("node: empty database and no genesis provided")
	ErrUnknownRegistry = stderrors.New("node: address is not a registry")
	ErrUnknownToken    = stderrors.New("node: address is not a payment token")
)
