package rpc

import (
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/domains/rpckit"
)

// Stable JSON-RPC codes per error kind. The reason string travels as the
// message; the kind is repeated in data for clients that switch on it.
const (
	CodeInternal      = -32000
	CodeValidation    = -32010
	CodeAuthorization = -32020
	CodeState         = -32030
	CodeArithmetic    = -32040
	CodeTransfer      = -32050
)

func mapServiceError(err error) *rpckit.Error {
	kind := marketmodel.KindName(err)
	var code int
	switch kind {
	case "validation":
		code = CodeValidation
	case "authorization":
		code = CodeAuthorization
	case "state":
		code = CodeState
	case "arithmetic":
		code = CodeArithmetic
	case "transfer":
		code = CodeTransfer
	default:
		return rpckit.ServiceError(CodeInternal, err)
	}
	return &rpckit.Error{
		Code:    code,
		Message: marketmodel.ReasonOf(err),
		Data:    map[string]string{"kind": kind},
	}
}
