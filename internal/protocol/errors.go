package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Operation layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrValidation = "E_VALIDATION" // bad creation input: zero reward, cap exceeded
	ErrNotFound   = "E_NOT_FOUND"
	ErrWrongQueue = "E_WRONG_QUEUE"
	ErrNoFunds    = "E_NO_FUNDS" // settlement cannot cover the amount
	ErrNoDecision = "E_NO_DECISION"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrValidation:      {},
	ErrNotFound:        {},
	ErrWrongQueue:      {},
	ErrNoFunds:         {},
	ErrNoDecision:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
