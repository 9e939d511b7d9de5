package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeBoard   = "BOARD"
	TypeAct     = "ACT"
	TypeResult  = "RESULT"
	TypeNotice  = "NOTICE"
)

// Warrant operations carried by ACT messages.
const (
	OpIssue      = "ISSUE"
	OpAccept     = "ACCEPT"
	OpDecline    = "DECLINE"
	OpFulfill    = "FULFILL"
	OpResolve    = "RESOLVE"
	OpCompensate = "COMPENSATE"
	OpRemove     = "REMOVE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

func IsKnownOp(op string) bool {
	switch op {
	case OpIssue, OpAccept, OpDecline, OpFulfill, OpResolve, OpCompensate, OpRemove:
		return true
	}
	return false
}
