package calllog

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned when the router answers with a document we cannot read.
	ErrParse = errors.New("calllog: parse error")
	// ErrDisabled is returned by the poller when no client is configured.
	ErrDisabled = errors.New("calllog: disabled")
)

// CallType is the router's code for how a call ended (or that it is ongoing).
type CallType int

const (
	Answered       CallType = 1
	Missed         CallType = 2
	Outgoing       CallType = 3
	ActiveIncoming CallType = 9
	Refused        CallType = 10
	ActiveOutgoing CallType = 11
)

func (t CallType) String() string {
	switch t {
	case Answered:
		return "answered"
	case Missed:
		return "missed"
	case Outgoing:
		return "outgoing"
	case ActiveIncoming:
		return "active_incoming"
	case Refused:
		return "refused"
	case ActiveOutgoing:
		return "active_outgoing"
	default:
		return fmt.Sprintf("type_%d", int(t))
	}
}

// Timestamp is the call time split into the parts the router reports.
type Timestamp struct {
	Day    int `json:"day"`
	Month  int `json:"month"`
	Year   int `json:"year"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Record is one call, most recent first in any slice the client returns.
type Record struct {
	Type   CallType  `json:"type"`
	Number string    `json:"number"`
	Time   Timestamp `json:"time"`
}
