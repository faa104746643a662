package tele

import "fmt"

// State is sent as single byte payload, retained.
type State int32

const (
	State_Invalid State = iota
	State_Boot
	State_Nominal
	State_Disconnected
	State_Problem
	State_Service
	State_Lock
)

var State_name = map[State]string{
	State_Invalid:      "Invalid",
	State_Boot:         "Boot",
	State_Nominal:      "Nominal",
	State_Disconnected: "Disconnected",
	State_Problem:      "Problem",
	State_Service:      "Service",
	State_Lock:         "Lock",
}

func (s State) String() string {
	if name, ok := State_name[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type TransactionLine struct {
	Code  int
	Qty   int
	Price uint32
}

// Transaction describes completed order. Amounts are in cents.
type Transaction struct {
	Number   uint32
	Method   string
	Total    uint32
	Tendered uint32
	Change   uint32
	Lines    []TransactionLine
}
