package tele

import (
	"sync"
)

// Low priority telemetry buffer. Can be updated at any time.
// Sent together with more important data or on Report.
type Stat struct {
	sync.Mutex
	Orders        uint32
	ChangeFailed  uint32
	NeedMoreMoney uint32
	// nominal -> count of tendered notes and coins not accepted by till
	CashRejected map[uint32]uint32
}

// Internal for tele package. Caller must hold self.Mutex.
func (self *Stat) Locked_Reset() {
	self.Orders = 0
	self.ChangeFailed = 0
	self.NeedMoreMoney = 0
	self.CashRejected = make(map[uint32]uint32, 16)
}
