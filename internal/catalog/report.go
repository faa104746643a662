package catalog

import (
	"sort"
	"time"
)

type ExpiryStatus string

const (
	ExpiryExpired ExpiryStatus = "expired"
	ExpiryToday   ExpiryStatus = "expires_today"
	ExpirySoon    ExpiryStatus = "expiring_soon"
	ExpiryValid   ExpiryStatus = "valid"
)

// ExpirySoonDays is how far ahead a validity date counts as expiring soon.
const ExpirySoonDays = 7

func expiryStatus(days int) ExpiryStatus {
	switch {
	case days < 0:
		return ExpiryExpired
	case days == 0:
		return ExpiryToday
	case days <= ExpirySoonDays:
		return ExpirySoon
	}
	return ExpiryValid
}

type ExpiryRow struct {
	Code       int          `json:"code"`
	Name       string       `json:"name"`
	ValidUntil time.Time    `json:"valid_until"`
	Days       int          `json:"days"`
	Status     ExpiryStatus `json:"status"`
	Stock      int          `json:"stock"`
}

// ExpiryReport lists products with validity date, soonest first.
// Products without date never expire and are left out.
func (self *Catalog) ExpiryReport(now time.Time) []ExpiryRow {
	self.mu.RLock()
	rows := make([]ExpiryRow, 0, len(self.items))
	for _, item := range self.items {
		if item.ValidUntil == nil {
			continue
		}
		days := daysUntil(*item.ValidUntil, now)
		rows = append(rows, ExpiryRow{
			Code:       item.Code,
			Name:       item.Name,
			ValidUntil: *item.ValidUntil,
			Days:       days,
			Status:     expiryStatus(days),
			Stock:      item.Stock,
		})
	}
	self.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Days != rows[j].Days {
			return rows[i].Days < rows[j].Days
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}
