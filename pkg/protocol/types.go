// Package protocol defines the shared domain types for the gateway: command
// queue records, activity log entries, status lifecycle, the SQLite schema,
// and the wire messages exchanged with terminal pool processes.
package protocol

// Activity type codes. The numeric values are part of the stored record
// format and match what pool processes report.
const (
	ActivityCall  = 1 // outbound voice call
	ActivityRing  = 2 // inbound ring notification
	ActivitySMS   = 3 // outbound SMS
	ActivityInbox = 4 // inbound SMS
	ActivityUSSD  = 5 // outbound USSD request
	ActivityCUSD  = 6 // USSD network response
)

// Status represents a Command Record's lifecycle state.
type Status string

// Status constants. A record starts as queued and advances monotonically;
// once it reaches a terminal status it never returns to queued.
const (
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusDelivered Status = "delivered"
	StatusUnknown   Status = "unknown"
)

// statusRank orders statuses for monotonic advancement. Higher ranks may
// never be overwritten by lower ones.
var statusRank = map[Status]int{
	StatusQueued:    0,
	StatusSent:      1,
	StatusUnknown:   2,
	StatusFailed:    2,
	StatusDelivered: 3,
}

// Rank returns the ordering rank of s. Unknown values rank below queued.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Terminal reports whether s is a terminal status: the record is done and
// processed must be set.
func (s Status) Terminal() bool {
	switch s {
	case StatusSent, StatusFailed, StatusDelivered, StatusUnknown:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Queue represents a row in the gw_queue SQLite table: one Command Record.
// Hash is the externally shareable identity assigned at creation.
type Queue struct {
	ID        int64  `json:"id"`
	Hash      string `json:"hash"`
	IMSI      string `json:"imsi"`
	Type      int    `json:"type"`
	Address   string `json:"address"`
	Data      string `json:"data"`
	Status    Status `json:"status"`
	Time      string `json:"time"`
	Processed string `json:"processed,omitempty"` // empty until a terminal status is reached
}

// Done reports whether the record has reached a terminal status.
func (q *Queue) Done() bool {
	return q.Status.Terminal()
}

// LogEntry represents a row in the gw_log SQLite table: a delivery or
// result code reported by the network. Hash references a Command Record but
// is not enforced relationally: a report may arrive for a record the reader
// has never seen, and joins must skip such orphans.
type LogEntry struct {
	ID      int64  `json:"id"`
	Hash    string `json:"hash"`
	Address string `json:"address"`
	Type    int    `json:"type"`
	Code    string `json:"code"`
	Time    string `json:"time"`
}
