package protocol

// Message type constants for the line-delimited JSON connection between the
// gateway and terminal pool processes.
const (
	// Inbound (pool process -> gateway)
	MsgRegister  = "REGISTER"  // announce pool identity and owned terminals
	MsgHeartbeat = "HEARTBEAT" // liveness ping
	MsgStatus    = "STATUS"    // command result for a queued hash
	MsgInbox     = "INBOX"     // inbound SMS received by a terminal
	MsgReport    = "REPORT"    // delivery report from the network

	// Outbound (gateway -> pool process)
	MsgJob    = "JOB"    // deliver a queued command to the owning terminal
	MsgSignal = "SIGNAL" // broadcast control signal to the pool
)

// Broadcast signal names emitted to every live pool connection.
const (
	SignalCheckMessage  = "check-message"  // payload: message type filter
	SignalResendMessage = "resend-message" // payload: resend-since timestamp
	SignalCheckReport   = "check-report"   // payload: report-since timestamp
)

// Task operation names accepted by the broadcast task contract and their
// corresponding signals.
const (
	TaskReadMessage   = "readmsg"
	TaskResendMessage = "resendmsg"
	TaskReport        = "report"
)

// Message is the wire envelope. Exactly one payload field is set, matching
// Type.
type Message struct {
	Type      string            `json:"type"`
	Register  *RegisterPayload  `json:"register,omitempty"`
	Heartbeat *HeartbeatPayload `json:"heartbeat,omitempty"`
	Status    *StatusPayload    `json:"status,omitempty"`
	Inbox     *InboxPayload     `json:"inbox,omitempty"`
	Report    *ReportPayload    `json:"report,omitempty"`
	Job       *JobPayload       `json:"job,omitempty"`
	Signal    *SignalPayload    `json:"signal,omitempty"`
}

// RegisterPayload announces a pool process and the terminals it owns.
type RegisterPayload struct {
	Pool      string   `json:"pool"`
	Group     string   `json:"group,omitempty"`
	Terminals []string `json:"terminals"` // IMSIs
}

// HeartbeatPayload is a liveness ping from a pool process.
type HeartbeatPayload struct {
	Pool string `json:"pool"`
}

// StatusPayload reports the outcome of a previously delivered job.
type StatusPayload struct {
	Pool   string `json:"pool"`
	Hash   string `json:"hash"`
	Status Status `json:"status"`
	Code   string `json:"code,omitempty"`
}

// InboxPayload carries an inbound SMS received by a terminal.
type InboxPayload struct {
	Pool    string `json:"pool"`
	IMSI    string `json:"imsi"`
	Address string `json:"address"`
	Data    string `json:"data"`
}

// ReportPayload carries a delivery report from the network. Hash references
// the original outbound command.
type ReportPayload struct {
	Pool    string `json:"pool"`
	Hash    string `json:"hash"`
	Address string `json:"address"`
	Code    string `json:"code"`
}

// JobPayload delivers a queued command to the terminal that owns it.
type JobPayload struct {
	Hash    string `json:"hash"`
	IMSI    string `json:"imsi"`
	Type    int    `json:"activity"`
	Address string `json:"address"`
	Data    string `json:"data,omitempty"`
}

// SignalPayload is a fire-and-forget broadcast control signal.
type SignalPayload struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

// SignalForTask maps a task operation name to its broadcast signal.
// Returns "" for unknown operations.
func SignalForTask(op string) string {
	switch op {
	case TaskReadMessage:
		return SignalCheckMessage
	case TaskResendMessage:
		return SignalResendMessage
	case TaskReport:
		return SignalCheckReport
	default:
		return ""
	}
}
