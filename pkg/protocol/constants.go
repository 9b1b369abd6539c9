package protocol

// Directory and path constants used throughout the gateway.
const (
	// GwDir is the user-level state directory (e.g., ~/.smsgw).
	GwDir = ".smsgw"

	// StateDBName is the SQLite state database file name.
	StateDBName = "gateway.db"

	// SocketName is the pool-process UDS socket file name.
	SocketName = "gateway.sock"

	// ActivityLogName is the plain-text operational log file name.
	ActivityLogName = "activity.log"
)
