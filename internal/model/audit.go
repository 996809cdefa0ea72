package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction tags an audit log entry. The set below is closed for
// writers; readers must treat values outside it as displayable rather
// than rejecting them.
type AuditAction string

const (
	AuditLogin          AuditAction = "LOGIN"
	AuditLoginFailed    AuditAction = "LOGIN_FAILED"
	AuditLogout         AuditAction = "LOGOUT"
	AuditCreate         AuditAction = "CREATE"
	AuditCreateFailed   AuditAction = "CREATE_FAILED"
	AuditRead           AuditAction = "READ"
	AuditReadFailed     AuditAction = "READ_FAILED"
	AuditUpdate         AuditAction = "UPDATE"
	AuditUpdateFailed   AuditAction = "UPDATE_FAILED"
	AuditDelete         AuditAction = "DELETE"
	AuditDeleteFailed   AuditAction = "DELETE_FAILED"
	AuditSchedule       AuditAction = "SCHEDULE"
	AuditScheduleFailed AuditAction = "SCHEDULE_FAILED"
	AuditAccessDenied   AuditAction = "ACCESS_DENIED"
	AuditBackupCreate   AuditAction = "BACKUP_CREATE"
	AuditBackupDownload AuditAction = "BACKUP_DOWNLOAD"
	AuditBackupFailed   AuditAction = "BACKUP_FAILED"
)

var knownActions = map[AuditAction]bool{
	AuditLogin: true, AuditLoginFailed: true, AuditLogout: true,
	AuditCreate: true, AuditCreateFailed: true,
	AuditRead: true, AuditReadFailed: true,
	AuditUpdate: true, AuditUpdateFailed: true,
	AuditDelete: true, AuditDeleteFailed: true,
	AuditSchedule: true, AuditScheduleFailed: true,
	AuditAccessDenied: true,
	AuditBackupCreate: true, AuditBackupDownload: true, AuditBackupFailed: true,
}

// Known reports whether the action belongs to the fixed vocabulary.
func (a AuditAction) Known() bool {
	return knownActions[a]
}

// Display returns the action string for rendering. Unknown actions
// come back as-is so old logs survive vocabulary changes.
func (a AuditAction) Display() string {
	if a == "" {
		return "UNKNOWN"
	}
	return string(a)
}

// AuditLogEntry is append-only. UserID is uuid.Nil for actions taken
// before authentication (failed logins, denied access).
type AuditLogEntry struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	UserID      uuid.UUID   `db:"user_id" json:"user_id"`
	Username    string      `db:"username" json:"username"`
	Action      AuditAction `db:"action" json:"action"`
	Description string      `db:"description" json:"description"`
	IPAddress   string      `db:"ip_address" json:"ip_address"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// AuditPageSize is the fixed page size for audit log listings.
const AuditPageSize = 50

type AuditPage struct {
	Entries    []*AuditLogEntry `json:"entries"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
}
