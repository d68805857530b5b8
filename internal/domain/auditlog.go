package domain

import "time"

// ActorSystem is the actor recorded for transitions driven by background
// processing rather than an authenticated user.
const ActorSystem = "system"

// Audit action tags. One per state-changing operation.
const (
	ActionNotificationCreate = "notification.create"
	ActionNotificationUpdate = "notification.update"
	ActionNotificationSend   = "notification.send"
	ActionNotificationSent   = "notification.sent"
	ActionNotificationFailed = "notification.failed"
	ActionNotificationRead   = "notification.read"
)

// EntityNotification is the audit subject type for notification records.
const EntityNotification = "notification"

// AuditLogEntry is an immutable, append-only record of a state-changing
// action. Entries reference their subject by id only; the log outlives the
// entity because retention is mandated independently of entity lifecycle.
//
// AuditID is a ULID: lexicographic order equals append order, so range reads
// over the id return entries exactly as they were written. EntryHash chains
// each entry to its predecessor for the same subject, making after-the-fact
// edits to the log detectable.
type AuditLogEntry struct {
	AuditID    string    `json:"id" dynamodbav:"audit_id"`
	ActorID    string    `json:"actor_id" dynamodbav:"actor_id"`
	Action     string    `json:"action" dynamodbav:"action"`
	EntityType string    `json:"entity_type" dynamodbav:"entity_type"`
	EntityID   string    `json:"entity_id" dynamodbav:"entity_id"`
	EntityKey  string    `json:"-" dynamodbav:"entity_key"`
	Details    string    `json:"details,omitempty" dynamodbav:"details"`
	IPAddress  string    `json:"ip_address,omitempty" dynamodbav:"ip_address"`
	UserAgent  string    `json:"user_agent,omitempty" dynamodbav:"user_agent"`
	PrevHash   string    `json:"prev_hash,omitempty" dynamodbav:"prev_hash"`
	EntryHash  string    `json:"entry_hash" dynamodbav:"entry_hash"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// ClientMeta carries the caller-side request attributes recorded with every
// audit entry.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// AuditFilter narrows an audit trail read. Zero values mean "no constraint".
// Results always come back in append order.
type AuditFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	From       *time.Time
	To         *time.Time
	Limit      int
}
