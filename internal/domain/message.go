// File: internal/domain/message.go
package domain

import (
    "fmt"
    "strings"
    "time"
)

// Role identifies who authored a message.
type Role string

const (
    RoleSystem    Role = "system"
    RoleUser      Role = "user"
    RoleAssistant Role = "assistant"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
    switch r {
    case RoleSystem, RoleUser, RoleAssistant:
        return true
    }
    return false
}

// Label is the display name shown next to a message.
func (r Role) Label() string {
    switch r {
    case RoleUser:
        return "You"
    case RoleAssistant:
        return "Assistant"
    default:
        return "System"
    }
}

// ParseRole converts a stored or user-supplied sender into a Role.
func ParseRole(s string) (Role, error) {
    r := Role(strings.ToLower(strings.TrimSpace(s)))
    if !r.Valid() {
        return "", fmt.Errorf("unknown sender role %q", s)
    }
    return r, nil
}

// Message represents a single turn within a conversation.
// Content is stored raw, exactly as produced by the user or the model.
type Message struct {
    ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
    ConversationID uint      `json:"conversation_id" gorm:"not null;index:idx_messages_order,priority:1"`
    Sender         Role      `json:"sender" gorm:"type:text;not null"`
    Content        string    `json:"content" gorm:"type:text;not null"`
    Timestamp      time.Time `json:"timestamp" gorm:"not null;index:idx_messages_order,priority:2"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
