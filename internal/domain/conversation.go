// File: internal/domain/conversation.go
package domain

import "time"

// Conversation groups one ingested document (optional) with its ordered chat history.
type Conversation struct {
    ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
    Title       string    `json:"title" gorm:"type:text;not null"`
    FilePath    *string   `json:"file_path,omitempty" gorm:"column:file_path;type:text"`
    FileContent *string   `json:"-" gorm:"column:file_content;type:text"` // can be large, never listed
    CreatedAt   time.Time `json:"created_at" gorm:"not null;index"`

    // Messages are removed by the database when their conversation is deleted.
    Messages []Message `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// SourceText returns the stored document text or "" when none was stored.
func (c *Conversation) SourceText() string {
    if c == nil || c.FileContent == nil {
        return ""
    }
    return *c.FileContent
}

// SourceRef returns the originating document path or "" when none was stored.
func (c *Conversation) SourceRef() string {
    if c == nil || c.FilePath == nil {
        return ""
    }
    return *c.FilePath
}

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
    ID        uint      `json:"id"`
    Title     string    `json:"title"`
    CreatedAt time.Time `json:"created_at"`
}
