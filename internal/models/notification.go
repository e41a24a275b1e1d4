package models

import "time"

// Типы уведомлений, порождаемые доменными событиями.
const (
	NotificationMessage = "message"
	NotificationFollow  = "follow"
)

// Notification персистентная запись уведомления. Доставка через
// realtime-канал опциональна, запись создаётся всегда.
type Notification struct {
	UID       string         `json:"id"`
	UserUID   string         `json:"user_id"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
