package models

import "time"

// AdminLogEntry запись журнала привилегированных действий.
// Журнал только дописывается, обновления и удаления не предусмотрены.
type AdminLogEntry struct {
	ID        int64          `json:"id"`
	ActorUID  string         `json:"actor_id"`
	Action    string         `json:"action"`
	TargetUID *string        `json:"target_user_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Origin    string         `json:"origin,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
