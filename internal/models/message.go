package models

import "time"

// Message личное сообщение между двумя пользователями.
type Message struct {
	UID          string    `json:"id"`
	SenderUID    string    `json:"sender_id"`
	RecipientUID string    `json:"recipient_id"`
	Content      string    `json:"content"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// Conversation сводка переписки с одним собеседником.
type Conversation struct {
	User        UserSummary `json:"user"`
	LastMessage string      `json:"last_message"`
	Time        time.Time   `json:"time"`
	Unread      int         `json:"unread"`
}

// Follow направленное ребро подписки между пользователями.
type Follow struct {
	FollowerUID  string    `json:"follower_id"`
	FollowingUID string    `json:"following_id"`
	CreatedAt    time.Time `json:"created_at"`
}
