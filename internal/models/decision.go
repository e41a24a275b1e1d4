package models

import "time"

// Состояния жизненного цикла решения. Переходы:
// created -> rolled -> resolved. Повторный бросок из rolled разрешён
// политикой AllowReroll.
const (
	DecisionStateCreated  = "created"
	DecisionStateRolled   = "rolled"
	DecisionStateResolved = "resolved"
)

// Уровни видимости решения.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// VoteStats агрегированные счётчики голосов по решению.
type VoteStats struct {
	Helpful   int `json:"helpful"`
	Unhelpful int `json:"unhelpful"`
	Total     int `json:"total"`
}

// Decision нерешительность пользователя с четырьмя альтернативами
// и результатом броска кубика.
type Decision struct {
	UID            string     `json:"id"`
	UserUID        string     `json:"user_id"`
	Text           string     `json:"text"`
	Alternatives   []string   `json:"alternatives"`
	State          string     `json:"state"`
	Visibility     string     `json:"visibility"`
	DiceResult     *int       `json:"dice_result"`
	SelectedOption *string    `json:"selected_option"`
	Implemented    *bool      `json:"implemented"`
	Votes          VoteStats  `json:"vote_stats"`
	CreatedAt      time.Time  `json:"created_at"`
	RolledAt       *time.Time `json:"rolled_at,omitempty"`
	ImplementedAt  *time.Time `json:"implemented_at,omitempty"`
}

// PublicDecision элемент публичной ленты: решение с кратким автором.
type PublicDecision struct {
	UID            string      `json:"id"`
	Text           string      `json:"text"`
	SelectedOption *string     `json:"selected_option"`
	Implemented    *bool       `json:"implemented"`
	CreatedAt      time.Time   `json:"created_at"`
	User           UserSummary `json:"user"`
}

// Comment комментарий к публичному решению.
type Comment struct {
	UID         string    `json:"id"`
	DecisionUID string    `json:"decision_id"`
	UserUID     string    `json:"user_id"`
	Username    string    `json:"username"`
	UserAvatar  string    `json:"user_avatar"`
	Content     string    `json:"content"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Типы голосов за решение.
const (
	VoteHelpful   = "helpful"
	VoteUnhelpful = "unhelpful"
)
