// Package models содержит доменные структуры сервиса: пользователи,
// решения, сообщения, уведомления и записи административного журнала.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// SuspensionState описывает состояние блокировки учётной записи.
// Until == nil означает бессрочную блокировку.
type SuspensionState struct {
	IsSuspended bool       `json:"is_suspended"`
	Reason      string     `json:"reason,omitempty"`
	Until       *time.Time `json:"until,omitempty"`
}

// Active сообщает, действует ли блокировка в момент now.
func (s SuspensionState) Active(now time.Time) bool {
	if !s.IsSuspended {
		return false
	}
	if s.Until == nil {
		return true
	}
	return s.Until.After(now)
}

// UserStats агрегированная статистика пользователя.
type UserStats struct {
	TotalDecisions       int `json:"total_decisions"`
	ImplementedDecisions int `json:"implemented_decisions"`
	SuccessRate          int `json:"success_rate"`
	Followers            int `json:"followers"`
	Following            int `json:"following"`
}

// SubscriptionState состояние подписки и дневной квоты AI-запросов.
type SubscriptionState struct {
	IsPremium          bool       `json:"is_premium"`
	DailyQueries       int        `json:"daily_queries"`
	QueriesUsedToday   int        `json:"queries_used_today"`
	LastQueryDate      *time.Time `json:"last_query_date,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	PasswordHash string            `json:"-"`
	Avatar       string            `json:"avatar"`
	IsAdmin      bool              `json:"-"`
	CreatedAt    time.Time         `json:"created_at"`
	Suspension   SuspensionState   `json:"-"`
	Stats        UserStats         `json:"stats"`
	Subscription SubscriptionState `json:"-"`
}

// UserSummary сокращённое представление пользователя для выдачи наружу
// (поиск, списки подписчиков, сведения об авторе решения).
type UserSummary struct {
	UID      string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// Summary возвращает публичное представление пользователя.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UID:      u.UID,
		Username: u.Username,
		Name:     u.Name,
		Avatar:   u.Avatar,
	}
}
