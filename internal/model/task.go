package model

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusResolved   TaskStatus = "Resolved"
)

// ParseTaskStatus accepts the backend spelling plus the lower/snake variants
// the dashboards post ("in_progress", "in progress").
func ParseTaskStatus(s string) (TaskStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, "-", " ")
	switch key {
	case "pending":
		return StatusPending, true
	case "in progress", "inprogress":
		return StatusInProgress, true
	case "resolved":
		return StatusResolved, true
	}
	return "", false
}

// NextStatus is the only forward step allowed from s. ok is false for
// Resolved and for unknown statuses.
func NextStatus(s TaskStatus) (TaskStatus, bool) {
	switch s {
	case StatusPending:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusResolved, true
	default:
		return "", false
	}
}

type TicketRoom struct {
	RoomNumber string `json:"roomNumber"`
}

type TicketStudent struct {
	Username string `json:"username"`
}

type Ticket struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      TaskStatus    `json:"status"`
	Priority    string        `json:"priority"`
	Category    string        `json:"category"`
	Room        TicketRoom    `json:"room"`
	Student     TicketStudent `json:"student"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type TaskSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}
