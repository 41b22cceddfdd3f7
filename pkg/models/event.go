package models

import "time"

// FunnelEvent records one step a session landed on.
type FunnelEvent struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	StepNumber int       `json:"step_number"`
	StepName   string    `json:"step_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventRequest represents a step event posted by headless clients.
type EventRequest struct {
	SessionID  string `json:"session_id" binding:"required,max=64"`
	StepNumber int    `json:"step_number" binding:"required,min=1,max=8"`
	StepName   string `json:"step_name" binding:"max=64"`
}
