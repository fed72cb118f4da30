package domain

import (
	"time"
)

// HomeworkTask is one homework item from the student's list. Title and
// Description may contain HTML markup; the gateway sanitizes them before
// returning them to a frontend. Completed is the only mutable field.
type HomeworkTask struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	DueDate     time.Time `json:"due_date"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
}

// Overdue returns true if the task is incomplete and its due date has passed.
func (t HomeworkTask) Overdue(now time.Time) bool {
	return !t.Completed && now.After(t.DueDate.Add(24*time.Hour))
}
