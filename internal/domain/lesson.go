package domain

import (
	"time"
)

// Lesson is one timetable entry. Start and end times are ISO-8601 strings as
// returned by the backend; PeriodLabel is derived locally, not from the server.
type Lesson struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	TeacherName string `json:"teacher_name"`
	RoomName    string `json:"room_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	PeriodLabel string `json:"period_label,omitempty"`
}

// periodStarts maps lesson start clock times to period labels. The student
// timetable endpoint does not carry usable period names, so labels come from
// the school's published day structure.
var periodStarts = map[string]string{
	"08:45": "Registration",
	"09:00": "Period 1",
	"10:00": "Period 2",
	"11:00": "Break",
	"11:20": "Period 3",
	"12:20": "Period 4",
	"13:20": "Lunch",
	"14:00": "Period 5",
	"15:00": "Period 6",
}

// PeriodLabel returns the period label for an ISO-8601 lesson start time, or
// "" when the time does not match a known period start.
func PeriodLabel(startTime string) string {
	t, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return ""
	}
	return periodStarts[t.Format("15:04")]
}
