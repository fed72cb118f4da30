package classcharts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/chartsbridge/internal/domain"
	"github.com/chartsbridge/internal/metrics"
)

// lessonItem mirrors one element of the timetable list.
type lessonItem struct {
	LessonID    *int    `json:"lesson_id"`
	LessonName  *string `json:"lesson_name"`
	SubjectName *string `json:"subject_name"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	TeacherName *string `json:"teacher_name"`
	RoomName    *string `json:"room_name"`
}

func (it *lessonItem) toLesson() (domain.Lesson, bool) {
	if it.LessonID == nil || it.LessonName == nil || it.SubjectName == nil ||
		it.StartTime == nil || it.EndTime == nil || it.TeacherName == nil || it.RoomName == nil {
		return domain.Lesson{}, false
	}
	return domain.Lesson{
		ID:          *it.LessonID,
		Title:       *it.LessonName,
		Subject:     *it.SubjectName,
		StartTime:   *it.StartTime,
		EndTime:     *it.EndTime,
		TeacherName: *it.TeacherName,
		RoomName:    *it.RoomName,
		PeriodLabel: domain.PeriodLabel(*it.StartTime),
	}, true
}

// Timetable fetches the pupil's lessons for a calendar date. The same
// partial-success policy as Homework applies: malformed items are dropped and
// counted rather than failing the fetch.
func (c *Client) Timetable(ctx context.Context, date time.Time) ([]domain.Lesson, int, error) {
	c.mu.Lock()
	userID := c.session.UserID
	c.mu.Unlock()
	if userID == 0 {
		return nil, 0, ErrNoSession
	}

	query := url.Values{"date": {date.Format(dateFormat)}}
	data, err := c.fetchData(ctx, "/timetable/"+strconv.Itoa(userID), query)
	if err != nil {
		return nil, 0, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("parse timetable list: %w", ErrInvalidResponse)
	}

	lessons := make([]domain.Lesson, 0, len(items))
	dropped := 0
	for _, raw := range items {
		var item lessonItem
		if err := json.Unmarshal(raw, &item); err != nil {
			dropped++
			continue
		}
		lesson, ok := item.toLesson()
		if !ok {
			dropped++
			continue
		}
		lessons = append(lessons, lesson)
	}

	if dropped > 0 {
		metrics.DroppedItems.WithLabelValues("timetable").Add(float64(dropped))
		c.logger.Warn("dropped malformed timetable items", "dropped", dropped, "kept", len(lessons))
	}
	return lessons, dropped, nil
}
