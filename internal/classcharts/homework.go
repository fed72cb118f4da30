package classcharts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chartsbridge/internal/domain"
	"github.com/chartsbridge/internal/metrics"
)

// dateFormat is the yyyy-mm-dd form used for due dates and timetable queries.
const dateFormat = "2006-01-02"

// homeworkItem mirrors one element of the homework list. Fields are pointers
// so a missing field is distinguishable from a zero value; the task id lives
// under status, not at the top level.
type homeworkItem struct {
	Title       *string `json:"title"`
	Subject     *string `json:"subject"`
	DueDate     *string `json:"due_date"`
	Description *string `json:"description"`
	Status      struct {
		ID     *int    `json:"id"`
		Ticked *string `json:"ticked"`
	} `json:"status"`
}

func (it *homeworkItem) toTask() (domain.HomeworkTask, bool) {
	if it.Title == nil || it.Subject == nil || it.DueDate == nil ||
		it.Description == nil || it.Status.ID == nil || it.Status.Ticked == nil {
		return domain.HomeworkTask{}, false
	}
	due, err := time.Parse(dateFormat, *it.DueDate)
	if err != nil {
		return domain.HomeworkTask{}, false
	}
	return domain.HomeworkTask{
		ID:          *it.Status.ID,
		Title:       *it.Title,
		Subject:     *it.Subject,
		DueDate:     due,
		Description: *it.Description,
		Completed:   *it.Status.Ticked == "yes",
	}, true
}

// Homework fetches the pupil's homework list. Malformed items are dropped
// rather than failing the whole fetch; the second return value counts them so
// callers can surface partial loss.
func (c *Client) Homework(ctx context.Context) ([]domain.HomeworkTask, int, error) {
	data, err := c.fetchData(ctx, "/homeworks", nil)
	if err != nil {
		return nil, 0, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("parse homework list: %w", ErrInvalidResponse)
	}

	tasks := make([]domain.HomeworkTask, 0, len(items))
	dropped := 0
	for _, raw := range items {
		var item homeworkItem
		if err := json.Unmarshal(raw, &item); err != nil {
			dropped++
			continue
		}
		task, ok := item.toTask()
		if !ok {
			dropped++
			continue
		}
		tasks = append(tasks, task)
	}

	if dropped > 0 {
		metrics.DroppedItems.WithLabelValues("homeworks").Add(float64(dropped))
		c.logger.Warn("dropped malformed homework items", "dropped", dropped, "kept", len(tasks))
	}
	return tasks, dropped, nil
}

// SetHomeworkTicked flips a homework task's completion state. The request
// encodes the target state (the complement of completed); the backend does
// not confirm the new state in its body, so HTTP 200 means the flip took and
// the returned bool is the target state.
func (c *Client) SetHomeworkTicked(ctx context.Context, homeworkID int, completed bool) (bool, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return completed, err
	}

	c.mu.Lock()
	userID := c.session.UserID
	c.mu.Unlock()
	if userID == 0 {
		return completed, ErrNoSession
	}

	target := !completed
	value := "no"
	if target {
		value = "yes"
	}
	query := url.Values{
		"pupil_id": {strconv.Itoa(userID)},
		"value":    {value},
	}

	status, _, err := c.get(ctx, "/homeworkticked/"+strconv.Itoa(homeworkID), query)
	if err != nil {
		return completed, err
	}
	if status != http.StatusOK {
		return completed, &ServerError{StatusCode: status}
	}
	return target, nil
}
