package planner

import (
	"context"
	"errors"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// Task is a task with its prefix-free id.
type Task struct {
	ID     string `json:"taskId"`
	Name   string `json:"taskName"`
	Status string `json:"taskStatus"`
}

// CreatedTask is returned by CreateTask.
type CreatedTask struct {
	TaskID string `json:"taskId"`
	TripID string `json:"tripId"`
	Name   string `json:"taskName"`
	Status string `json:"task_status"`
}

// TaskChanges holds the task fields to update. Nil fields are left as is.
type TaskChanges struct {
	Name   *string
	Status *string
}

func (c TaskChanges) changes() store.Changes {
	var ch store.Changes
	if c.Name != nil {
		ch = ch.Set(pathTaskName, *c.Name)
	}
	if c.Status != nil {
		ch = ch.Set(pathTaskStatus, *c.Status)
	}
	return ch
}

func taskFromItem(item store.Item) (Task, error) {
	var r taskRecord
	if err := item.Unmarshal(&r); err != nil {
		return Task{}, err
	}
	id, _ := keys.KindTask.Strip(r.PK)
	return Task{ID: id, Name: r.Task.Name, Status: r.Task.Status}, nil
}

// TasksForTrip lists the trip's tasks. No tasks is an empty list.
func (s *Service) TasksForTrip(ctx context.Context, tripID string) ([]Task, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return nil, err
	}

	items, err := s.tripChildren(ctx, tripID, keys.KindTask, keys.AttrPK, attrTaskObject)
	if err != nil {
		return nil, storeErr("getTasksForTrip", err)
	}

	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		t, err := taskFromItem(item)
		if err != nil {
			return nil, storeErr("getTasksForTrip", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// TaskDetails returns the task's raw task_object item(s).
func (s *Service) TaskDetails(ctx context.Context, taskID string) ([]map[string]any, error) {
	if err := validateID("taskId", keys.KindTask, taskID); err != nil {
		return nil, err
	}

	items, err := s.store.Query(ctx, keys.EntityQuery(keys.KindTask, taskID), attrTaskObject)
	if err != nil {
		return nil, storeErr("getTaskDetails", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return documents("getTaskDetails", items)
}

// CreateTask adds an incomplete task to the trip. The trip is not checked
// for existence.
func (s *Service) CreateTask(ctx context.Context, tripID, name string) (CreatedTask, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return CreatedTask{}, err
	}

	taskID := s.newID()
	l := keys.TaskLayout(taskID, tripID)
	rec := taskRecord{
		PK:   l.PK,
		SK:   l.SK,
		GSI1: l.GSI1,
		Task: TaskObject{Name: name, Status: TaskStatusIncomplete},
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return CreatedTask{}, storeErr("createTaskForTrip", err)
	}

	return CreatedTask{
		TaskID: taskID,
		TripID: tripID,
		Name:   name,
		Status: TaskStatusIncomplete,
	}, nil
}

// UpdateTask changes the given task fields and returns the task after the
// update. Without changes it returns the current task and writes nothing.
func (s *Service) UpdateTask(ctx context.Context, taskID string, c TaskChanges) (Task, error) {
	if err := validateID("taskId", keys.KindTask, taskID); err != nil {
		return Task{}, err
	}
	key := keys.EntityKey(keys.KindTask, taskID)

	var (
		item store.Item
		err  error
	)
	if changes := c.changes(); changes.Empty() {
		item, err = s.store.Get(ctx, key)
	} else {
		item, err = s.store.Update(ctx, key, changes)
	}
	if errors.Is(err, store.ErrNotFound) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, storeErr("updateTaskForTrip", err)
	}

	t, err := taskFromItem(item)
	if err != nil {
		return Task{}, storeErr("updateTaskForTrip", err)
	}
	return t, nil
}

// DeleteTask removes the task. Deleting an absent task succeeds.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if err := validateID("taskId", keys.KindTask, taskID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, keys.EntityKey(keys.KindTask, taskID)); err != nil {
		return storeErr("deleteTaskForTrip", err)
	}
	return nil
}
