package tripapi

import (
	"context"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/jacentio/tripdb/planner"
)

// Messages returned by the task operations.
const (
	MsgTasksNotFound    = "Tasks not found"
	MsgTaskNotFound     = "Task not found"
	MsgTaskDeleted      = "Task deleted successfully"
	msgCreateTaskFailed = "Error creating task"
	msgUpdateTaskFailed = "Error updating task"
	msgDeleteTaskFailed = "Error deleting task"
)

// GetTasksForTrip lists the trip's tasks.
func (a *API) GetTasksForTrip(ctx context.Context, tripID string) Response {
	tasks, err := a.svc.TasksForTrip(ctx, tripID)
	if err != nil {
		return a.fail(failure{op: "getTasksForTrip", internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, tasks)
}

// GetTaskDetails returns the task's stored task_object.
func (a *API) GetTaskDetails(ctx context.Context, taskID string) Response {
	items, err := a.svc.TaskDetails(ctx, taskID)
	if err != nil {
		return a.fail(failure{op: "getTaskDetails", notFound: MsgTasksNotFound, internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, items)
}

// CreateTaskForTrip adds an incomplete task to the trip.
func (a *API) CreateTaskForTrip(ctx context.Context, tripID, taskName string) Response {
	created, err := a.svc.CreateTask(ctx, tripID, taskName)
	if err != nil {
		return a.fail(failure{op: "createTaskForTrip", internal: msgCreateTaskFailed}, err)
	}
	return jsonResponse(http.StatusCreated, created)
}

// UpdateTaskForTrip updates the supplied task fields.
func (a *API) UpdateTaskForTrip(ctx context.Context, taskID string, taskName, taskStatus nullable.Nullable[string]) Response {
	task, err := a.svc.UpdateTask(ctx, taskID, planner.TaskChanges{
		Name:   value(taskName),
		Status: value(taskStatus),
	})
	if err != nil {
		return a.fail(failure{op: "updateTaskForTrip", notFound: MsgTaskNotFound, internal: msgUpdateTaskFailed}, err)
	}
	return jsonResponse(http.StatusOK, task)
}

// DeleteTaskForTrip removes the task.
func (a *API) DeleteTaskForTrip(ctx context.Context, taskID string) Response {
	if err := a.svc.DeleteTask(ctx, taskID); err != nil {
		return a.fail(failure{op: "deleteTaskForTrip", internal: msgDeleteTaskFailed}, err)
	}
	return jsonResponse(http.StatusOK, message{Message: MsgTaskDeleted})
}
