package store

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Change assigns Value to the attribute at Path. Nested attributes use
// dotted paths ("task_object.task_name").
type Change struct {
	Path  string
	Value any
}

// Changes is an ordered set of assignments applied by one UpdateItem call.
type Changes []Change

// Set appends an assignment.
func (c Changes) Set(path string, value any) Changes {
	return append(c, Change{Path: path, Value: value})
}

// Empty reports whether there is nothing to update.
func (c Changes) Empty() bool {
	return len(c) == 0
}

// builder renders the changes as a SET update. Callers must not pass empty Changes.
func (c Changes) builder() expression.UpdateBuilder {
	var ub expression.UpdateBuilder
	for _, ch := range c {
		ub = ub.Set(expression.Name(ch.Path), expression.Value(ch.Value))
	}
	return ub
}

// projectionOf builds a projection over top-level attribute names.
func projectionOf(attrs []string) (expression.ProjectionBuilder, bool) {
	if len(attrs) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	names := make([]expression.NameBuilder, 0, len(attrs)-1)
	for _, a := range attrs[1:] {
		names = append(names, expression.Name(a))
	}
	return expression.NamesList(expression.Name(attrs[0]), names...), true
}
