package value_objects

import "strings"

// TaskType categorizes what kind of work a todo represents.
type TaskType string

const (
	TaskTypeBug      TaskType = "bug"
	TaskTypeFeature  TaskType = "feature"
	TaskTypeMeeting  TaskType = "meeting"
	TaskTypeReview   TaskType = "review"
	TaskTypeDeadline TaskType = "deadline"
	TaskTypeUrgent   TaskType = "urgent"
	TaskTypeGeneral  TaskType = "general"
)

var taskTypes = map[TaskType]struct{}{
	TaskTypeBug:      {},
	TaskTypeFeature:  {},
	TaskTypeMeeting:  {},
	TaskTypeReview:   {},
	TaskTypeDeadline: {},
	TaskTypeUrgent:   {},
	TaskTypeGeneral:  {},
}

// ParseTaskType creates a TaskType from a string. Unknown values fall back
// to general rather than failing, so unexpected classifier output never
// blocks a candidate.
func ParseTaskType(s string) TaskType {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := taskTypes[t]; ok {
		return t
	}
	return TaskTypeGeneral
}

// String returns the string representation of the task type.
func (t TaskType) String() string {
	return string(t)
}

// IsValid returns true if the task type is a known value.
func (t TaskType) IsValid() bool {
	_, ok := taskTypes[t]
	return ok
}
