package environment

import (
	"github.com/turtacn/chemenv/pkg/types/common"
)

// Event types.
const (
	EventEnvironmentCreated = "environment.created"
	EventEnvironmentMutated = "environment.mutated"
	EventEnvironmentDeleted = "environment.deleted"
)

type EnvironmentCreatedEvent struct {
	common.BaseEvent
	SMIRKS   string `json:"smirks"`
	Category string `json:"category"`
	Version  int64  `json:"version"`
}

func NewEnvironmentCreatedEvent(e *Environment) *EnvironmentCreatedEvent {
	return &EnvironmentCreatedEvent{
		BaseEvent: common.NewBaseEvent(EventEnvironmentCreated, e.ID.String()),
		SMIRKS:    e.SMIRKS,
		Category:  e.Category.String(),
		Version:   e.Version,
	}
}

type EnvironmentMutatedEvent struct {
	common.BaseEvent
	Operation string `json:"operation"`
	SMIRKS    string `json:"smirks"`
	Category  string `json:"category"`
	Version   int64  `json:"version"`
}

func NewEnvironmentMutatedEvent(e *Environment, op string) *EnvironmentMutatedEvent {
	return &EnvironmentMutatedEvent{
		BaseEvent: common.NewBaseEvent(EventEnvironmentMutated, e.ID.String()),
		Operation: op,
		SMIRKS:    e.SMIRKS,
		Category:  e.Category.String(),
		Version:   e.Version,
	}
}

type EnvironmentDeletedEvent struct {
	common.BaseEvent
	Version int64 `json:"version"`
}

func NewEnvironmentDeletedEvent(e *Environment) *EnvironmentDeletedEvent {
	return &EnvironmentDeletedEvent{
		BaseEvent: common.NewBaseEvent(EventEnvironmentDeleted, e.ID.String()),
		Version:   e.Version,
	}
}

//Personal.AI order the ending
