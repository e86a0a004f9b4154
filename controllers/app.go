package controllers

import (
	"context"

	"BlenderChat/models"
	svc "BlenderChat/pkg/services"
)

// ActivityRecorder is the persistence hook as the HTTP layer sees it.
type ActivityRecorder interface {
	Configured() bool
	Record(ctx context.Context) (models.ActivityRecord, error)
}

// App carries the process wide state every handler needs. It is built once
// in main and shared by reference.
type App struct {
	Model    svc.Generator
	Activity ActivityRecorder
}

// modelInfo is implemented by *services.ChatModel.
type modelInfo interface {
	Name() string
	MaxLength() int
}
