package models

import "time"

// ScheduleType selects how an application's job is triggered.
type ScheduleType string

const (
	ScheduleHourly  ScheduleType = "Hourly"
	ScheduleDaily   ScheduleType = "Daily"
	ScheduleWeekly  ScheduleType = "Weekly"
	ScheduleMonthly ScheduleType = "Monthly"
	ScheduleCustom  ScheduleType = "Custom"
)

type AppSchedule struct {
	ScheduleType   ScheduleType `bson:"scheduleType" json:"scheduleType"`
	CronExpression string       `bson:"cronExpression,omitempty" json:"cronExpression,omitempty"`
}

// App is an installed application. Bot and Owner are relationship fields: they
// are persisted as edges, not inside the stored document.
type App struct {
	ID                string             `bson:"_id" json:"id"`
	Name              string             `bson:"name" json:"name"`
	DisplayName       string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Owner             *EntityReference   `bson:"owner,omitempty" json:"owner,omitempty"`
	Bot               *EntityReference   `bson:"bot,omitempty" json:"bot,omitempty"`
	AppConfiguration  map[string]any     `bson:"appConfiguration,omitempty" json:"appConfiguration,omitempty"`
	AppSchedule       *AppSchedule       `bson:"appSchedule,omitempty" json:"appSchedule,omitempty"`
	Pipelines         []EntityReference  `bson:"-" json:"pipelines,omitempty"`
	Version           float64            `bson:"version" json:"version"`
	ChangeDescription *ChangeDescription `bson:"changeDescription,omitempty" json:"changeDescription,omitempty"`
	UpdatedBy         string             `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
	Deleted           bool               `bson:"deleted" json:"deleted"`
}

func (a *App) Reference() *EntityReference {
	return &EntityReference{ID: a.ID, Type: KindApplication, Name: a.Name, FullyQualifiedName: a.Name, Deleted: a.Deleted}
}

// RunStatus is the outcome of one application run.
type RunStatus string

const (
	RunStatusStarted   RunStatus = "started"
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCompleted RunStatus = "completed"
)

// AppRunRecord is an immutable record of one execution of an application job.
// Times are unix milliseconds.
type AppRunRecord struct {
	AppID          string         `json:"appId"`
	AppName        string         `json:"appName,omitempty"`
	Status         RunStatus      `json:"status"`
	RunType        string         `json:"runType,omitempty"`
	StartTime      int64          `json:"startTime"`
	EndTime        int64          `json:"endTime,omitempty"`
	ExecutionTime  int64          `json:"executionTime,omitempty"`
	Timestamp      int64          `json:"timestamp"`
	SuccessContext map[string]any `json:"successContext,omitempty"`
	FailureContext map[string]any `json:"failureContext,omitempty"`
	ScheduleInfo   *AppSchedule   `json:"scheduleInfo,omitempty"`
}
