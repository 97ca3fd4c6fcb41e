package apps

import (
	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
)

// AppUpdater compares two versions of one application.
type AppUpdater struct {
	*entity.ChangeRecorder
	original  *models.App
	updated   *models.App
	operation entity.Operation
}

func NewAppUpdater(original, updated *models.App, op entity.Operation) *AppUpdater {
	return &AppUpdater{
		ChangeRecorder: entity.NewChangeRecorder(original.Version),
		original:       original,
		updated:        updated,
		operation:      op,
	}
}

// ApplyEntitySpecificChanges records changes to the configuration and the
// schedule. Other fields are handled by the shared update flow.
func (u *AppUpdater) ApplyEntitySpecificChanges() error {
	u.RecordChange("appConfiguration", u.original.AppConfiguration, u.updated.AppConfiguration)
	u.RecordChange("appSchedule", u.original.AppSchedule, u.updated.AppSchedule)
	return nil
}

func (u *AppUpdater) Operation() entity.Operation { return u.operation }
