package entity

import (
	"bytes"
	"encoding/json"

	"github.com/gogotex/appcatalog/internal/models"
)

// ChangeRecorder accumulates field changes between an original and updated
// entity into a ChangeDescription.
type ChangeRecorder struct {
	desc models.ChangeDescription
}

func NewChangeRecorder(previousVersion float64) *ChangeRecorder {
	return &ChangeRecorder{desc: models.ChangeDescription{PreviousVersion: previousVersion}}
}

// RecordChange records field as added, deleted or updated and reports whether
// a change was recorded. Values are compared by their JSON encoding so that
// structurally equal opaque blobs are not reported as changed.
func (c *ChangeRecorder) RecordChange(field string, orig, updated any) bool {
	origNil, updNil := isNil(orig), isNil(updated)
	switch {
	case origNil && updNil:
		return false
	case origNil:
		c.desc.FieldsAdded = append(c.desc.FieldsAdded, models.FieldChange{Name: field, NewValue: updated})
		return true
	case updNil:
		c.desc.FieldsDeleted = append(c.desc.FieldsDeleted, models.FieldChange{Name: field, OldValue: orig})
		return true
	}
	if sameJSON(orig, updated) {
		return false
	}
	c.desc.FieldsUpdated = append(c.desc.FieldsUpdated, models.FieldChange{Name: field, OldValue: orig, NewValue: updated})
	return true
}

func (c *ChangeRecorder) Changed() bool {
	return len(c.desc.FieldsAdded)+len(c.desc.FieldsUpdated)+len(c.desc.FieldsDeleted) > 0
}

func (c *ChangeRecorder) Description() *models.ChangeDescription {
	d := c.desc
	return &d
}

// NextVersion returns the version after previous when changes were recorded.
func (c *ChangeRecorder) NextVersion() float64 {
	if !c.Changed() {
		return c.desc.PreviousVersion
	}
	// one decimal place, matching the 0.1 minor version step
	return float64(int(c.desc.PreviousVersion*10+1.5)) / 10
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return bytes.Equal(b, []byte("null"))
}

func sameJSON(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
