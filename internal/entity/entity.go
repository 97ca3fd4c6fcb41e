// Package entity holds the behavior shared by every catalog entity kind: the
// per-kind lifecycle hooks, field selection, change recording and the typed
// kind registry used to resolve references.
package entity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
)

// Operation identifies the kind of write that produced an update.
type Operation string

const (
	OperationPut        Operation = "PUT"
	OperationPatch      Operation = "PATCH"
	OperationSoftDelete Operation = "SOFT_DELETE"
)

// Handler is the set of hooks a kind implements so the generic create, update
// and delete flows can persist it.
type Handler[T any] interface {
	PopulateFields(ctx context.Context, e T, fields Fields) (T, error)
	Prepare(ctx context.Context, e T, update bool) error
	Store(ctx context.Context, e T, update bool) error
	StoreRelationships(ctx context.Context, e T) error
	OnDelete(ctx context.Context, e T) error
	Updater(original, updated T, op Operation) Updater
}

// Updater computes the change set between two versions of an entity.
type Updater interface {
	ApplyEntitySpecificChanges() error
}

// Fields is the set of optional fields a caller asked to have populated.
type Fields map[string]struct{}

// NewFields parses a comma separated field list such as "owner,pipelines".
func NewFields(list string) Fields {
	f := Fields{}
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			f[p] = struct{}{}
		}
	}
	return f
}

func (f Fields) Contains(name string) bool {
	_, ok := f[name]
	return ok
}

// Paging describes the window returned in a ResultList. Offset is nil for
// count-only queries.
type Paging struct {
	Offset *int `json:"offset,omitempty"`
	Total  int  `json:"total"`
}

type ResultList[T any] struct {
	Data   []T    `json:"data"`
	Paging Paging `json:"paging"`
}

func NewResultList[T any](data []T, offset *int, total int) ResultList[T] {
	if data == nil {
		data = []T{}
	}
	return ResultList[T]{Data: data, Paging: Paging{Offset: offset, Total: total}}
}
