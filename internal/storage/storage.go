package storage

import (
	"context"
	"errors"

	"forgedex/internal/model"
)

// Storage defines a sink for price snapshots.
type Storage interface {
	PutSnapshot(ctx context.Context, snapshot model.Snapshot) error
}

// Multi writes every snapshot to each sink in order and joins their errors.
type Multi []Storage

func (m Multi) PutSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.PutSnapshot(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
