package store

import (
	"context"
	"sync/atomic"

	"jobscout/internal/model"
)

// NopStore is a Store that persists nothing. Used for dry runs: every job
// classifies as new and gets a synthetic id, and nothing survives the process.
type NopStore struct {
	nextID atomic.Int64
}

var _ model.Store = (*NopStore)(nil)

func NewNopStore() *NopStore {
	return &NopStore{}
}

func (s *NopStore) GetSourceByName(_ context.Context, name string) (*model.Source, error) {
	return &model.Source{ID: 1, Name: name, Active: true}, nil
}

func (s *NopStore) InsertSource(_ context.Context, _, _ string, _ *string) (int64, error) {
	return 1, nil
}

func (s *NopStore) TouchSource(_ context.Context, _ int64) error { return nil }

func (s *NopStore) InsertJobIfNew(_ context.Context, _ model.Job) (int64, error) {
	return s.nextID.Add(1), nil
}

func (s *NopStore) JobExistsByFingerprint(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *NopStore) RecentActiveJobs(_ context.Context, _ int) ([]model.Job, error) {
	return nil, nil
}

func (s *NopStore) RecordNotification(_ context.Context, _ int64, _ string) error {
	return nil
}
