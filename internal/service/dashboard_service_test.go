package service

import (
	"context"
	"testing"

	"writerid-portal/internal/dto"

	"github.com/google/uuid"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	ds := f.completedDataset(t, owner)
	f.dataset(t, owner, "second")
	f.dataset(t, uuid.New(), "someone else's")
	if _, err := f.models.Create(ctx, owner, &dto.CreateModelRequest{Name: "m", TrainingDatasetID: ds.ID.String()}); err != nil {
		t.Fatalf("create model: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID)); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	deferred := taskRequest(ds.ID)
	deferred.DeferExecution = true
	if _, err := f.tasks.CreateTask(ctx, owner, deferred); err != nil {
		t.Fatalf("create deferred task: %v", err)
	}

	stats, err := f.dashboard.Stats(ctx, owner)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := dto.DashboardStats{TotalTasks: 3, CompletedTasks: 2, TotalDatasets: 2, TotalModels: 1}
	if *stats != want {
		t.Fatalf("stats = %+v, want %+v", *stats, want)
	}

	empty, err := f.dashboard.Stats(ctx, uuid.New())
	if err != nil || *empty != (dto.DashboardStats{}) {
		t.Fatalf("empty stats = %+v %v", empty, err)
	}
}
