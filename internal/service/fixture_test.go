package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/queue"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/storage"
	"writerid-portal/internal/testutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const pngPixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type fakePredictor struct {
	mu     sync.Mutex
	calls  []uuid.UUID
	result *payload.PredictionResult
	err    error
	// during runs while the executor holds the task.
	during func(taskID uuid.UUID)
}

func (f *fakePredictor) Predict(ctx context.Context, taskID uuid.UUID) (*payload.PredictionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, taskID)
	if f.during != nil {
		f.during(taskID)
	}
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.TaskID = taskID.String()
	return &res, nil
}

type fixture struct {
	uow       *repository.UnitOfWork
	store     *storage.MemoryStore
	sender    *queue.MemorySender
	predictor *fakePredictor
	logs      *logtest.Hook
	datasets  *DatasetService
	models    *ModelService
	tasks     *TaskService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logs := logtest.NewLocal(logger)

	f := &fixture{
		uow:    repository.NewUnitOfWork(testutil.NewTestDB(t)),
		store:  storage.NewMemoryStore("samples/", time.Hour),
		sender: queue.NewMemorySender(),
		logs:   logs,
		predictor: &fakePredictor{result: &payload.PredictionResult{
			QueryImage: models.QueryImageFileName,
			Prediction: payload.Prediction{WriterID: "w1", Confidence: 0.91},
		}},
	}
	f.datasets = NewDatasetService(f.uow, f.store, f.sender, logger)
	f.models = NewModelService(f.uow, f.store, f.sender, logger)
	f.tasks = NewTaskService(f.uow, f.store, f.sender, f.predictor, logger)
	f.dashboard = NewDashboardService(f.uow)
	return f
}

func (f *fixture) dataset(t *testing.T, owner uuid.UUID, name string) *models.Dataset {
	t.Helper()
	ds, _, err := f.datasets.Create(context.Background(), owner, &dto.CreateDatasetRequest{Name: name})
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	return ds
}

// completedDataset runs a dataset through analysis with two writers.
func (f *fixture) completedDataset(t *testing.T, owner uuid.UUID) *models.Dataset {
	t.Helper()
	ctx := context.Background()
	ds := f.dataset(t, owner, "letters")
	if _, err := f.datasets.Analyze(ctx, owner, ds.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	ds, err := f.datasets.UpdateDatasetStatus(ctx, &dto.StatusUpdateRequest{
		ID:      ds.ID.String(),
		Status:  "completed",
		Results: []byte(`{"num_writers":2,"writer_names":["w1","w2"],"min_samples":3,"max_samples":4,"writer_counts":{"w1":4,"w2":3}}`),
	})
	if err != nil {
		t.Fatalf("complete dataset: %v", err)
	}
	return ds
}

func (f *fixture) messages(t *testing.T) []queue.Message {
	t.Helper()
	msgs, err := f.sender.Messages()
	if err != nil {
		t.Fatalf("decode sent messages: %v", err)
	}
	return msgs
}
