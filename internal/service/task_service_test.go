package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/queue"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func taskRequest(datasetID uuid.UUID) *dto.CreateTaskRequest {
	return &dto.CreateTaskRequest{
		Name:            "who wrote this",
		DatasetID:       datasetID.String(),
		UseDefaultModel: true,
		SelectedWriters: []string{"w1", "w2"},
		QueryImage:      pngPixel,
	}
}

func TestCreateTaskCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)

	out, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !out.Success || out.Task.Status != models.StatusCompleted {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	task := out.Task
	if task.ContainerName != models.TaskContainerName(task.ID) {
		t.Fatalf("container = %q", task.ContainerName)
	}
	if task.QueryImagePath != task.ContainerName+"/"+models.QueryImageFileName {
		t.Fatalf("query image path = %q", task.QueryImagePath)
	}
	if objs := f.store.Objects(task.ContainerName); len(objs) != 1 || objs[0] != models.QueryImageFileName {
		t.Fatalf("container objects = %v", objs)
	}
	if len(f.predictor.calls) != 1 || f.predictor.calls[0] != task.ID {
		t.Fatalf("predictor calls = %v", f.predictor.calls)
	}

	res, err := f.tasks.GetTaskPredictionResults(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if !res.Available || res.Results.Prediction.WriterID != "w1" || res.Results.TaskID != task.ID.String() {
		t.Fatalf("unexpected results: %+v", res)
	}

	stored, err := f.tasks.Get(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.StatusCompleted || len(stored.SelectedWriters) != 2 {
		t.Fatalf("stored task: %+v", stored)
	}
}

func TestCreateTaskRecordsExecutorFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	f.predictor.err = errors.New("executor unavailable")

	out, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID))
	if err != nil {
		t.Fatalf("create should not fail: %v", err)
	}
	if out.Success || out.Task.Status != models.StatusFailed {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	stored, err := f.tasks.Get(ctx, owner, out.Task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.StatusFailed || stored.ErrorMessage != "executor unavailable" {
		t.Fatalf("stored task: status=%s msg=%q", stored.Status, stored.ErrorMessage)
	}
	res, err := f.tasks.GetTaskPredictionResults(ctx, owner, stored.ID)
	if err != nil || res.Available {
		t.Fatalf("failed task results: %+v %v", res, err)
	}
}

func TestCreateTaskRejectsInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	foreign := f.dataset(t, uuid.New(), "theirs")

	cases := []struct {
		name   string
		mutate func(r *dto.CreateTaskRequest)
		want   error
	}{
		{"bad image", func(r *dto.CreateTaskRequest) { r.QueryImage = "not an image" }, ErrValidation},
		{"no writers", func(r *dto.CreateTaskRequest) { r.SelectedWriters = []string{" "} }, ErrValidation},
		{"model without id", func(r *dto.CreateTaskRequest) { r.UseDefaultModel = false }, ErrValidation},
		{"default with id", func(r *dto.CreateTaskRequest) { r.ModelID = uuid.NewString() }, ErrValidation},
		{"missing dataset", func(r *dto.CreateTaskRequest) { r.DatasetID = uuid.NewString() }, ErrNotFound},
		{"foreign dataset", func(r *dto.CreateTaskRequest) { r.DatasetID = foreign.ID.String() }, ErrUnauthorized},
		{"missing model", func(r *dto.CreateTaskRequest) {
			r.UseDefaultModel = false
			r.ModelID = uuid.NewString()
		}, ErrNotFound},
	}
	for _, tc := range cases {
		req := taskRequest(ds.ID)
		tc.mutate(req)
		if _, err := f.tasks.CreateTask(ctx, owner, req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	n, err := f.uow.Tasks.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("tasks persisted after rejected input: %d %v", n, err)
	}
	if len(f.predictor.calls) != 0 {
		t.Fatalf("predictor called for rejected input")
	}
}

func TestCreateTaskWithForeignModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	ds := f.completedDataset(t, owner)
	theirs := f.dataset(t, other, "theirs")
	m, err := f.models.Create(ctx, other, &dto.CreateModelRequest{Name: "m", TrainingDatasetID: theirs.ID.String()})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}

	req := taskRequest(ds.ID)
	req.UseDefaultModel = false
	req.ModelID = m.ID.String()
	if _, err := f.tasks.CreateTask(ctx, owner, req); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeferredTaskRunsThroughQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	m, err := f.models.Create(ctx, owner, &dto.CreateModelRequest{Name: "m", TrainingDatasetID: ds.ID.String()})
	if err != nil {
		t.Fatalf("create model: %v", err)
	}

	req := taskRequest(ds.ID)
	req.UseDefaultModel = false
	req.ModelID = m.ID.String()
	req.DeferExecution = true
	out, err := f.tasks.CreateTask(ctx, owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !out.Success || out.Task.Status != models.StatusCreated {
		t.Fatalf("deferred task: %+v", out)
	}
	if len(f.predictor.calls) != 0 {
		t.Fatalf("deferred task was executed")
	}

	info, err := f.tasks.GetTaskExecutionInfo(ctx, out.Task.ID)
	if err != nil {
		t.Fatalf("execution info: %v", err)
	}
	if info.ModelContainerName != m.ContainerName || info.DatasetContainerName != ds.ContainerName || info.QueryImageURL == "" {
		t.Fatalf("unexpected execution info: %+v", info)
	}

	started, err := f.tasks.StartTask(ctx, owner, out.Task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.StatusProcessing {
		t.Fatalf("status = %s", started.Status)
	}
	if _, err := f.tasks.StartTask(ctx, owner, out.Task.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("restart: expected ErrInvalidStatus, got %v", err)
	}

	msgs := f.messages(t)
	last, ok := msgs[len(msgs)-1].(queue.IdentifyWriter)
	if !ok {
		t.Fatalf("unexpected message: %#v", msgs[len(msgs)-1])
	}
	if last.TaskID != out.Task.ID.String() || last.ModelContainerName != m.ContainerName ||
		last.QueryImage != models.QueryImageFileName || last.ConfidenceThreshold != queue.DefaultConfidenceThreshold {
		t.Fatalf("unexpected identify message: %+v", last)
	}

	done, err := f.tasks.SubmitTaskPrediction(ctx, out.Task.ID, &payload.PredictionResult{
		Prediction: payload.Prediction{WriterID: "w2", Confidence: 0.75},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if done.Status != models.StatusCompleted {
		t.Fatalf("status = %s", done.Status)
	}
	res, err := f.tasks.GetTaskPredictionResults(ctx, owner, done.ID)
	if err != nil || !res.Available || res.Results.Prediction.WriterID != "w2" {
		t.Fatalf("results: %+v %v", res, err)
	}

	_, err = f.tasks.SubmitTaskPrediction(ctx, done.ID, &payload.PredictionResult{Prediction: payload.Prediction{WriterID: "w1"}})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("resubmit: expected ErrInvalidStatus, got %v", err)
	}
}

func TestSubmitTaskPredictionKeepsFirstResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)

	out, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID))
	if err != nil || !out.Success {
		t.Fatalf("create: %+v %v", out, err)
	}
	_, err = f.tasks.SubmitTaskPrediction(ctx, out.Task.ID, &payload.PredictionResult{
		Prediction: payload.Prediction{WriterID: "w2", Confidence: 0.1},
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	res, err := f.tasks.GetTaskPredictionResults(ctx, owner, out.Task.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.Results.Prediction.WriterID != "w1" || res.Results.Prediction.Confidence != 0.91 {
		t.Fatalf("stored prediction overwritten: %+v", res.Results.Prediction)
	}
}

func TestSubmitTaskPredictionRejectsOtherTaskID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	req := taskRequest(ds.ID)
	req.DeferExecution = true
	out, err := f.tasks.CreateTask(ctx, owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, taskID := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := f.tasks.SubmitTaskPrediction(ctx, out.Task.ID, &payload.PredictionResult{
			TaskID:     taskID,
			Prediction: payload.Prediction{WriterID: "w1", Confidence: 0.5},
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("task_id %q: expected ErrValidation, got %v", taskID, err)
		}
	}
	task, err := f.tasks.Get(ctx, owner, out.Task.ID)
	if err != nil || task.Status != models.StatusCreated {
		t.Fatalf("task changed by rejected prediction: %+v %v", task, err)
	}

	if _, err := f.tasks.SubmitTaskPrediction(ctx, out.Task.ID, &payload.PredictionResult{
		TaskID:     out.Task.ID.String(),
		Prediction: payload.Prediction{WriterID: "w1", Confidence: 0.5},
	}); err != nil {
		t.Fatalf("matching task_id: %v", err)
	}
}

func TestCreateTaskDeletedDuringExecution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	f.predictor.during = func(taskID uuid.UUID) {
		if err := f.tasks.Delete(ctx, owner, taskID); err != nil {
			t.Errorf("delete during execution: %v", err)
		}
	}

	out, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Success {
		t.Fatalf("deleted task reported as completed: %+v", out)
	}
	if _, err := f.tasks.Get(ctx, owner, out.Task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted task is visible again: %v", err)
	}
	stored, err := f.uow.Tasks.GetIncludingInactive(ctx, out.Task.ID)
	if err != nil {
		t.Fatalf("load inactive: %v", err)
	}
	if stored.IsActive || stored.Status != models.StatusProcessing {
		t.Fatalf("deleted task rewritten: active=%v status=%s", stored.IsActive, stored.Status)
	}
	if f.store.Exists(out.Task.ContainerName) {
		t.Fatalf("container of deleted task exists")
	}
}

func TestCreateTaskStoresJPEGUnderQueryName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	req := taskRequest(ds.ID)
	req.QueryImage = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	out, err := f.tasks.CreateTask(ctx, owner, req)
	if err != nil || !out.Success {
		t.Fatalf("create: %+v %v", out, err)
	}
	data, err := f.store.Download(ctx, out.Task.ContainerName, models.QueryImageFileName)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != string(jpeg) {
		t.Fatalf("stored image = %x", data)
	}
}

func TestStartTaskSendFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	req := taskRequest(ds.ID)
	req.DeferExecution = true
	out, err := f.tasks.CreateTask(ctx, owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.sender.FailWith(errors.New("queue down"))
	task, err := f.tasks.StartTask(ctx, owner, out.Task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.Status != models.StatusFailed || task.ErrorMessage == "" {
		t.Fatalf("task after failed send: status=%s msg=%q", task.Status, task.ErrorMessage)
	}
}

func TestUpdateTaskResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	req := taskRequest(ds.ID)
	req.DeferExecution = true
	out, err := f.tasks.CreateTask(ctx, owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := out.Task.ID.String()

	if _, err := f.tasks.UpdateTaskResults(ctx, &dto.StatusUpdateRequest{ID: id, Status: "Completed", Results: []byte(`[1,2]`)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("array results: expected ErrValidation, got %v", err)
	}
	task, err := f.tasks.UpdateTaskResults(ctx, &dto.StatusUpdateRequest{ID: id, Status: "failed", Message: "bad image"})
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if task.Status != models.StatusFailed || task.ErrorMessage != "bad image" {
		t.Fatalf("task: %+v", task)
	}
	status, err := f.tasks.GetTaskStatus(ctx, task.ID)
	if err != nil || status.Message != "bad image" {
		t.Fatalf("status: %+v %v", status, err)
	}
	if _, err := f.tasks.UpdateTaskResults(ctx, &dto.StatusUpdateRequest{ID: uuid.NewString(), Status: "Completed"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown task: expected ErrNotFound, got %v", err)
	}
}

func TestGetDatasetAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	pending := f.dataset(t, owner, "pending")
	if _, err := f.tasks.GetDatasetAnalysis(ctx, owner, pending.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("pending dataset: expected ErrInvalidStatus, got %v", err)
	}

	ds := f.completedDataset(t, owner)
	res, err := f.tasks.GetDatasetAnalysis(ctx, owner, ds.ID)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if len(res.Writers) != 2 || res.Writers[0].ID != "w1" || res.Writers[0].SampleCount != 4 {
		t.Fatalf("writers = %+v", res.Writers)
	}
	if _, err := f.tasks.GetDatasetAnalysis(ctx, uuid.New(), ds.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign: expected ErrUnauthorized, got %v", err)
	}
}

func TestGetDatasetAnalysisWithoutResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	ds := f.dataset(t, owner, "empty")
	if _, err := f.datasets.Analyze(ctx, owner, ds.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := f.datasets.UpdateDatasetStatus(ctx, &dto.StatusUpdateRequest{ID: ds.ID.String(), Status: "Completed"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	f.logs.Reset()

	res, err := f.tasks.GetDatasetAnalysis(ctx, owner, ds.ID)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if res.Writers == nil || len(res.Writers) != 0 {
		t.Fatalf("writers = %#v, want empty non-nil list", res.Writers)
	}
	entry := f.logs.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Data["dataset_id"] != ds.ID {
		t.Fatalf("expected a warning for the missing results, got %+v", entry)
	}
}

func TestTaskDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	ds := f.completedDataset(t, owner)
	out, err := f.tasks.CreateTask(ctx, owner, taskRequest(ds.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.tasks.Delete(ctx, owner, out.Task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.store.Exists(out.Task.ContainerName) {
		t.Fatalf("container survived delete")
	}
	if _, err := f.tasks.Get(ctx, owner, out.Task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.tasks.Delete(ctx, owner, out.Task.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
