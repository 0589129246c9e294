package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/queue"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/storage"
	"writerid-portal/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Predictor runs a task on the executor and waits for its prediction.
type Predictor interface {
	Predict(ctx context.Context, taskID uuid.UUID) (*payload.PredictionResult, error)
}

// TaskOutcome is the result of CreateTask. Success is false when the task was recorded as Failed.
type TaskOutcome struct {
	Task    *models.Task
	Success bool
	Message string
}

// TaskService manages writer identification tasks.
type TaskService struct {
	uow       *repository.UnitOfWork
	store     storage.BlobStore
	queue     queue.Sender
	predictor Predictor
	logger    *logrus.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(uow *repository.UnitOfWork, store storage.BlobStore, sender queue.Sender, predictor Predictor, logger *logrus.Logger) *TaskService {
	return &TaskService{
		uow:       uow,
		store:     store,
		queue:     sender,
		predictor: predictor,
		logger:    logger,
	}
}

// GetDatasetAnalysis lists the writers of a completed dataset.
// A missing results file yields an empty list.
func (s *TaskService) GetDatasetAnalysis(ctx context.Context, owner, datasetID uuid.UUID) (*dto.DatasetAnalysisResponse, error) {
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", datasetID, owner)
	if err != nil {
		return nil, err
	}
	if err := requireStatus("dataset", datasetID, ds.Status, models.StatusCompleted); err != nil {
		return nil, err
	}

	resp := &dto.DatasetAnalysisResponse{DatasetID: ds.ID, Writers: []payload.Writer{}}

	data, err := s.store.Download(ctx, ds.ContainerName, payload.AnalysisResultsFile)
	if errors.Is(err, storage.ErrObjectNotFound) {
		if len(ds.AnalysisResult) == 0 {
			s.logger.WithFields(logrus.Fields{"dataset_id": ds.ID, "container": ds.ContainerName}).
				Warn("analysis results not found for completed dataset")
			return resp, nil
		}
		data = ds.AnalysisResult
	} else if err != nil {
		return nil, fmt.Errorf("download analysis for dataset %s: %w", ds.ID, err)
	}

	res, err := payload.ParseAnalysisResult(data)
	if err != nil {
		return nil, fmt.Errorf("analysis for dataset %s: %w", ds.ID, err)
	}
	resp.Writers = res.Writers()
	return resp, nil
}

// CreateTask records a task, uploads its query image and runs it on the executor.
// Failures after the task row exists are recorded on the task, never returned.
// With DeferExecution the task stays Created until StartTask.
func (s *TaskService) CreateTask(ctx context.Context, owner uuid.UUID, req *dto.CreateTaskRequest) (*TaskOutcome, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("task name is required")
	}
	datasetID, err := parseID("dataset", req.DatasetID)
	if err != nil {
		return nil, err
	}
	writers := make([]string, 0, len(req.SelectedWriters))
	for _, w := range req.SelectedWriters {
		if w = strings.TrimSpace(w); w != "" {
			writers = append(writers, w)
		}
	}
	if len(writers) == 0 {
		return nil, validationError("at least one writer must be selected")
	}
	image, contentType, err := utils.DecodeBase64Image(req.QueryImage)
	if err != nil {
		return nil, fmt.Errorf("%w: query image: %v", ErrValidation, err)
	}

	var modelID *uuid.UUID
	switch {
	case req.UseDefaultModel && req.ModelID != "":
		return nil, validationError("model_id must be empty when use_default_model is set")
	case !req.UseDefaultModel:
		if req.ModelID == "" {
			return nil, validationError("model_id is required unless use_default_model is set")
		}
		id, err := parseID("model", req.ModelID)
		if err != nil {
			return nil, err
		}
		modelID = &id
	}

	if _, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", datasetID, owner); err != nil {
		return nil, err
	}
	if modelID != nil {
		if _, err := loadOwned[models.WriterModel](ctx, s.uow.Models, "model", *modelID, owner); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	task := &models.Task{
		Entity:          models.Entity{ID: id},
		Name:            name,
		UseDefaultModel: req.UseDefaultModel,
		ModelID:         modelID,
		DatasetID:       datasetID,
		SelectedWriters: datatypes.JSONSlice[string](writers),
		ContainerName:   models.TaskContainerName(id),
		Status:          models.StatusCreated,
		UserID:          owner,
	}
	if err := s.uow.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.uploadQueryImage(ctx, task, image, contentType); err != nil {
		return s.fail(ctx, task, err)
	}
	if req.DeferExecution {
		return &TaskOutcome{Task: task, Success: true, Message: "task created"}, nil
	}

	task.Status = models.StatusProcessing
	if err := save(ctx, s.uow.Tasks, "task", task.ID, task); err != nil {
		return s.fail(ctx, task, err)
	}

	result, err := s.predictor.Predict(ctx, task.ID)
	if err != nil {
		return s.fail(ctx, task, err)
	}
	if err := s.complete(ctx, s.uow, task, result); err != nil {
		return s.fail(ctx, task, err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"writer_id":  result.Prediction.WriterID,
		"confidence": result.Prediction.Confidence,
	}).Info("task completed")
	return &TaskOutcome{Task: task, Success: true, Message: "task completed"}, nil
}

func (s *TaskService) uploadQueryImage(ctx context.Context, task *models.Task, image []byte, contentType string) error {
	if err := s.store.CreateContainer(ctx, task.ContainerName); err != nil {
		return fmt.Errorf("provision container: %w", err)
	}
	blobPath, err := s.store.Upload(ctx, task.ContainerName, models.QueryImageFileName, image, contentType)
	if err != nil {
		return fmt.Errorf("upload query image: %w", err)
	}
	task.QueryImagePath = blobPath
	return save(ctx, s.uow.Tasks, "task", task.ID, task)
}

func (s *TaskService) complete(ctx context.Context, uow *repository.UnitOfWork, task *models.Task, result *payload.PredictionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	task.ResultsJSON = datatypes.JSON(data)
	task.Status = models.StatusCompleted
	task.ErrorMessage = ""
	return save(ctx, uow.Tasks, "task", task.ID, task)
}

// fail records cause on the task. The write ignores cancellation of ctx so the task
// does not stay in Processing when the caller went away. A task deleted meanwhile
// stays deleted and its container is removed again.
func (s *TaskService) fail(ctx context.Context, task *models.Task, cause error) (*TaskOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	if errors.Is(cause, ErrNotFound) {
		return s.abandon(ctx, task), nil
	}
	s.logger.WithError(cause).WithField("task_id", task.ID).Warn("task execution failed")

	task.Status = models.StatusFailed
	task.ErrorMessage = cause.Error()
	err := save(ctx, s.uow.Tasks, "task", task.ID, task)
	if errors.Is(err, ErrNotFound) {
		return s.abandon(ctx, task), nil
	}
	if err != nil {
		return nil, fmt.Errorf("record failure of task %s: %w", task.ID, err)
	}
	return &TaskOutcome{Task: task, Success: false, Message: cause.Error()}, nil
}

func (s *TaskService) abandon(ctx context.Context, task *models.Task) *TaskOutcome {
	log := s.logger.WithField("task_id", task.ID)
	log.Warn("task was deleted during execution")
	if err := s.store.DeleteContainer(ctx, task.ContainerName); err != nil {
		log.WithError(err).Warn("failed to remove container of deleted task")
	}
	task.IsActive = false
	return &TaskOutcome{Task: task, Success: false, Message: "task was deleted during execution"}
}

// Get returns one of the owner's tasks.
func (s *TaskService) Get(ctx context.Context, owner, id uuid.UUID) (*models.Task, error) {
	return loadOwned[models.Task](ctx, s.uow.Tasks, "task", id, owner)
}

// List returns a page of the owner's tasks, newest first.
func (s *TaskService) List(ctx context.Context, owner uuid.UUID, page, perPage int) ([]models.Task, int64, error) {
	total, err := s.uow.Tasks.Count(ctx, repository.OwnedBy(owner))
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	items, err := s.uow.Tasks.Find(ctx, repository.OwnedBy(owner), repository.NewestFirst, repository.Paginate(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return items, total, nil
}

// StartTask moves a deferred task to Processing and hands it to the executor through the queue.
// A failed send marks the task Failed.
func (s *TaskService) StartTask(ctx context.Context, owner, id uuid.UUID) (*models.Task, error) {
	task, err := loadOwned[models.Task](ctx, s.uow.Tasks, "task", id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireStatus("task", id, task.Status, models.StatusCreated); err != nil {
		return nil, err
	}
	if task.QueryImagePath == "" {
		return nil, validationError("task %s has no query image", id)
	}

	task.Status = models.StatusProcessing
	if err := save(ctx, s.uow.Tasks, "task", id, task); err != nil {
		return nil, err
	}

	info := s.executionInfo(ctx, task)
	msg := queue.IdentifyWriter{
		TaskID:               id.String(),
		TaskContainerName:    info.TaskContainerName,
		DatasetContainerName: info.DatasetContainerName,
		ModelContainerName:   info.ModelContainerName,
		UseDefaultModel:      info.UseDefaultModel,
		SelectedWriters:      info.SelectedWriters,
		QueryImage:           info.QueryImageFileName,
		ConfidenceThreshold:  queue.DefaultConfidenceThreshold,
		Preprocess:           true,
	}
	if err := s.queue.Send(ctx, msg); err != nil {
		outcome, ferr := s.fail(ctx, task, fmt.Errorf("enqueue task: %w", err))
		if ferr != nil {
			return nil, ferr
		}
		return outcome.Task, nil
	}
	return task, nil
}

// SubmitTaskPrediction stores an executor prediction and completes the task.
// A task that already finished keeps its first result.
func (s *TaskService) SubmitTaskPrediction(ctx context.Context, id uuid.UUID, result *payload.PredictionResult) (*models.Task, error) {
	if strings.TrimSpace(result.Prediction.WriterID) == "" {
		return nil, validationError("prediction writer_id is required")
	}
	if result.TaskID != "" {
		if bodyID, err := uuid.Parse(result.TaskID); err != nil || bodyID != id {
			return nil, validationError("task_id %q does not match task %s", result.TaskID, id)
		}
	}

	var task *models.Task
	err := s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		var err error
		task, err = loadActive(ctx, tx.Tasks, "task", id)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return fmt.Errorf("%w: task %s is already %s", ErrInvalidStatus, id, task.Status)
		}
		if err := checkTransition("task", id, task.Status, models.StatusCompleted); err != nil {
			return err
		}
		return s.complete(ctx, tx, task, result)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTaskPredictionResults returns the prediction, or Available=false while none is stored.
func (s *TaskService) GetTaskPredictionResults(ctx context.Context, owner, id uuid.UUID) (*dto.PredictionResultsResponse, error) {
	task, err := loadOwned[models.Task](ctx, s.uow.Tasks, "task", id, owner)
	if err != nil {
		return nil, err
	}
	resp := &dto.PredictionResultsResponse{Status: task.Status}
	if len(task.ResultsJSON) == 0 {
		return resp, nil
	}

	res, err := payload.ParsePredictionResult(task.ResultsJSON)
	if err != nil {
		s.logger.WithError(err).WithField("task_id", id).Warn("stored task results are not a prediction")
		return resp, nil
	}
	resp.Available = true
	resp.Results = res
	return resp, nil
}

// GetTaskExecutionInfo returns everything the executor needs to run a task.
func (s *TaskService) GetTaskExecutionInfo(ctx context.Context, id uuid.UUID) (*dto.TaskExecutionInfo, error) {
	task, err := loadActive(ctx, s.uow.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	return s.executionInfo(ctx, task), nil
}

func (s *TaskService) executionInfo(ctx context.Context, task *models.Task) *dto.TaskExecutionInfo {
	info := &dto.TaskExecutionInfo{
		TaskID:               task.ID,
		TaskContainerName:    task.ContainerName,
		DatasetContainerName: models.DatasetContainerName(task.DatasetID),
		UseDefaultModel:      task.UseDefaultModel,
		SelectedWriters:      []string(task.SelectedWriters),
		QueryImageFileName:   models.QueryImageFileName,
		Status:               task.Status,
	}
	if info.SelectedWriters == nil {
		info.SelectedWriters = []string{}
	}
	if task.ModelID != nil && !task.UseDefaultModel {
		info.ModelContainerName = models.ModelContainerName(*task.ModelID)
	}
	if task.QueryImagePath != "" {
		info.QueryImageFileName = path.Base(task.QueryImagePath)
		url, err := s.store.DownloadURL(ctx, task.ContainerName, info.QueryImageFileName)
		if err != nil {
			s.logger.WithError(err).WithField("task_id", task.ID).Warn("failed to presign query image")
		} else {
			info.QueryImageURL = url
		}
	}
	return info
}

// UpdateTaskResults applies an executor callback carrying a final status and results.
func (s *TaskService) UpdateTaskResults(ctx context.Context, req *dto.StatusUpdateRequest) (*models.Task, error) {
	id, err := parseID("task", req.ID)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, validationError("%v", err)
	}
	withResults := hasResults(req.Results)
	if withResults && !payload.IsJSONObject(req.Results) {
		return nil, validationError("results must be a JSON object")
	}

	var task *models.Task
	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		var err error
		task, err = loadActive(ctx, tx.Tasks, "task", id)
		if err != nil {
			return err
		}
		if err := checkTransition("task", id, task.Status, status); err != nil {
			return err
		}
		task.Status = status
		if withResults {
			task.ResultsJSON = datatypes.JSON(req.Results)
		}
		if status == models.StatusFailed {
			task.ErrorMessage = req.Message
		}
		return tx.Tasks.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"task_id": id, "status": status}).Info("task status updated")
	return task, nil
}

// GetTaskStatus reports the status of any active task.
func (s *TaskService) GetTaskStatus(ctx context.Context, id uuid.UUID) (*dto.StatusResponse, error) {
	task, err := loadActive(ctx, s.uow.Tasks, "task", id)
	if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{ID: task.ID.String(), Status: string(task.Status), Message: task.ErrorMessage}, nil
}

// Delete removes the task's container and deactivates it. Missing tasks are ignored.
func (s *TaskService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	task, err := loadOwned[models.Task](ctx, s.uow.Tasks, "task", id, owner)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteContainer(ctx, task.ContainerName); err != nil {
		return fmt.Errorf("delete container for task %s: %w", id, err)
	}
	if _, err := s.uow.Tasks.Deactivate(ctx, id); err != nil {
		return err
	}
	return nil
}
