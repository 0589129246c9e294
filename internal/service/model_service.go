package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/queue"
	"writerid-portal/internal/repository"
	"writerid-portal/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// UnknownDatasetName is shown when a model's training dataset cannot be resolved.
const UnknownDatasetName = "Unknown Dataset"

// ModelService manages model training.
type ModelService struct {
	uow    *repository.UnitOfWork
	store  storage.BlobStore
	queue  queue.Sender
	logger *logrus.Logger
}

// NewModelService creates a ModelService.
func NewModelService(uow *repository.UnitOfWork, store storage.BlobStore, sender queue.Sender, logger *logrus.Logger) *ModelService {
	return &ModelService{
		uow:    uow,
		store:  store,
		queue:  sender,
		logger: logger,
	}
}

// Create persists a model, provisions its container and requests training on the chosen dataset.
func (s *ModelService) Create(ctx context.Context, owner uuid.UUID, req *dto.CreateModelRequest) (*dto.ModelResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("model name is required")
	}
	datasetID, err := parseID("dataset", req.TrainingDatasetID)
	if err != nil {
		return nil, err
	}
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", datasetID, owner)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	m := &models.WriterModel{
		Entity:            models.Entity{ID: id},
		Name:              name,
		ContainerName:     models.ModelContainerName(id),
		Status:            models.StatusCreated,
		TrainingDatasetID: ds.ID,
		UserID:            owner,
	}
	if err := s.uow.Models.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	if err := s.store.CreateContainer(ctx, m.ContainerName); err != nil {
		return nil, fmt.Errorf("provision container for model %s: %w", id, err)
	}

	msg := queue.NewTrainModel(id.String(), ds.ContainerName, m.ContainerName)
	if err := s.queue.Send(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("model_id", id).Error("failed to enqueue model training")
		return nil, fmt.Errorf("enqueue training for model %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"model_id": id, "dataset_id": ds.ID}).Info("model created")
	resp := dto.NewModelResponse(m, ds.Name)
	return &resp, nil
}

// Get returns one of the owner's models with its dataset name.
func (s *ModelService) Get(ctx context.Context, owner, id uuid.UUID) (*dto.ModelResponse, error) {
	m, err := loadOwned[models.WriterModel](ctx, s.uow.Models, "model", id, owner)
	if err != nil {
		return nil, err
	}
	resp := dto.NewModelResponse(m, s.datasetName(ctx, m.TrainingDatasetID))
	return &resp, nil
}

// List returns a page of the owner's models, newest first.
func (s *ModelService) List(ctx context.Context, owner uuid.UUID, page, perPage int) ([]dto.ModelResponse, int64, error) {
	total, err := s.uow.Models.Count(ctx, repository.OwnedBy(owner))
	if err != nil {
		return nil, 0, fmt.Errorf("count models: %w", err)
	}
	items, err := s.uow.Models.Find(ctx, repository.OwnedBy(owner), repository.NewestFirst, repository.Paginate(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("list models: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.TrainingDatasetID)
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		datasets, err := s.uow.Datasets.Find(ctx, repository.ByIDs(ids))
		if err != nil {
			return nil, 0, fmt.Errorf("load training datasets: %w", err)
		}
		for _, ds := range datasets {
			names[ds.ID] = ds.Name
		}
	}

	resp := make([]dto.ModelResponse, 0, len(items))
	for i := range items {
		name, ok := names[items[i].TrainingDatasetID]
		if !ok {
			name = UnknownDatasetName
		}
		resp = append(resp, dto.NewModelResponse(&items[i], name))
	}
	return resp, total, nil
}

func (s *ModelService) datasetName(ctx context.Context, id uuid.UUID) string {
	ds, err := s.uow.Datasets.GetByID(ctx, id)
	if err != nil {
		return UnknownDatasetName
	}
	return ds.Name
}

// StartTraining moves the model to Processing and then enqueues training.
// A failed send leaves the model in Processing.
func (s *ModelService) StartTraining(ctx context.Context, owner, id uuid.UUID) (*dto.ModelResponse, error) {
	m, err := loadOwned[models.WriterModel](ctx, s.uow.Models, "model", id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireStatus("model", id, m.Status, models.StatusCreated); err != nil {
		return nil, err
	}

	m.Status = models.StatusProcessing
	m.StatusMessage = ""
	if err := save(ctx, s.uow.Models, "model", id, m); err != nil {
		return nil, err
	}

	msg := queue.NewTrainModel(id.String(), models.DatasetContainerName(m.TrainingDatasetID), m.ContainerName)
	if err := s.queue.Send(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("model_id", id).Error("failed to enqueue model training")
		return nil, fmt.Errorf("enqueue training for model %s: %w", id, err)
	}

	resp := dto.NewModelResponse(m, s.datasetName(ctx, m.TrainingDatasetID))
	return &resp, nil
}

// GetTrainingResults returns the training metrics, or Available=false while training is pending.
func (s *ModelService) GetTrainingResults(ctx context.Context, owner, id uuid.UUID) (*dto.TrainingResultsResponse, error) {
	m, err := loadOwned[models.WriterModel](ctx, s.uow.Models, "model", id, owner)
	if err != nil {
		return nil, err
	}

	data := []byte(m.TrainingResult)
	if len(data) == 0 {
		data, err = s.store.Download(ctx, m.ContainerName, payload.TrainingResultsFile)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return &dto.TrainingResultsResponse{Available: false, Status: m.Status}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("download training results for model %s: %w", id, err)
		}
	}

	res, err := payload.ParseTrainingResult(data)
	if err != nil {
		return nil, fmt.Errorf("training results for model %s: %w", id, err)
	}
	return &dto.TrainingResultsResponse{Available: true, Status: m.Status, Results: res}, nil
}

// UpdateModelStatus applies an executor callback.
func (s *ModelService) UpdateModelStatus(ctx context.Context, req *dto.StatusUpdateRequest) (*models.WriterModel, error) {
	id, err := parseID("model", req.ID)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, validationError("%v", err)
	}

	var results datatypes.JSON
	if hasResults(req.Results) {
		if _, err := payload.ParseTrainingResult(req.Results); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		results = datatypes.JSON(req.Results)
	}

	var m *models.WriterModel
	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		var err error
		m, err = loadActive(ctx, tx.Models, "model", id)
		if err != nil {
			return err
		}
		if err := checkTransition("model", id, m.Status, status); err != nil {
			return err
		}
		m.Status = status
		m.StatusMessage = req.Message
		if results != nil {
			m.TrainingResult = results
		}
		return tx.Models.Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"model_id": id, "status": status}).Info("model status updated")
	return m, nil
}

// GetModelStatus reports the status of any active model.
func (s *ModelService) GetModelStatus(ctx context.Context, id uuid.UUID) (*dto.StatusResponse, error) {
	m, err := loadActive(ctx, s.uow.Models, "model", id)
	if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{ID: m.ID.String(), Status: string(m.Status), Message: m.StatusMessage}, nil
}

// Delete removes the model's container and deactivates it. Missing models are ignored.
func (s *ModelService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	m, err := loadOwned[models.WriterModel](ctx, s.uow.Models, "model", id, owner)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteContainer(ctx, m.ContainerName); err != nil {
		return fmt.Errorf("delete container for model %s: %w", id, err)
	}
	if _, err := s.uow.Models.Deactivate(ctx, id); err != nil {
		return err
	}
	return nil
}
