package service

import (
	"context"
	"encoding/json"
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

// DatasetService manages dataset uploads and analysis.
type DatasetService struct {
	uow    *repository.UnitOfWork
	store  storage.BlobStore
	queue  queue.Sender
	logger *logrus.Logger
}

// NewDatasetService creates a DatasetService.
func NewDatasetService(uow *repository.UnitOfWork, store storage.BlobStore, sender queue.Sender, logger *logrus.Logger) *DatasetService {
	return &DatasetService{
		uow:    uow,
		store:  store,
		queue:  sender,
		logger: logger,
	}
}

// Create persists a dataset, provisions its container and returns where to upload samples.
func (s *DatasetService) Create(ctx context.Context, owner uuid.UUID, req *dto.CreateDatasetRequest) (*models.Dataset, *storage.AccessGrant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, validationError("dataset name is required")
	}

	id := uuid.New()
	ds := &models.Dataset{
		Entity:        models.Entity{ID: id},
		Name:          name,
		ContainerName: models.DatasetContainerName(id),
		Status:        models.StatusCreated,
		UserID:        owner,
	}
	if err := s.uow.Datasets.Create(ctx, ds); err != nil {
		return nil, nil, fmt.Errorf("create dataset: %w", err)
	}

	if err := s.store.CreateContainer(ctx, ds.ContainerName); err != nil {
		return ds, nil, fmt.Errorf("provision container for dataset %s: %w", id, err)
	}

	grant, err := s.store.UploadAccess(ctx, ds.ContainerName)
	if err != nil {
		return ds, nil, fmt.Errorf("issue upload access for dataset %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"dataset_id": id, "container": ds.ContainerName}).Info("dataset created")
	return ds, grant, nil
}

// Get returns one of the owner's datasets.
func (s *DatasetService) Get(ctx context.Context, owner, id uuid.UUID) (*models.Dataset, error) {
	return loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", id, owner)
}

// List returns a page of the owner's datasets, newest first.
func (s *DatasetService) List(ctx context.Context, owner uuid.UUID, page, perPage int) ([]models.Dataset, int64, error) {
	total, err := s.uow.Datasets.Count(ctx, repository.OwnedBy(owner))
	if err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}
	items, err := s.uow.Datasets.Find(ctx, repository.OwnedBy(owner), repository.NewestFirst, repository.Paginate(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	return items, total, nil
}

// RefreshUploadAccess issues a new upload grant for a dataset that has not been analyzed yet.
func (s *DatasetService) RefreshUploadAccess(ctx context.Context, owner, id uuid.UUID) (*storage.AccessGrant, error) {
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireStatus("dataset", id, ds.Status, models.StatusCreated); err != nil {
		return nil, err
	}
	if err := s.store.CreateContainer(ctx, ds.ContainerName); err != nil {
		return nil, fmt.Errorf("provision container for dataset %s: %w", id, err)
	}
	grant, err := s.store.UploadAccess(ctx, ds.ContainerName)
	if err != nil {
		return nil, fmt.Errorf("issue upload access for dataset %s: %w", id, err)
	}
	return grant, nil
}

// Analyze moves the dataset to Processing and asks the executor to analyze it.
func (s *DatasetService) Analyze(ctx context.Context, owner, id uuid.UUID) (*models.Dataset, error) {
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", id, owner)
	if err != nil {
		return nil, err
	}
	if err := requireStatus("dataset", id, ds.Status, models.StatusCreated); err != nil {
		return nil, err
	}

	ds.Status = models.StatusProcessing
	ds.StatusMessage = ""
	if err := save(ctx, s.uow.Datasets, "dataset", id, ds); err != nil {
		return nil, err
	}

	msg := queue.AnalyzeDataset{DatasetID: id.String(), DatasetContainerName: ds.ContainerName}
	if err := s.queue.Send(ctx, msg); err != nil {
		s.logger.WithError(err).WithField("dataset_id", id).Error("failed to enqueue dataset analysis")
		return ds, fmt.Errorf("enqueue analysis for dataset %s: %w", id, err)
	}
	return ds, nil
}

// GetAnalysisResults returns the analysis, or Available=false while it is still pending.
func (s *DatasetService) GetAnalysisResults(ctx context.Context, owner, id uuid.UUID) (*dto.AnalysisResultsResponse, error) {
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", id, owner)
	if err != nil {
		return nil, err
	}

	res, err := s.loadAnalysis(ctx, ds)
	if err != nil {
		return nil, err
	}
	return &dto.AnalysisResultsResponse{
		Available: res != nil,
		Status:    ds.Status,
		Results:   res,
	}, nil
}

// loadAnalysis prefers the results file in the container and falls back to the stored copy.
// It returns nil when neither exists.
func (s *DatasetService) loadAnalysis(ctx context.Context, ds *models.Dataset) (*payload.AnalysisResult, error) {
	data, err := s.store.Download(ctx, ds.ContainerName, payload.AnalysisResultsFile)
	if errors.Is(err, storage.ErrObjectNotFound) {
		if len(ds.AnalysisResult) == 0 {
			return nil, nil
		}
		data = ds.AnalysisResult
	} else if err != nil {
		return nil, fmt.Errorf("download analysis for dataset %s: %w", ds.ID, err)
	}

	res, err := payload.ParseAnalysisResult(data)
	if err != nil {
		return nil, fmt.Errorf("analysis for dataset %s: %w", ds.ID, err)
	}
	return res, nil
}

// UpdateDatasetStatus applies an executor callback.
func (s *DatasetService) UpdateDatasetStatus(ctx context.Context, req *dto.StatusUpdateRequest) (*models.Dataset, error) {
	id, err := parseID("dataset", req.ID)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, validationError("%v", err)
	}

	var results datatypes.JSON
	if hasResults(req.Results) {
		if _, err := payload.ParseAnalysisResult(req.Results); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		results = datatypes.JSON(req.Results)
	}

	var ds *models.Dataset
	err = s.uow.Transaction(ctx, func(tx *repository.UnitOfWork) error {
		var err error
		ds, err = loadActive(ctx, tx.Datasets, "dataset", id)
		if err != nil {
			return err
		}
		if err := checkTransition("dataset", id, ds.Status, status); err != nil {
			return err
		}
		ds.Status = status
		ds.StatusMessage = req.Message
		if results != nil {
			ds.AnalysisResult = results
		}
		return tx.Datasets.Update(ctx, ds)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"dataset_id": id, "status": status}).Info("dataset status updated")
	return ds, nil
}

// GetDatasetStatus reports the status of any active dataset.
func (s *DatasetService) GetDatasetStatus(ctx context.Context, id uuid.UUID) (*dto.StatusResponse, error) {
	ds, err := loadActive(ctx, s.uow.Datasets, "dataset", id)
	if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{ID: ds.ID.String(), Status: string(ds.Status), Message: ds.StatusMessage}, nil
}

// Delete removes the dataset's container and deactivates it. Missing datasets are ignored.
func (s *DatasetService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	ds, err := loadOwned[models.Dataset](ctx, s.uow.Datasets, "dataset", id, owner)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteContainer(ctx, ds.ContainerName); err != nil {
		return fmt.Errorf("delete container for dataset %s: %w", id, err)
	}
	if _, err := s.uow.Datasets.Deactivate(ctx, id); err != nil {
		return err
	}
	return nil
}

// hasResults reports whether a callback carried a results document.
func hasResults(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}
