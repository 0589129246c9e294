// Package queue sends work requests to the executor over a named queue.
package queue

import (
	"encoding/json"
	"fmt"

	"writerid-portal/internal/payload"
)

// Task types carried in the envelope.
const (
	TaskAnalyzeDataset = "analyze_dataset"
	TaskTrain          = "train"
	TaskIdentifyWriter = "identify_writer"
)

// Training hyperparameters sent with every train request.
const (
	DefaultEpochs       = 100
	DefaultBatchSize    = 32
	DefaultLearningRate = 0.001
)

// DefaultConfidenceThreshold is sent with writer identification requests.
const DefaultConfidenceThreshold = 0.7

// Message is one tagged queue request.
type Message interface {
	TaskType() string
}

// Envelope is the wire form of every message.
type Envelope struct {
	Task       string          `json:"task"`
	Parameters json.RawMessage `json:"parameters"`
}

// AnalyzeDataset asks the executor to analyze a dataset container.
type AnalyzeDataset struct {
	DatasetID            string `json:"dataset_id" jsonschema:"required"`
	DatasetContainerName string `json:"dataset_container_name" jsonschema:"required"`
}

// TaskType implements Message.
func (AnalyzeDataset) TaskType() string { return TaskAnalyzeDataset }

// TrainModel asks the executor to train a model from a dataset container.
type TrainModel struct {
	ModelID              string  `json:"model_id" jsonschema:"required"`
	DatasetContainerName string  `json:"dataset_container_name" jsonschema:"required"`
	ModelContainerName   string  `json:"model_container_name" jsonschema:"required"`
	Epochs               int     `json:"epochs" jsonschema:"required"`
	BatchSize            int     `json:"batch_size" jsonschema:"required"`
	LearningRate         float64 `json:"learning_rate" jsonschema:"required"`
}

// TaskType implements Message.
func (TrainModel) TaskType() string { return TaskTrain }

// NewTrainModel fills in the fixed hyperparameters.
func NewTrainModel(modelID, datasetContainer, modelContainer string) TrainModel {
	return TrainModel{
		ModelID:              modelID,
		DatasetContainerName: datasetContainer,
		ModelContainerName:   modelContainer,
		Epochs:               DefaultEpochs,
		BatchSize:            DefaultBatchSize,
		LearningRate:         DefaultLearningRate,
	}
}

// IdentifyWriter asks the executor to run a task asynchronously.
type IdentifyWriter struct {
	TaskID               string   `json:"task_id" jsonschema:"required"`
	TaskContainerName    string   `json:"task_container_name" jsonschema:"required"`
	DatasetContainerName string   `json:"dataset_container_name" jsonschema:"required"`
	ModelContainerName   string   `json:"model_container_name,omitempty"`
	UseDefaultModel      bool     `json:"use_default_model"`
	SelectedWriters      []string `json:"selected_writers" jsonschema:"required"`
	QueryImage           string   `json:"query_image" jsonschema:"required"`
	ConfidenceThreshold  float64  `json:"confidence_threshold"`
	Preprocess           bool     `json:"preprocess"`
}

// TaskType implements Message.
func (IdentifyWriter) TaskType() string { return TaskIdentifyWriter }

// envelopeShape mirrors Envelope for schema reflection; parameters must be an object.
type envelopeShape struct {
	Task       string                 `json:"task" jsonschema:"required"`
	Parameters map[string]interface{} `json:"parameters" jsonschema:"required"`
}

type decoder func(data []byte) (Message, error)

func decoderFor[T Message](schema *payload.Schema) decoder {
	return func(data []byte) (Message, error) {
		var m T
		if err := schema.Decode(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

var (
	envelopeSchema = payload.NewSchema(&envelopeShape{})
	decoders       = map[string]decoder{
		TaskAnalyzeDataset: decoderFor[AnalyzeDataset](payload.NewSchema(&AnalyzeDataset{})),
		TaskTrain:          decoderFor[TrainModel](payload.NewSchema(&TrainModel{})),
		TaskIdentifyWriter: decoderFor[IdentifyWriter](payload.NewSchema(&IdentifyWriter{})),
	}
)

// Encode wraps msg in an envelope.
func Encode(msg Message) ([]byte, error) {
	params, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s parameters: %w", msg.TaskType(), err)
	}
	return json.Marshal(Envelope{Task: msg.TaskType(), Parameters: params})
}

// Decode validates an envelope and returns the typed message it carries.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := envelopeSchema.Decode(data, &env); err != nil {
		return nil, err
	}
	decode, ok := decoders[env.Task]
	if !ok {
		return nil, fmt.Errorf("%w: unknown task type %q", payload.ErrInvalidPayload, env.Task)
	}
	return decode(env.Parameters)
}
