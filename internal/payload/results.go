package payload

import "sort"

// Well-known result objects inside entity containers.
const (
	AnalysisResultsFile = "analysis-results.json"
	TrainingResultsFile = "training-results.json"
)

// AnalysisResult describes the writers found in a dataset.
type AnalysisResult struct {
	NumWriters   int            `json:"num_writers" jsonschema:"required"`
	WriterNames  []string       `json:"writer_names" jsonschema:"required"`
	MinSamples   int            `json:"min_samples"`
	MaxSamples   int            `json:"max_samples"`
	WriterCounts map[string]int `json:"writer_counts" jsonschema:"required"`
}

// Writer is one selectable writer of an analyzed dataset.
type Writer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SampleCount int    `json:"sample_count"`
}

// Writers lists the writers sorted by id.
func (a *AnalysisResult) Writers() []Writer {
	seen := make(map[string]bool, len(a.WriterCounts))
	writers := make([]Writer, 0, len(a.WriterCounts))
	for id, count := range a.WriterCounts {
		seen[id] = true
		writers = append(writers, Writer{ID: id, Name: id, SampleCount: count})
	}
	for _, name := range a.WriterNames {
		if !seen[name] {
			seen[name] = true
			writers = append(writers, Writer{ID: name, Name: name})
		}
	}
	sort.Slice(writers, func(i, j int) bool { return writers[i].ID < writers[j].ID })
	return writers
}

// TrainingResult is reported by the executor when a model finishes training.
type TrainingResult struct {
	Accuracy          float64     `json:"accuracy"`
	F1Score           float64     `json:"f1_score"`
	Precision         float64     `json:"precision"`
	Recall            float64     `json:"recall"`
	ConfusionMatrix   [][]float64 `json:"confusion_matrix,omitempty"`
	Time              float64     `json:"time"`
	RequestedEpisodes int         `json:"requested_episodes"`
	ActualEpisodesRun int         `json:"actual_episodes_run"`
	OptimalValEpisode int         `json:"optimal_val_episode"`
	BestValAccuracy   float64     `json:"best_val_accuracy"`
	Backbone          string      `json:"backbone,omitempty"`
	Error             string      `json:"error,omitempty"`
	OptimalThreshold  float64     `json:"optimal_threshold"`
	ThresholdAccuracy float64     `json:"threshold_accuracy"`
}

// Prediction is the identified writer and its confidence.
type Prediction struct {
	WriterID   string  `json:"writer_id" jsonschema:"required"`
	Confidence float64 `json:"confidence" jsonschema:"required"`
}

// PredictionResult is returned by the executor for one task.
type PredictionResult struct {
	TaskID     string     `json:"task_id,omitempty"`
	QueryImage string     `json:"query_image,omitempty"`
	Prediction Prediction `json:"prediction" jsonschema:"required"`
}

var (
	analysisSchema   = NewSchema(&AnalysisResult{})
	trainingSchema   = NewSchema(&TrainingResult{})
	predictionSchema = NewSchema(&PredictionResult{})
)

// ParseAnalysisResult validates and decodes an analysis document.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	var res AnalysisResult
	if err := analysisSchema.Decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseTrainingResult validates and decodes a training document.
func ParseTrainingResult(data []byte) (*TrainingResult, error) {
	var res TrainingResult
	if err := trainingSchema.Decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ParsePredictionResult validates and decodes a prediction document.
func ParsePredictionResult(data []byte) (*PredictionResult, error) {
	var res PredictionResult
	if err := predictionSchema.Decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
