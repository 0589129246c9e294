package payload

import (
	"errors"
	"testing"
)

func TestParseAnalysisResult(t *testing.T) {
	res, err := ParseAnalysisResult([]byte(`{
		"num_writers": 2,
		"writer_names": ["w2", "w1"],
		"min_samples": 3,
		"max_samples": 5,
		"writer_counts": {"w2": 3, "w1": 5},
		"extra": true
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	writers := res.Writers()
	if len(writers) != 2 || writers[0].ID != "w1" || writers[0].SampleCount != 5 {
		t.Fatalf("unexpected writers: %+v", writers)
	}
}

func TestParseAnalysisResultRejectsMissingFields(t *testing.T) {
	_, err := ParseAnalysisResult([]byte(`{"num_writers": 2}`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	_, err = ParseAnalysisResult([]byte(`{"num_writers": "two", "writer_names": [], "writer_counts": {}}`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestParsePredictionResult(t *testing.T) {
	res, err := ParsePredictionResult([]byte(`{"task_id":"t","query_image":"query.png","prediction":{"writer_id":"w1","confidence":0.93}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Prediction.WriterID != "w1" || res.Prediction.Confidence != 0.93 {
		t.Fatalf("unexpected prediction: %+v", res)
	}

	if _, err := ParsePredictionResult([]byte(`{"prediction":{"confidence":0.5}}`)); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected missing writer_id to fail, got %v", err)
	}
	if _, err := ParsePredictionResult([]byte(`not json`)); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected malformed json to fail, got %v", err)
	}
}

func TestParseTrainingResult(t *testing.T) {
	res, err := ParseTrainingResult([]byte(`{"accuracy":0.9,"f1_score":0.88,"backbone":"resnet18","confusion_matrix":[[1,0],[0,1]]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Backbone != "resnet18" || len(res.ConfusionMatrix) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestIsJSONObject(t *testing.T) {
	if !IsJSONObject([]byte(`{"a":1}`)) {
		t.Errorf("object not recognised")
	}
	if IsJSONObject([]byte(`[1]`)) || IsJSONObject([]byte(`null`)) {
		t.Errorf("non-object accepted")
	}
}
