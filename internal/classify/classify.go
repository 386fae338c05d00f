// Package classify defines the pipeline's contract with the trained sign
// classifier and an HTTP adapter for an external inference service.
//
// The pipeline only depends on the Classifier interface: crop path in,
// ranked label list out. Model internals (framework, weights, preprocessing
// beyond resizing) stay on the service side.
package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/disintegration/imaging"
)

// Prediction is one ranked classification result.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Classifier maps a sign crop to a ranked list of label predictions,
// highest probability first.
type Classifier interface {
	Predict(cropPath string) ([]Prediction, error)
}

// HTTPClassifier sends crops to an external inference service over HTTP.
//
// The crop is resized to the model's square input edge before upload, so
// the service never has to care about crop geometry, and posted as a
// multipart file field named "file". The service answers with a JSON body
// of the form {"predictions": [{"label": ..., "probability": ...}, ...]}.
type HTTPClassifier struct {
	// URL is the inference endpoint.
	URL string

	// InputSize is the square model input edge in pixels.
	InputSize int

	// Client is the HTTP client used for requests. Defaults to a client
	// with a 60 second timeout.
	Client *http.Client
}

// NewHTTPClassifier returns an HTTPClassifier for the given endpoint and
// model input size.
func NewHTTPClassifier(url string, inputSize int) *HTTPClassifier {
	return &HTTPClassifier{
		URL:       url,
		InputSize: inputSize,
		Client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Predict uploads the crop and returns the service's ranked predictions.
// Results are re-sorted by descending probability in case the service
// returns them unordered.
func (c *HTTPClassifier) Predict(cropPath string) ([]Prediction, error) {
	img, err := imaging.Open(cropPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open crop: %w", err)
	}
	resized := imaging.Resize(img, c.InputSize, c.InputSize, imaging.Lanczos)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "crop.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := png.Encode(part, resized); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}

	sort.SliceStable(result.Predictions, func(i, j int) bool {
		return result.Predictions[i].Probability > result.Predictions[j].Probability
	})
	return result.Predictions, nil
}

// Disabled is a Classifier that predicts nothing. Used when no inference
// service is configured, so the extraction pipeline still runs end to end.
type Disabled struct{}

// Predict returns an empty ranking.
func (Disabled) Predict(string) ([]Prediction, error) {
	return nil, nil
}
