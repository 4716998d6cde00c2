package clip

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var (
	ErrMissingLabelEmbedding = errors.New("no text embedding for label")
	ErrEmbeddingSize         = errors.New("embedding has a wrong size")
)

// Metadata describes the exported image encoder and carries the text side of the model: label embeddings are
// computed once at export time, so no tokenizer or text encoder is needed at runtime.
type Metadata struct {
	ImageSize     int                  `json:"image_size"`
	Mean          [3]float32           `json:"mean"`
	Std           [3]float32           `json:"std"`
	InputName     string               `json:"input_name"`
	OutputName    string               `json:"output_name"`
	EmbeddingSize int                  `json:"embedding_size"`
	LogitScale    float64              `json:"logit_scale"`
	Labels        map[string][]float64 `json:"label_embeddings"`
}

func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read CLIP metadata: %w", err)
	}
	return ParseMetadata(data)
}

// ParseMetadata fills in the defaults of openai/clip-vit-base-patch32 for missing fields.
func ParseMetadata(data []byte) (Metadata, error) {
	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse CLIP metadata: %w", err)
	}
	if metadata.ImageSize <= 0 {
		metadata.ImageSize = 224
	}
	if metadata.Std == [3]float32{} {
		metadata.Mean = [3]float32{0.48145466, 0.4578275, 0.40821073}
		metadata.Std = [3]float32{0.26862954, 0.26130258, 0.27577711}
	}
	if metadata.InputName == "" {
		metadata.InputName = "pixel_values"
	}
	if metadata.OutputName == "" {
		metadata.OutputName = "image_embeds"
	}
	if metadata.EmbeddingSize <= 0 {
		metadata.EmbeddingSize = 512
	}
	if metadata.LogitScale <= 0 {
		metadata.LogitScale = 100
	}
	for label, embedding := range metadata.Labels {
		if len(embedding) != metadata.EmbeddingSize {
			return Metadata{}, fmt.Errorf("%w: %q has %d values, expected %d", ErrEmbeddingSize, label, len(embedding), metadata.EmbeddingSize)
		}
		metadata.Labels[label] = normalize(embedding)
	}
	return metadata, nil
}

// CheckLabels makes sure every label the classifier will ask about has an embedding.
func (m Metadata) CheckLabels(labels []string) error {
	for _, label := range labels {
		if _, ok := m.Labels[label]; !ok {
			return fmt.Errorf("%w %q", ErrMissingLabelEmbedding, label)
		}
	}
	return nil
}

// Logits mirrors CLIP's forward pass: the scaled cosine similarity between the image and every label.
func (m Metadata) Logits(imageEmbedding []float64, labels []string) ([]float64, error) {
	if len(imageEmbedding) != m.EmbeddingSize {
		return nil, fmt.Errorf("%w: image embedding has %d values, expected %d", ErrEmbeddingSize, len(imageEmbedding), m.EmbeddingSize)
	}
	imageEmbedding = normalize(imageEmbedding)
	logits := make([]float64, len(labels))
	for i, label := range labels {
		labelEmbedding, ok := m.Labels[label]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingLabelEmbedding, label)
		}
		logits[i] = m.LogitScale * dot(imageEmbedding, labelEmbedding)
	}
	return logits, nil
}

func normalize(vector []float64) []float64 {
	norm := math.Sqrt(dot(vector, vector))
	result := make([]float64, len(vector))
	if norm == 0 {
		return result
	}
	for i, value := range vector {
		result[i] = value / norm
	}
	return result
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
