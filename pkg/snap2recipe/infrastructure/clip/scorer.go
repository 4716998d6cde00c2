package clip

import (
	"context"
	"fmt"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/onnx"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// ConfigKeyModelPath the exported CLIP vision tower with projection (pixel_values -> image_embeds).
	ConfigKeyModelPath = "clipModelPath"
	// ConfigKeyMetadataPath see Metadata.
	ConfigKeyMetadataPath = "clipMetadataPath"
)

// Scorer zero-shot image-text scorer backed by CLIP. Safe for concurrent use: every call allocates its own tensors.
type Scorer struct {
	environment *onnx.Environment
	session     *ort.DynamicAdvancedSession
	metadata    Metadata
}

// NewScorer loads the model once; `labels` are checked against the stored text embeddings so that a
// misconfigured label set fails at startup instead of on the first photo.
func NewScorer(labels []string, config *common.Config) (*Scorer, error) {
	metadata, err := LoadMetadata(config.GetString(ConfigKeyMetadataPath))
	if err != nil {
		return nil, err
	}
	if err := metadata.CheckLabels(labels); err != nil {
		return nil, err
	}
	environment, err := onnx.AcquireEnvironment(config.GetString(onnx.ConfigKeySharedLibraryPath))
	if err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(
		config.GetString(ConfigKeyModelPath),
		[]string{metadata.InputName},
		[]string{metadata.OutputName},
		nil,
	)
	if err != nil {
		environment.Release()
		return nil, fmt.Errorf("failed to create CLIP session: %w", err)
	}
	return &Scorer{
		environment: environment,
		session:     session,
		metadata:    metadata,
	}, nil
}

func (s *Scorer) Score(ctx context.Context, img *domain.Image, labels []string) ([]float64, error) {
	size := s.metadata.ImageSize
	pixels := onnx.ToCHW(img, size, onnx.ResizeShortestSideAndCrop, onnx.Normalization{Mean: s.metadata.Mean, Std: s.metadata.Std})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		_ = input.Destroy()
	}()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(s.metadata.EmbeddingSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer func() {
		_ = output.Destroy()
	}()
	if err := s.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	raw := output.GetData()
	imageEmbedding := make([]float64, len(raw))
	for i, value := range raw {
		imageEmbedding[i] = float64(value)
	}
	return s.metadata.Logits(imageEmbedding, labels)
}

func (s *Scorer) Close() {
	if s.session != nil {
		_ = s.session.Destroy()
		s.session = nil
	}
	s.environment.Release()
}
