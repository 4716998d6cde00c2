package blip

import (
	"context"
	"fmt"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/onnx"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// ConfigKeyEncoderPath the exported BLIP vision model (pixel_values -> image_embeds).
	ConfigKeyEncoderPath = "blipEncoderPath"
	// ConfigKeyDecoderPath the exported BLIP text decoder with the LM head
	// (input_ids, attention_mask, encoder_hidden_states -> logits).
	ConfigKeyDecoderPath = "blipDecoderPath"
	// ConfigKeyMetadataPath optional; see Metadata.
	ConfigKeyMetadataPath = "blipMetadataPath"
	// ConfigKeyVocabPath the BERT vocab.txt the model was trained with.
	ConfigKeyVocabPath = "blipVocabPath"
)

// Describer unconditional image captioning with BLIP. Safe for concurrent use.
type Describer struct {
	environment *onnx.Environment
	encoder     *ort.DynamicAdvancedSession
	decoder     *ort.DynamicAdvancedSession
	metadata    Metadata
	vocabulary  *Vocabulary
}

func NewDescriber(config *common.Config) (*Describer, error) {
	metadata, err := LoadMetadata(config.GetString(ConfigKeyMetadataPath))
	if err != nil {
		return nil, err
	}
	vocabulary, err := LoadVocabulary(config.GetString(ConfigKeyVocabPath))
	if err != nil {
		return nil, err
	}
	environment, err := onnx.AcquireEnvironment(config.GetString(onnx.ConfigKeySharedLibraryPath))
	if err != nil {
		return nil, err
	}
	describer := &Describer{
		environment: environment,
		metadata:    metadata,
		vocabulary:  vocabulary,
	}
	describer.encoder, err = ort.NewDynamicAdvancedSession(
		config.GetString(ConfigKeyEncoderPath),
		[]string{metadata.EncoderInputName},
		[]string{metadata.EncoderOutputName},
		nil,
	)
	if err != nil {
		describer.Close()
		return nil, fmt.Errorf("failed to create BLIP encoder session: %w", err)
	}
	inputNames := metadata.DecoderInputNames
	describer.decoder, err = ort.NewDynamicAdvancedSession(
		config.GetString(ConfigKeyDecoderPath),
		[]string{inputNames.InputIDs, inputNames.AttentionMask, inputNames.EncoderHiddenStates},
		[]string{metadata.DecoderOutputName},
		nil,
	)
	if err != nil {
		describer.Close()
		return nil, fmt.Errorf("failed to create BLIP decoder session: %w", err)
	}
	return describer, nil
}

func (d *Describer) Name() string {
	return "blip"
}

func (d *Describer) Describe(ctx context.Context, img *domain.Image) (string, error) {
	imageEmbeds, err := d.encode(img)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = imageEmbeds.Destroy()
	}()
	ids, err := greedyDecode(ctx, d.metadata.BOSTokenID, d.metadata.EOSTokenID, d.metadata.MaxLength, func(ids []int64) ([]float32, error) {
		return d.decodeStep(ids, imageEmbeds)
	})
	if err != nil {
		return "", err
	}
	return d.vocabulary.Decode(ids), nil
}

func (d *Describer) encode(img *domain.Image) (*ort.Tensor[float32], error) {
	size := d.metadata.ImageSize
	pixels := onnx.ToCHW(img, size, onnx.ResizeStretch, onnx.Normalization{Mean: d.metadata.Mean, Std: d.metadata.Std})
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		_ = input.Destroy()
	}()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(d.metadata.ImageEmbedsShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	if err := d.encoder.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		_ = output.Destroy()
		return nil, fmt.Errorf("encoder inference failed: %w", err)
	}
	return output, nil
}

// decodeStep runs the decoder without a KV cache: the whole prefix is fed every time. Captions are short, so the
// quadratic cost doesn't matter.
func (d *Describer) decodeStep(ids []int64, imageEmbeds *ort.Tensor[float32]) ([]float32, error) {
	length := int64(len(ids))
	shape := ort.NewShape(1, length)
	inputIDs, err := ort.NewTensor(shape, append([]int64(nil), ids...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer func() {
		_ = inputIDs.Destroy()
	}()
	mask := make([]int64, length)
	for i := range mask {
		mask[i] = 1
	}
	attentionMask, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer func() {
		_ = attentionMask.Destroy()
	}()
	vocabSize := d.metadata.VocabSize
	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, length, vocabSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create logits tensor: %w", err)
	}
	defer func() {
		_ = logits.Destroy()
	}()
	err = d.decoder.Run(
		[]ort.ArbitraryTensor{inputIDs, attentionMask, imageEmbeds},
		[]ort.ArbitraryTensor{logits},
	)
	if err != nil {
		return nil, fmt.Errorf("decoder inference failed: %w", err)
	}
	data := logits.GetData()
	last := append([]float32(nil), data[(length-1)*vocabSize:length*vocabSize]...)
	return last, nil
}

func (d *Describer) Close() {
	if d.encoder != nil {
		_ = d.encoder.Destroy()
		d.encoder = nil
	}
	if d.decoder != nil {
		_ = d.decoder.Destroy()
		d.decoder = nil
	}
	d.environment.Release()
}
