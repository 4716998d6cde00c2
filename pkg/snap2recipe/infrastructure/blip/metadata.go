package blip

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata the shapes and special tokens of an exported BLIP captioning model. Zero fields get the values of
// Salesforce/blip-image-captioning-base.
type Metadata struct {
	ImageSize int        `json:"image_size"`
	Mean      [3]float32 `json:"mean"`
	Std       [3]float32 `json:"std"`

	// ImageEmbedsShape the encoder's output shape: [1, patches + 1, hidden size].
	ImageEmbedsShape []int64 `json:"image_embeds_shape"`
	VocabSize        int64   `json:"vocab_size"`
	BOSTokenID       int64   `json:"bos_token_id"`
	EOSTokenID       int64   `json:"eos_token_id"`
	// MaxLength includes the BOS token.
	MaxLength        int     `json:"max_length"`

	EncoderInputName  string `json:"encoder_input_name"`
	EncoderOutputName string `json:"encoder_output_name"`
	DecoderInputNames struct {
		InputIDs            string `json:"input_ids"`
		AttentionMask       string `json:"attention_mask"`
		EncoderHiddenStates string `json:"encoder_hidden_states"`
	} `json:"decoder_input_names"`
	DecoderOutputName string `json:"decoder_output_name"`
}

func LoadMetadata(path string) (Metadata, error) {
	if path == "" {
		return ParseMetadata([]byte("{}"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read BLIP metadata: %w", err)
	}
	return ParseMetadata(data)
}

func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse BLIP metadata: %w", err)
	}
	if m.ImageSize <= 0 {
		m.ImageSize = 384
	}
	if m.Std == [3]float32{} {
		m.Mean = [3]float32{0.48145466, 0.4578275, 0.40821073}
		m.Std = [3]float32{0.26862954, 0.26130258, 0.27577711}
	}
	if len(m.ImageEmbedsShape) != 3 {
		patches := int64(m.ImageSize/16) * int64(m.ImageSize/16)
		m.ImageEmbedsShape = []int64{1, patches + 1, 768}
	}
	if m.VocabSize <= 0 {
		m.VocabSize = 30524
	}
	if m.BOSTokenID == 0 {
		m.BOSTokenID = 30522
	}
	if m.EOSTokenID == 0 {
		m.EOSTokenID = 102
	}
	if m.MaxLength <= 1 {
		m.MaxLength = 20
	}
	setDefault(&m.EncoderInputName, "pixel_values")
	setDefault(&m.EncoderOutputName, "image_embeds")
	setDefault(&m.DecoderInputNames.InputIDs, "input_ids")
	setDefault(&m.DecoderInputNames.AttentionMask, "attention_mask")
	setDefault(&m.DecoderInputNames.EncoderHiddenStates, "encoder_hidden_states")
	setDefault(&m.DecoderOutputName, "logits")
	return m, nil
}

func setDefault(value *string, defaultValue string) {
	if *value == "" {
		*value = defaultValue
	}
}
