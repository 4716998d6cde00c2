package domain

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

const (
	DefaultFoodLabel     = "a photo of food"
	DefaultFoodThreshold = 0.9
)

// DefaultFoodLabels zero-shot candidates: the food label competes against a few generic non-food descriptions.
var DefaultFoodLabels = []string{
	DefaultFoodLabel,
	"a photo of a random object",
	"a photo of a landscape",
	"a photo of an animal",
}

var (
	ErrFoodLabelMissing = errors.New("the food label is not among the candidate labels")
	ErrTooFewLabels     = errors.New("at least two candidate labels are required")
	ErrDuplicateLabel   = errors.New("the candidate labels must be unique")
	ErrInvalidThreshold = errors.New("the food threshold must be in [0, 1)")
	ErrScoreMismatch    = errors.New("the model returned a wrong number of scores")
	ErrInvalidScore     = errors.New("the model returned a non-finite score")
)

// LabelSet the classifier's configuration data: which labels an image is scored against, which of them means
// "food", and how confident the model must be.
type LabelSet struct {
	Labels    []string
	FoodLabel string
	// Threshold the image is food iff the normalized food score is strictly greater than this value.
	Threshold float64
}

func DefaultLabelSet() LabelSet {
	return LabelSet{
		Labels:    append([]string(nil), DefaultFoodLabels...),
		FoodLabel: DefaultFoodLabel,
		Threshold: DefaultFoodThreshold,
	}
}

func NewLabelSetFromConfig(config *common.Config) (LabelSet, error) {
	labelSet := LabelSet{
		Labels:    config.GetStringSliceOrDefault(ConfigKeyFoodLabels, DefaultFoodLabels),
		FoodLabel: config.GetStringOrDefault(ConfigKeyFoodLabel, DefaultFoodLabel),
		Threshold: config.GetFloatOrDefault(ConfigKeyFoodThreshold, DefaultFoodThreshold),
	}
	return labelSet, labelSet.Validate()
}

func (l LabelSet) Validate() error {
	if len(l.Labels) < 2 {
		return ErrTooFewLabels
	}
	seen := make(map[string]bool, len(l.Labels))
	for _, label := range l.Labels {
		if seen[label] {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
		}
		seen[label] = true
	}
	if !common.IsStringInSlice(l.FoodLabel, l.Labels) {
		return fmt.Errorf("%w: %q", ErrFoodLabelMissing, l.FoodLabel)
	}
	if math.IsNaN(l.Threshold) || l.Threshold < 0 || l.Threshold >= 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, l.Threshold)
	}
	return nil
}

// ImageTextScorer computes a joint image-text embedding score (a logit) between the image and every label, in the
// order of `labels`.
type ImageTextScorer interface {
	Score(ctx context.Context, img *Image, labels []string) ([]float64, error)
}

// ClassificationVerdict the food/not-food decision for one image.
type ClassificationVerdict struct {
	IsFood          bool
	FoodProbability float64
	Threshold       float64
	// Probabilities the softmax-normalized scores per label; they sum to 1.
	Probabilities map[string]float64
}

// FoodClassifier zero-shot food detector: scores the image against a fixed label set, normalizes the scores with
// softmax and thresholds the food label's probability.
type FoodClassifier struct {
	scorer    ImageTextScorer
	labelSet  LabelSet
	foodIndex int
}

func NewFoodClassifier(scorer ImageTextScorer, labelSet LabelSet) (*FoodClassifier, error) {
	if err := labelSet.Validate(); err != nil {
		return nil, err
	}
	return &FoodClassifier{
		scorer:    scorer,
		labelSet:  labelSet,
		foodIndex: common.IndexOfString(labelSet.FoodLabel, labelSet.Labels),
	}, nil
}

// Classify returns the verdict. Model failures are StageErrors of kind ClassificationError; there's no fallback.
func (c *FoodClassifier) Classify(ctx context.Context, img *Image) (ClassificationVerdict, error) {
	logits, err := c.scorer.Score(ctx, img, c.labelSet.Labels)
	if err != nil {
		return ClassificationVerdict{}, NewStageError(ClassificationError, err)
	}
	if len(logits) != len(c.labelSet.Labels) {
		return ClassificationVerdict{}, NewStageError(ClassificationError,
			fmt.Errorf("%w: expected %d, got %d", ErrScoreMismatch, len(c.labelSet.Labels), len(logits)))
	}
	for _, logit := range logits {
		if math.IsNaN(logit) || math.IsInf(logit, 0) {
			return ClassificationVerdict{}, NewStageError(ClassificationError, ErrInvalidScore)
		}
	}
	probabilities := Softmax(logits)
	verdict := ClassificationVerdict{
		FoodProbability: probabilities[c.foodIndex],
		Threshold:       c.labelSet.Threshold,
		Probabilities:   make(map[string]float64, len(probabilities)),
	}
	for i, label := range c.labelSet.Labels {
		verdict.Probabilities[label] = probabilities[i]
	}
	verdict.IsFood = IsAboveThreshold(verdict.FoodProbability, c.labelSet.Threshold)
	return verdict, nil
}

// IsAboveThreshold the acceptance rule: strictly greater, so a probability exactly at the threshold is rejected.
func IsAboveThreshold(probability, threshold float64) bool {
	return probability > threshold
}

// Softmax normalizes logits into probabilities. The maximum is subtracted first to avoid overflow.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, logit := range logits[1:] {
		maxLogit = math.Max(maxLogit, logit)
	}
	result := make([]float64, len(logits))
	sum := 0.0
	for i, logit := range logits {
		result[i] = math.Exp(logit - maxLogit)
		sum += result[i]
	}
	for i := range result {
		result[i] /= sum
	}
	return result
}
