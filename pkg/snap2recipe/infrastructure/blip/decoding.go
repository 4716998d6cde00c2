package blip

import (
	"context"
	"errors"
)

var ErrNoLogits = errors.New("the decoder returned no logits")

// nextTokenLogits runs the decoder over the sequence so far and returns the logits for the next position.
type nextTokenLogits func(ids []int64) ([]float32, error)

// greedyDecode always picks the most likely token, which keeps captions deterministic for the same image.
// The returned sequence starts with BOS and doesn't include EOS.
func greedyDecode(ctx context.Context, bos, eos int64, maxLength int, next nextTokenLogits) ([]int64, error) {
	ids := []int64{bos}
	for len(ids) < maxLength {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits, err := next(ids)
		if err != nil {
			return nil, err
		}
		if len(logits) == 0 {
			return nil, ErrNoLogits
		}
		token := int64(argmax(logits))
		if token == eos {
			break
		}
		ids = append(ids, token)
	}
	return ids, nil
}

// argmax returns the first index of the maximum, so ties resolve the same way every time.
func argmax(values []float32) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
