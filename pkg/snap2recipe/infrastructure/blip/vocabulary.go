package blip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

var ErrEmptyVocabulary = errors.New("the vocabulary is empty")

// Vocabulary a BERT WordPiece vocabulary (vocab.txt): the token on line N has ID N.
type Vocabulary struct {
	tokens []string
}

func LoadVocabulary(path string) (*Vocabulary, error) {
	lines, err := common.ReadAllLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the vocabulary: %w", err)
	}
	return NewVocabulary(lines)
}

func NewVocabulary(tokens []string) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return &Vocabulary{tokens: tokens}, nil
}

var tokenizationCleaner = strings.NewReplacer(
	" .", ".",
	" ?", "?",
	" !", "!",
	" ,", ",",
	" ' ", "'",
	" n't", "n't",
	" 'm", "'m",
	" 's", "'s",
	" 've", "'ve",
	" 're", "'re",
)

// Decode turns generated IDs back into text. Special tokens ("[CLS]", "[SEP]", ...) and IDs outside the vocabulary
// (BLIP's added "[DEC]") are skipped; "##" continuations are glued to the previous word.
func (v *Vocabulary) Decode(ids []int64) string {
	var builder strings.Builder
	for _, id := range ids {
		if id < 0 || id >= int64(len(v.tokens)) {
			continue
		}
		token := v.tokens[id]
		if isSpecialToken(token) {
			continue
		}
		if continuation, ok := strings.CutPrefix(token, "##"); ok && builder.Len() > 0 {
			builder.WriteString(continuation)
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(token)
	}
	return tokenizationCleaner.Replace(builder.String())
}

func isSpecialToken(token string) bool {
	return len(token) > 2 && strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]")
}
