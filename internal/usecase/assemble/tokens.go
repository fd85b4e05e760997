package assemble

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// DefaultWordsPerToken is the fixed ratio used by WordCounter.
const DefaultWordsPerToken = 0.75

// WordCounter estimates tokens from the whitespace word count.
type WordCounter struct {
	WordsPerToken float64
}

// Count implements TokenCounter.
func (w WordCounter) Count(text string) int {
	ratio := w.WordsPerToken
	if ratio <= 0 {
		ratio = DefaultWordsPerToken
	}
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) / ratio))
}

// TiktokenCounter counts BPE tokens. The encoding is loaded on first use;
// when it cannot be loaded the word estimate is used instead.
type TiktokenCounter struct {
	encoding string
	fallback WordCounter
	logger   *zap.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the named encoding, e.g. cl100k_base.
func NewTiktokenCounter(encoding string, fallback WordCounter, logger *zap.Logger) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TiktokenCounter{encoding: encoding, fallback: fallback, logger: logger}
}

// Count implements TokenCounter.
func (t *TiktokenCounter) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.logger.Warn("Tiktoken encoding unavailable, estimating by words",
				zap.String("encoding", t.encoding),
				zap.Error(err),
			)
			return
		}
		t.enc = enc
	})
	if t.enc == nil {
		return t.fallback.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}
