package tokenizer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// BatchTokenizer encodes many texts concurrently and shapes the result into
// fixed-width rows with attention masks.
type BatchTokenizer struct {
	enc *Encoder
	cfg Config
}

var _ Tokenizer = (*BatchTokenizer)(nil)

// NewBatchTokenizer wraps enc. Workers defaults to the number of CPUs.
func NewBatchTokenizer(enc *Encoder, cfg Config) *BatchTokenizer {
	if cfg.Workers <= 0 {
		cfg.Workers = min(max(runtime.NumCPU(), 1), 32)
	}
	return &BatchTokenizer{enc: enc, cfg: cfg}
}

func (b *BatchTokenizer) Tokenize(texts []string) ([][]int64, [][]int64, error) {
	return b.TokenizeContext(context.Background(), texts)
}

// TokenizeContext is Tokenize with cancellation. The first failing text
// cancels the remaining work.
func (b *BatchTokenizer) TokenizeContext(ctx context.Context, texts []string) ([][]int64, [][]int64, error) {
	rows := make([][]int, len(texts))

	p := pool.New().WithMaxGoroutines(b.cfg.Workers).WithContext(ctx).WithCancelOnError()
	for i, txt := range texts {
		i, txt := i, txt
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids, err := b.enc.Encode(txt)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			rows[i] = ids
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	width := b.cfg.MaxSeqLen
	if width <= 0 {
		for _, r := range rows {
			width = max(width, len(r))
		}
	}

	ids := make([][]int64, len(texts))
	masks := make([][]int64, len(texts))
	for i, r := range rows {
		rowIDs := make([]int64, width)
		rowMask := make([]int64, width)
		n := min(len(r), width)
		for j := 0; j < n; j++ {
			rowIDs[j] = int64(r[j])
			rowMask[j] = 1
		}
		for j := n; j < width; j++ {
			rowIDs[j] = b.cfg.PadID
		}
		ids[i] = rowIDs
		masks[i] = rowMask
	}
	return ids, masks, nil
}
