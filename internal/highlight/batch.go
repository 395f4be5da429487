package highlight

import (
	"cmp"
	"context"
	"slices"
)

// LineRequest asks for one line to be classified as it read when the
// request was built.
type LineRequest struct {
	Index int
	Text  string
}

// Batch is one classification request.
type Batch struct {
	Model string
	Lines []LineRequest
	// Full is set when the batch covers the whole buffer.
	Full bool
}

// Merge folds newer into b: the union of both line sets, each line carrying
// its most recent text, ordered by index. The newer model wins.
func (b Batch) Merge(newer Batch) Batch {
	byIndex := make(map[int]string, len(b.Lines)+len(newer.Lines))
	for _, lr := range b.Lines {
		byIndex[lr.Index] = lr.Text
	}
	for _, lr := range newer.Lines {
		byIndex[lr.Index] = lr.Text
	}

	lines := make([]LineRequest, 0, len(byIndex))
	for i, text := range byIndex {
		lines = append(lines, LineRequest{Index: i, Text: text})
	}
	slices.SortFunc(lines, func(x, y LineRequest) int { return cmp.Compare(x.Index, y.Index) })

	return Batch{Model: newer.Model, Lines: lines, Full: b.Full || newer.Full}
}

// Indices returns the line indices in request order.
func (b Batch) Indices() []int {
	out := make([]int, len(b.Lines))
	for i, lr := range b.Lines {
		out[i] = lr.Index
	}
	return out
}

type fullPassKey struct{}

// WithFullPass marks ctx as carrying a whole-buffer request. Classifiers
// that cache per line must not answer such a request from the cache.
func WithFullPass(ctx context.Context) context.Context {
	return context.WithValue(ctx, fullPassKey{}, true)
}

// IsFullPass reports whether ctx was marked by WithFullPass.
func IsFullPass(ctx context.Context) bool {
	full, _ := ctx.Value(fullPassKey{}).(bool)
	return full
}
