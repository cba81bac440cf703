package memo

// Option applies a configuration option to the in-memory memo.
type Option func(*inMemoryMemo)

// WithMaxSize sets the maximum number of results to keep.
// If maxSize <= 0 nothing is stored.
func WithMaxSize(maxSize int) Option {
	return func(m *inMemoryMemo) {
		m.maxSize = maxSize
	}
}
