package prompts

// Option configures a Library.
type Option func(*Library)

// WithPreparedCacheSize bounds how many prepared references are kept.
// Values below one fall back to the default.
func WithPreparedCacheSize(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.cacheSize = n
		}
	}
}
