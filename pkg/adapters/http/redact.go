package http

import (
	"regexp"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Masked replaces redacted conversation data values.
const Masked = "***"

// WithRedaction masks conversation data whose key matches any of the
// patterns before it leaves the server. Nested maps are masked too.
// It panics on an invalid pattern.
func WithRedaction(patterns ...string) Option {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return func(s *Server) {
		s.redact = append(s.redact, compiled...)
	}
}

// redacted returns st with its data masked. st.Data is never modified.
func (s *Server) redacted(st domain.State) domain.State {
	if len(s.redact) == 0 || len(st.Data) == 0 {
		return st
	}
	st.Data = maskMap(st.Data, s.redact)
	return st
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if matchesAny(k, patterns) {
			out[k] = Masked
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			v = maskMap(sub, patterns)
		}
		out[k] = v
	}
	return out
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
