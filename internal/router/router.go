// internal/router/router.go
package router

import "strings"

// Normalize prefixes p with exactly one leading separator and collapses
// runs of separators. Normalize(Normalize(p)) == Normalize(p).
func Normalize(p string) string {
	var sb strings.Builder
	sb.Grow(len(p) + 1)
	sb.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Join composes a controller base path and a handler path.
func Join(base, path string) string {
	return Normalize(base + "/" + path)
}

// StripContext removes the deployment prefix from a request path before
// normalising it. A request outside the prefix is returned normalised but
// otherwise untouched.
func StripContext(contextPath, requestPath string) string {
	contextPath = strings.TrimRight(Normalize(contextPath), "/")
	p := Normalize(requestPath)
	if contextPath == "" {
		return p
	}
	if p == contextPath {
		return "/"
	}
	if strings.HasPrefix(p, contextPath+"/") {
		return Normalize(strings.TrimPrefix(p, contextPath))
	}
	return p
}
