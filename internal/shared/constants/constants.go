package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// WellKnownPath is where RFC 9116 expects the file.
	WellKnownPath = "/.well-known/security.txt"
	// TopLevelPath is the legacy location still checked for compatibility.
	TopLevelPath = "/security.txt"
	// MaxRedirects is the longest redirect chain followed per URL.
	MaxRedirects = 5
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes = 1 << 20
	// UserAgent identifies the fetcher to remote servers.
	UserAgent = "securitytxt-checker/1.0 (+https://www.rfc-editor.org/rfc/rfc9116)"
)

const (
	// DefaultRequestTimeout bounds a single HTTP request, redirects excluded.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultFetchDeadline bounds a whole host fetch, both paths and all redirects.
	DefaultFetchDeadline = 30 * time.Second
	// ExpiresTooLongDays is how far into the future Expires may be before it is flagged.
	ExpiresTooLongDays = 366
	// DefaultCacheTTL is how long a host check result stays cached.
	DefaultCacheTTL = 15 * time.Minute
)
