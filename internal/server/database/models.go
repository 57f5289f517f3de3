package database

// Link maps a short token to its target URL.
type Link struct {
	ID       int64
	Short    string
	Original string
	HitCount int64 // computed from hits, not stored
}

// Hit records one successful resolution of a link.
type Hit struct {
	ID        int64
	LinkID    int64
	Time      int64   // unix seconds
	UserAgent *string // nil when the client sent no User-Agent header
}

// User is an account allowed to manage links.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
}
