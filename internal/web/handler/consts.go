package handler

const (
	// RootPath is the root path of the JSON API route group.
	RootPath = "/api/"

	// ErrNilACDFatalLogMsg is used if app or cfg or deps var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or deps is nil"
)
