package shop

// Test files are not scanned; this declaration would clash with server.go.
type Server struct{}
