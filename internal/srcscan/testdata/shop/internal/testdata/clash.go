package testdata

// Nested testdata directories are not scanned.
type Store struct{}
