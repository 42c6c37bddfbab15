package port

// TempFileStore hands out unique scratch paths and deletes them again.
type TempFileStore interface {
	// Allocate reserves a new empty file whose name ends in suffix and returns its path.
	Allocate(suffix string) (string, error)
	// Release deletes path. Releasing an already absent file is not an error.
	Release(path string) error
	// Dir returns the scratch directory.
	Dir() string
}
