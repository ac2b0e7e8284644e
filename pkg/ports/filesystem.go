package ports

// FileSystem is the file access behind image loading, output preparation and
// every small file framereel writes. Encoder backends write their container
// files directly.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file at path with data, creating parent directories.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. A missing path is not an error.
	Remove(path string) error
}
