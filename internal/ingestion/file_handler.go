package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// FileHandler manages CV files stored in an uploads directory
type FileHandler struct {
	uploadsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// SaveUploadedFile saves an uploaded file to the uploads directory
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	// Only the base name is kept so uploads cannot escape the directory
	filePath := filepath.Join(fh.uploadsDir, filepath.Base(filename))
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadDocuments loads every supported CV in the uploads directory, sorted by file name.
// The position in the returned slice is the document's upload index.
func (fh *FileHandler) LoadDocuments() ([]models.Document, error) {
	entries, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(fh.uploadsDir, entry.Name()))
	}
	sort.Strings(paths)

	return LoadFiles(paths, true)
}

// LoadFiles reads the given files in order.
// With skipUnsupported set, files of unknown format are ignored instead of failing the load.
func LoadFiles(paths []string, skipUnsupported bool) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		name := filepath.Base(path)
		format, ok := DetectFormat(name, data)
		if !ok {
			if skipUnsupported {
				continue
			}
			return nil, fmt.Errorf("unsupported file type: %s", name)
		}

		docs = append(docs, models.Document{
			Name:   name,
			Format: format,
			Data:   data,
			Index:  len(docs),
		})
	}
	return docs, nil
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
