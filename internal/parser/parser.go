package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType represents the type of document file
type FileType int

const (
	TypeUnknown FileType = iota
	TypePDF
	TypeDOCX
	TypeText
)

func (t FileType) String() string {
	switch t {
	case TypePDF:
		return "pdf"
	case TypeDOCX:
		return "docx"
	case TypeText:
		return "text"
	default:
		return "unknown"
	}
}

// MaxFileSize is the maximum allowed file size (10MB)
const MaxFileSize = 10 * 1024 * 1024

var (
	// ErrUnsupportedType is returned for extensions other than .pdf, .docx and .txt.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when a document exceeds MaxFileSize.
	ErrTooLarge = errors.New("file too large")
	// ErrNoText is returned when a document contains no extractable text.
	ErrNoText = errors.New("no text content found")
)

// DetectFileType determines the file type based on extension
func DetectFileType(filename string) FileType {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".txt", ".md":
		return TypeText
	default:
		return TypeUnknown
	}
}

// ValidateFileSize checks if a file is within the size limit
func ValidateFileSize(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size(), MaxFileSize)
	}

	return nil
}

// ValidateFilename checks for path traversal and other malicious patterns
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename is empty")
	}

	// Check for path traversal
	if strings.Contains(filename, "..") {
		return fmt.Errorf("filename contains path traversal: ..")
	}

	// Check for absolute paths
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return fmt.Errorf("filename cannot be an absolute path")
	}

	// Check for null bytes
	if strings.ContainsRune(filename, '\x00') {
		return fmt.Errorf("filename contains null byte")
	}

	// Check for newlines
	if strings.ContainsRune(filename, '\n') || strings.ContainsRune(filename, '\r') {
		return fmt.Errorf("filename contains newline character")
	}

	return nil
}

// Extract reads an uploaded document and returns its text. The type is
// chosen from the filename extension.
func Extract(r io.Reader, filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	fileType := DetectFileType(filename)
	if fileType == TypeUnknown {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(content) > MaxFileSize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxFileSize)
	}

	switch fileType {
	case TypePDF:
		return extractPDF(content)
	case TypeDOCX:
		return extractDOCX(content)
	default:
		return extractText(content)
	}
}

// CheckFile validates a document on disk before it is uploaded: the name,
// the extension and the size must all be acceptable to Extract.
func CheckFile(filePath string) error {
	name := filepath.Base(filePath)
	if err := ValidateFilename(name); err != nil {
		return err
	}
	if DetectFileType(name) == TypeUnknown {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(name))
	}
	return ValidateFileSize(filePath)
}
