// Package validation checks user-supplied paths and source files before the
// CLI reads or writes them.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/outline/internal/archive"
)

// Limits on accepted input (CWE-400).
const (
	// MaxFileSize is the largest source file accepted (64 MB).
	MaxFileSize = 64 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrTypeMismatch     = errors.New("file content does not match its extension")
)

// ValidatePath checks a path for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateFilename checks the final element of an output path.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Could be mistaken for a flag.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ValidateOutputPath checks a path the CLI is about to write.
func ValidateOutputPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	return ValidateFilename(filepath.Base(path))
}

// FileType is the kind of content found in a source file.
type FileType string

// File types.
const (
	FileTypeText    FileType = "text"
	FileTypeXZ      FileType = "xz"
	FileTypeGzip    FileType = "gzip"
	FileTypeUnknown FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// ValidateSourceFile checks that path names a regular file within the size
// limit whose content matches its compression suffix.
func ValidateSourceFile(path string) (FileType, error) {
	if err := ValidatePath(path); err != nil {
		return FileTypeUnknown, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	if !info.Mode().IsRegular() {
		return FileTypeUnknown, fmt.Errorf("%s: not a regular file", path)
	}
	if info.Size() > MaxFileSize {
		return FileTypeUnknown, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer f.Close()
	return checkContent(f, path)
}

func checkContent(r io.Reader, path string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	var expected FileType
	switch archive.DetectCompression(path) {
	case archive.XZ:
		expected = FileTypeXZ
	case archive.Gzip:
		expected = FileTypeGzip
	default:
		expected = FileTypeText
		if detected == FileTypeUnknown && (n == 0 || isLikelyText(buf)) {
			detected = FileTypeText
		}
	}
	if detected != expected {
		return FileTypeUnknown, fmt.Errorf("%w: extension suggests %s but content is %s", ErrTypeMismatch, expected, detected)
	}
	return detected, nil
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// isLikelyText reports whether buf looks like text: no NUL bytes and almost
// no control characters.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 || bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	control := 0
	for _, b := range buf {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
	}
	return float64(control)/float64(len(buf)) < 0.05
}
