package util

import (
	"os"
	"path/filepath"
	"strings"
)

// VideoExtensions is the set of extensions recognized in directory mode:
// {mp4,mkv,mov,avi,wmv}.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
	".avi": true,
	".wmv": true,
}

// IsVideoFile reports whether path is a regular file with a recognized
// video extension.
func IsVideoFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return VideoExtensions[ext]
}

// GetFilename returns the filename from a path.
func GetFilename(path string) string {
	return filepath.Base(path)
}

// GetFileStem returns the filename without extension.
func GetFileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// EnsureDirectory creates a directory (and parents) if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// DirectoryExists reports whether path exists and is a directory.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// OutputPathInfo is the resolved directory and optional filename override
// for an output argument.
type OutputPathInfo struct {
	OutputDir        string
	FilenameOverride string
}

// ResolveOutputArg resolves the output CLI argument into a directory and an
// optional filename override:
//   - a trailing path separator always means "treat as directory"
//   - a single-file input with a non-empty output extension is treated as a
//     target filename; if that extension isn't ".mkv" it is rewritten to
//     ".mkv" rather than rejected
//   - everything else (directory input, or extension-less output) is
//     treated as an output directory
func ResolveOutputArg(inputPath, outputPath string) (OutputPathInfo, error) {
	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return OutputPathInfo{}, err
	}

	if strings.HasSuffix(outputPath, string(os.PathSeparator)) || strings.HasSuffix(outputPath, "/") {
		return OutputPathInfo{OutputDir: strings.TrimRight(outputPath, "/"+string(os.PathSeparator))}, nil
	}

	ext := strings.ToLower(filepath.Ext(outputPath))
	if !inputInfo.IsDir() && ext != "" {
		filename := filepath.Base(outputPath)
		if ext != ".mkv" {
			filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mkv"
		}
		parentDir := filepath.Dir(outputPath)
		if parentDir == "" {
			parentDir = "."
		}
		return OutputPathInfo{OutputDir: parentDir, FilenameOverride: filename}, nil
	}

	return OutputPathInfo{OutputDir: outputPath}, nil
}

// ResolveOutputPath joins an output directory and either an explicit
// filename override or the input's stem with a .mkv extension.
func ResolveOutputPath(inputPath, outputDir, targetOverride string) string {
	if targetOverride != "" {
		return filepath.Join(outputDir, targetOverride)
	}
	return filepath.Join(outputDir, GetFileStem(inputPath)+".mkv")
}
