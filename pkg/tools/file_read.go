package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const maxFileBytes = 1 << 20

// FileReadTool returns the contents of a local file. When Root is set, paths
// are resolved against it and may not escape it.
type FileReadTool struct {
	Root string
}

func (f *FileReadTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        FileRead.String(),
		Description: "Reads a local file and returns its contents. Input is the file path.",
		InputSchema: objectSchema("path", "Path of the file to read."),
		Argument:    "path",
	}
}

func (f *FileReadTool) Invoke(_ context.Context, req ToolRequest) (ToolResponse, error) {
	path := stringArg(req, "path", "file_path")
	if path == "" {
		return ToolResponse{}, fmt.Errorf("%s: %w 'path'", FileRead, ErrMissingArgument)
	}
	resolved, err := f.resolve(path)
	if err != nil {
		return ToolResponse{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ToolResponse{}, fmt.Errorf("%s: %s does not exist", FileRead, path)
		}
		return ToolResponse{}, fmt.Errorf("%s: %w", FileRead, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFileBytes))
	if err != nil {
		return ToolResponse{}, fmt.Errorf("%s: %w", FileRead, err)
	}
	return ToolResponse{
		Content:  string(data),
		Metadata: map[string]string{"path": resolved},
	}, nil
}

func (f *FileReadTool) resolve(path string) (string, error) {
	if f == nil || f.Root == "" {
		return filepath.Clean(path), nil
	}
	root, err := filepath.Abs(f.Root)
	if err != nil {
		return "", err
	}
	joined := path
	if !filepath.IsAbs(path) {
		joined = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, filepath.Clean(joined))
	if err != nil || rel == ".." || (len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %s is outside %s", FileRead, path, f.Root)
	}
	return filepath.Join(root, rel), nil
}
