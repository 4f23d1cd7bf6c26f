package report

import (
	"context"
	"os"
	"path/filepath"

	"rollcall/internal/cloudinary"
)

// Sink receives a finished export and returns where it can be fetched.
type Sink interface {
	Share(ctx context.Context, f File) (string, error)
}

// DirSink copies exports into Dir. An empty Dir leaves the file where the
// exporter wrote it.
type DirSink struct {
	Dir string
}

func (s DirSink) Share(_ context.Context, f File) (string, error) {
	if s.Dir == "" {
		return f.Path, nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, DiskName(f.Name))
	if err := os.WriteFile(dst, f.Data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// CloudinarySink uploads exports as raw assets.
type CloudinarySink struct {
	Client *cloudinary.Client
}

func (s CloudinarySink) Share(ctx context.Context, f File) (string, error) {
	res, err := s.Client.UploadRaw(ctx, f.Data, DiskName(f.Name))
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
