package http_client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/modules/env_vars"
)

// upload PUTs a local file to target, typically a pre-signed object storage
// URL. Any status other than 200 fails the step.
func (m *Module) upload(ctx context.Context, source, target string) (*http.Response, error) {
	source = env_vars.Expand(ctx, source)
	target, err := m.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file '%s': %w", source, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(source))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file", "source", source, "size", stat.Size(), "contentType", contentType)

	resp, err := m.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, fmt.Errorf("upload failed with status: %s", resp.Status)
	}
	logger.Info("Successfully uploaded file", "status", resp.Status)
	return resp, nil
}
