package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"bot-launcher/internal/logger"
)

// ErrExists is returned when the destination environment is already present.
var ErrExists = errors.New("destination already exists")

// Install unpacks a runtime bundle into dest. source is a local archive path or an
// http(s) URL, which is downloaded first. A bundle holding a single top-level
// directory is unwrapped so its contents end up directly in dest.
// An existing dest is never touched.
func Install(ctx context.Context, source, dest string) error {
	// An installed runtime is never replaced
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%s: %w", dest, ErrExists)
	}

	// Remote bundles go to a temporary file first
	archive := source
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		tmpDir, err := os.MkdirTemp("", "bot-runtime-*")
		if err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		archive = filepath.Join(tmpDir, path.Base(u.Path))
		logger.Info("[INFO] Downloading %s\n", source)
		if err := downloadFile(ctx, source, archive); err != nil {
			return err
		}
	}

	if !Supported(archive) {
		return fmt.Errorf("unsupported archive format: %s", archive)
	}

	// Extract next to dest so the final rename stays on one filesystem
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".runtime-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	logger.Info("[INFO] Extracting %s\n", filepath.Base(archive))
	if err := ExtractArchive(archive, staging); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	// Bundles usually wrap everything in one directory such as python-env/
	top, err := unwrap(staging)
	if err != nil {
		return err
	}
	if err := os.Rename(top, dest); err != nil {
		return fmt.Errorf("failed to move runtime into place: %w", err)
	}

	logger.Info("[INFO] Runtime installed to %s\n", dest)
	return nil
}

// unwrap returns the single top-level directory of an extracted bundle, or dir itself.
func unwrap(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("archive is empty")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// downloadFile downloads the content located at the specified URL and saves it to destPath.
func downloadFile(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("bad url %s: %w", rawURL, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s failed: HTTP status %d", rawURL, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write response to file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}

	logger.Debug("[DEBUG] Downloaded %s to %s\n", rawURL, destPath)
	return nil
}
