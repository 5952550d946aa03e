// Package artifact packages prebuilt handler binaries for upload.
package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/errors"
)

// Path returns where the bootstrap binary of a handler is expected
func Path(dir, handler string) string {
	return filepath.Join(dir, handler, constants.HandlerEntrypoint)
}

// Package zips <dir>/<handler>/bootstrap into an archive holding a single
// executable bootstrap entry
func Package(dir, handler string) ([]byte, error) {
	path := Path(dir, handler)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("failed to read handler %s: %w", path, err)
	}

	header := &zip.FileHeader{
		Name:   constants.HandlerEntrypoint,
		Method: zip.Deflate,
	}
	header.SetMode(0o755)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}
