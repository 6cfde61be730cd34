package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

// maxDocumentSize bounds how much a compressed document may expand to.
const maxDocumentSize = 64 * 1024 * 1024

// readFile reads path, transparently decompressing a ".xz" suffix.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 - scene paths are supplied by the user
	if err != nil {
		return nil, err
	}
	if !isCompressed(path) {
		return data, nil
	}

	xzr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(xzr, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", filepath.Base(path), err)
	}
	if len(out) > maxDocumentSize {
		return nil, fmt.Errorf("decompressed %s exceeds %d bytes", filepath.Base(path), maxDocumentSize)
	}
	return out, nil
}

// writeFile writes data to path, compressing it when the path ends in ".xz".
// The file is written to a sibling temp file first and renamed into place.
func writeFile(path string, data []byte) error {
	if isCompressed(path) {
		var buf bytes.Buffer
		xzw, err := xz.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
		if _, err := xzw.Write(data); err != nil {
			return fmt.Errorf("failed to compress %s: %w", filepath.Base(path), err)
		}
		if err := xzw.Close(); err != nil {
			return fmt.Errorf("failed to compress %s: %w", filepath.Base(path), err)
		}
		data = buf.Bytes()
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func isCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xz")
}

// isJSON reports whether the document format (ignoring a ".xz" suffix) is JSON.
func isJSON(path string) bool {
	if isCompressed(path) {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// decode unmarshals data as JSON or YAML depending on path.
func decode(path string, data []byte, v any) error {
	if isJSON(path) {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", filepath.Base(path), err)
	}
	return nil
}

// encode marshals v as JSON or YAML depending on path.
func encode(path string, v any) ([]byte, error) {
	if isJSON(path) {
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// resolvePath joins a palette file reference onto the scene directory and
// rejects references that escape it.
func resolvePath(baseDir, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty palette file path")
	}
	if filepath.IsAbs(ref) {
		return "", fmt.Errorf("palette file %s must be relative to the scene", ref)
	}

	full := filepath.Clean(filepath.Join(baseDir, ref))
	base := filepath.Clean(baseDir)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("palette file %s escapes the scene directory", ref)
	}
	return full, nil
}
