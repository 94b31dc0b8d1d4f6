package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic stages content in a temp file beside the target and renames
// it into place, so readers never observe a partial artifact.
func writeAtomic(path string, fill func(*os.File) error) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".staging-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close staged %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	return nil
}

func WriteTextAtomic(path, content string) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.WriteString(content)
		return err
	})
}

func WriteBytesAtomic(path string, content []byte) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(content)
		return err
	})
}

func WriteJSONAtomic(path string, v any) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// WriteJSONLinesAtomic writes one compact JSON object per line.
func WriteJSONLinesAtomic(path string, rows []any) error {
	return writeAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		for _, row := range rows {
			b, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if _, err := w.Write(append(b, '\n')); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}
