package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Fetcher returns the catalog snapshot as published by the order backend,
// keyed by collection (products, stores, coupons...).
type Fetcher interface {
	FetchAll(ctx context.Context) (map[string]json.RawMessage, error)
}

// Fetch downloads the snapshot and writes one file per collection present in
// the response. Files are only replaced after the whole response has been
// received, so a failed fetch leaves the existing snapshot untouched.
func Fetch(ctx context.Context, f Fetcher, dir string, log zerolog.Logger) error {
	all, err := f.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	for _, name := range Files {
		key := name[:len(name)-len(".json")]
		raw, ok := all[key]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return fmt.Errorf("format %s: %w", name, err)
		}
		if err := writeAtomic(filepath.Join(dir, name), pretty.Bytes()); err != nil {
			return err
		}
		log.Info().Str("file", name).Int("items", countItems(raw)).Msg("catalog file written")
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func countItems(raw json.RawMessage) int {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj)
	}
	return 0
}
