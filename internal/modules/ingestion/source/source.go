// Package source loads extraction output files into ingestable source units.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

var ErrNotArray = errors.New("source root is not a JSON array")

// Source is one unit of ingestion. Tag is recorded as provenance on every entity
// and edge it touches. NotObjects counts array elements that were not objects
// and therefore never became records.
type Source struct {
	Tag        string
	Records    []kg.Record
	NotObjects int
	// Repaired is set when the raw bytes only parsed after JSON repair.
	Repaired bool
}

// Decode parses raw as a JSON array of records. Malformed input gets one repair
// attempt before the original parse error is returned.
func Decode(tag string, raw []byte) (Source, error) {
	src := Source{Tag: tag}
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil {
			return src, fmt.Errorf("decode %s: %w", tag, err)
		}
		if err2 := json.Unmarshal([]byte(repaired), &root); err2 != nil {
			return src, fmt.Errorf("decode %s: %w", tag, err)
		}
		src.Repaired = true
	}

	items, ok := root.([]any)
	if !ok {
		return src, fmt.Errorf("decode %s: %w", tag, ErrNotArray)
	}
	src.Records = make([]kg.Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			src.NotObjects++
			continue
		}
		src.Records = append(src.Records, kg.Record(obj))
	}
	return src, nil
}

// LoadFile reads and decodes path. The tag is the file's base name.
func LoadFile(path string) (Source, error) {
	tag := filepath.Base(path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{Tag: tag}, err
	}
	return Decode(tag, raw)
}

// ScanDir lists the .json files directly under dir in name order. Files whose
// base name matches one of skip are left out.
func ScanDir(dir string, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	skipped := map[string]bool{}
	for _, s := range skip {
		if s = strings.TrimSpace(s); s != "" {
			skipped[filepath.Base(s)] = true
		}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ".json") || skipped[name] {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
