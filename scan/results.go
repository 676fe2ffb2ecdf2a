package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BaSui01/storeflow/store"
)

// Merge 合并上次结果与本次结果。
// 只保留仍在商店中的插件，本次结果优先，未测试的插件沿用上次结果。
func Merge(idx *store.Index, previous, fresh map[string]store.TestResult) map[string]store.TestResult {
	merged := make(map[string]store.TestResult, idx.Len())
	for _, key := range idx.Keys() {
		if r, ok := fresh[key]; ok {
			merged[key] = r
			continue
		}
		if r, ok := previous[key]; ok {
			merged[key] = r
		}
	}
	return merged
}

// MarshalResults 按商店顺序序列化结果。
// 标准库对 map 序列化按键名排序，这里手工编码以保持商店顺序。
func MarshalResults(idx *store.Index, results map[string]store.TestResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	first := true
	for _, key := range idx.Keys() {
		r, ok := results[key]
		if !ok {
			continue
		}

		k, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal result key: %w", err)
		}
		v, err := json.MarshalIndent(r, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal result for %s: %w", key, err)
		}

		if !first {
			buf.WriteString(",")
		}
		first = false
		buf.WriteString("\n  ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// WriteResults 把结果写入输出目录下的 results.json
func WriteResults(dir string, idx *store.Index, results map[string]store.TestResult) error {
	data, err := MarshalResults(idx, results)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "results.json"), data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
