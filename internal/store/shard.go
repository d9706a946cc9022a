package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/obslog"
)

// appendLine opens dir/fileName in append mode, writes one newline-terminated
// JSON-serialized line, and closes the file. No buffering: each shard append
// is a single syscall-backed write so the spec's "flushes" guarantee holds
// without needing an explicit Sync.
func appendLine(dir, fileName string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", attrerr.ErrIOFailure, dir, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %v", attrerr.ErrIOFailure, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", attrerr.ErrIOFailure, path, err)
	}
	defer f.Close()

	n, err := f.Write(data)
	if err != nil || n != len(data) {
		return fmt.Errorf("%w: incomplete write to %s", attrerr.ErrIOFailure, path)
	}
	return nil
}

// statFile returns the os.FileInfo for dir/fileName, or nil if it does not
// exist.
func statFile(dir, fileName string) (os.FileInfo, error) {
	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// shardDatesDescending lists the shard files in dir, most-recent date
// first. Non-matching file names are ignored, and a missing directory
// yields an empty list rather than an error.
func shardDatesDescending(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if layout.IsShardFileName(e.Name()) {
			dates = append(dates, layout.ShardDate(e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// scanShard reads every line of dir/fileName, decoding each into a fresh
// value via decode and calling visit(value) for lines that parse. Malformed
// lines are skipped and counted; the count is logged once per shard at warn
// level, never treated as fatal. A shard that disappears mid-scan (raced by
// a concurrent retention sweep) is treated as end-of-stream, not an error.
func scanShard(ctx context.Context, dir, fileName string, decode func([]byte) error) error {
	path := filepath.Join(dir, fileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: opening %s: %v", attrerr.ErrIOFailure, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	corrupt := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := decode(line); err != nil {
			corrupt++
			continue
		}
	}
	if corrupt > 0 {
		obslog.Warn(ctx, "skipped corrupt shard lines",
			"shard", fileName, "count", corrupt, "kind", attrerr.ErrCorruptRecord.Error())
	}
	return nil
}
