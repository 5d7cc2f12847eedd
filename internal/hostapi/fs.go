package hostapi

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cryguy/zero/internal/core"
)

const fsJS = `
	var read = take('__zero_fs_read');
	var stat = take('__zero_fs_stat');
	__zero.bindings.fs = Object.freeze({
		readFile: function readFile(path) {
			return __zero.op(read(String(path)));
		},
		stat: function stat_(path) {
			var s = JSON.parse(stat(String(path)));
			return {
				size: s.size,
				mtimeMs: s.mtimeMs,
				isFile: function() { return s.isFile; },
				isDirectory: function() { return s.isDirectory; },
			};
		},
	});
`

type statDesc struct {
	Size        int64 `json:"size"`
	MtimeMs     int64 `json:"mtimeMs"`
	IsFile      bool  `json:"isFile"`
	IsDirectory bool  `json:"isDirectory"`
}

// resolve makes path absolute against the process working directory.
func (h *Host) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(h.Process.Cwd, path)
}

// SetupFS registers the fs binding. readFile runs off the JS goroutine and
// settles through the event loop; stat is synchronous.
func SetupFS(rt core.JSRuntime, h *Host) error {
	if err := registerAll(rt, map[string]any{
		"__zero_fs_read": func(path string) int {
			abs := h.resolve(path)
			return h.Loop.StartOp(func() ([]byte, error) {
				return os.ReadFile(abs)
			})
		},
		"__zero_fs_stat": func(path string) (string, error) {
			fi, err := os.Stat(h.resolve(path))
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(statDesc{
				Size:        fi.Size(),
				MtimeMs:     fi.ModTime().UnixMilli(),
				IsFile:      fi.Mode().IsRegular(),
				IsDirectory: fi.IsDir(),
			})
			return string(data), err
		},
	}); err != nil {
		return err
	}
	return evalGlue(rt, "fs", fsJS)
}
