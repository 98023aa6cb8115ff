package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

func ioError(format string, args ...any) error {
	return &evaluator.RuntimeError{Code: diagnostics.EIO, Message: fmt.Sprintf(format, args...)}
}

func loadTool(load Loader) Def {
	return Def{
		Name: "load",
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			path, err := stringArg("load", args)
			if err != nil {
				return nil, err
			}
			return load(ctx, path)
		},
	}
}

func readFileTool() Def {
	return Def{
		Name: "read-file",
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			path, err := stringArg("read-file", args)
			if err != nil {
				return nil, err
			}
			resolved, err := filepath.Abs(path)
			if err != nil {
				return nil, ioError("read-file: invalid path: %s", err)
			}
			data, err := os.ReadFile(resolved)
			if err != nil {
				return nil, ioError("read-file: %s", err)
			}
			return evaluator.NewString(string(data)), nil
		},
	}
}

func fileExistsTool() Def {
	return Def{
		Name: "file-exists?",
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			path, err := stringArg("file-exists?", args)
			if err != nil {
				return nil, err
			}
			resolved, err := filepath.Abs(path)
			if err != nil {
				return evaluator.False, nil
			}
			_, err = os.Stat(resolved)
			return evaluator.NewBool(err == nil), nil
		},
	}
}

// directory-list returns the sorted entry names of a directory as a list of
// strings.
func directoryListTool() Def {
	return Def{
		Name: "directory-list",
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			path, err := stringArg("directory-list", args)
			if err != nil {
				return nil, err
			}
			resolved, err := filepath.Abs(path)
			if err != nil {
				return nil, ioError("directory-list: invalid path: %s", err)
			}
			entries, err := os.ReadDir(resolved)
			if err != nil {
				return nil, ioError("directory-list: %s", err)
			}
			names := make([]string, len(entries))
			for i, entry := range entries {
				names[i] = entry.Name()
			}
			sort.Strings(names)
			items := make([]evaluator.Value, len(names))
			for i, name := range names {
				items[i] = evaluator.NewString(name)
			}
			return evaluator.List(items...), nil
		},
	}
}
