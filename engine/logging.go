package engine

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
)

// InitLogger sends the global logger to path. An empty path logs to stdout.
// The returned func syncs the new logger and puts the previous one back.
func InitLogger(path, level string) (func(), error) {
	if level == "" {
		level = "info"
	}
	cfg := &log.Config{
		Level:  level,
		Format: "text",
		File:   log.FileLogConfig{Filename: path},
	}
	lg, props, err := log.InitLogger(cfg)
	if err != nil {
		return nil, errors.Annotate(err, "init logger")
	}
	restore := log.ReplaceGlobals(lg, props)
	return func() {
		_ = lg.Sync()
		restore()
	}, nil
}
