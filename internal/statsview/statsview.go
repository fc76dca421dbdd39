// Package statsview serves the go-echarts runtime statistics dashboard, for
// watching allocation and goroutine behavior while samples stream through.
package statsview

import (
	"log/slog"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const path = "/debug/statsview"

// Launch starts the dashboard on addr in a new goroutine. It runs until the
// process exits.
func Launch(addr string, logger *slog.Logger) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	logger.Info("Stats server available", "url", "http://"+addr+path)
}
