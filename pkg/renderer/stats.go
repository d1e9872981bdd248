package renderer

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/olekukonko/tablewriter"
)

// RenderStats accumulates render-wide counters updated by every tile
// worker via atomic add, then summarized once rendering finishes.
type RenderStats struct {
	TilesRendered               int64
	PixelsRendered              int64
	SamplesTaken                int64
	RussianRouletteTerminations int64
	RenderTime                  time.Duration

	numWorkers int
	tileSize   int
}

func newRenderStats(numWorkers, tileSize int) *RenderStats {
	return &RenderStats{numWorkers: numWorkers, tileSize: tileSize}
}

func (s *RenderStats) addTile(pixels, samples int, rrTerminations int64) {
	atomic.AddInt64(&s.TilesRendered, 1)
	atomic.AddInt64(&s.PixelsRendered, int64(pixels))
	atomic.AddInt64(&s.SamplesTaken, int64(samples))
	atomic.AddInt64(&s.RussianRouletteTerminations, rrTerminations)
}

// WriteTable renders a human-readable summary table, grounded on the
// device/stats table style used elsewhere in this codebase's ancestry.
func (s *RenderStats) WriteTable() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})

	rrRate := 0.0
	if s.SamplesTaken > 0 {
		rrRate = float64(s.RussianRouletteTerminations) / float64(s.SamplesTaken) * 100
	}

	table.Append([]string{"Workers", fmt.Sprintf("%d", s.numWorkers)})
	table.Append([]string{"Tile size", fmt.Sprintf("%d", s.tileSize)})
	table.Append([]string{"Tiles rendered", fmt.Sprintf("%d", s.TilesRendered)})
	table.Append([]string{"Pixels rendered", fmt.Sprintf("%d", s.PixelsRendered)})
	table.Append([]string{"Samples taken", fmt.Sprintf("%d", s.SamplesTaken)})
	table.Append([]string{"RR termination rate", fmt.Sprintf("%.2f%%", rrRate)})
	table.SetFooter([]string{"Render time", fmt.Sprintf("%s", s.RenderTime)})

	table.Render()
	return buf.String()
}
