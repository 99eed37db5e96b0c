package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggersWriteToGivenLogger(t *testing.T) {
	var global bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&global, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase(PhaseAgents)
	pc.EndTick()

	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{"generation", GenerationStats{Generation: 3, ScoreMax: 7}.LogStats, "msg=generation"},
		{"perf", pc.Stats().LogStats, "msg=perf"},
		{"bookmark", Bookmark{Type: BookmarkNewBestScore, Generation: 3}.LogBookmark, "msg=bookmark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(slog.New(slog.NewTextHandler(&buf, nil)))
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}

	if global.Len() != 0 {
		t.Errorf("default logger received output: %q", global.String())
	}
}
