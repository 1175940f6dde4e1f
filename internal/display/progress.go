package display

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/coilpress/muxctl/internal/videoencode"
)

// TitleProgress renders one live progressbar.Bar per in-flight encode
// (a title's main video track, or one of its segmented-encode shards),
// keyed by label so C7 and C8 share the same renderer without needing to
// know about each other (§4.7/§4.8 both only emit Progress values).
type TitleProgress struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

// NewTitleProgress creates an empty renderer.
func NewTitleProgress() *TitleProgress {
	return &TitleProgress{bars: make(map[string]*progressbar.ProgressBar)}
}

// Handler returns a videoencode.ProgressHandler bound to label, lazily
// creating that label's bar on the first progress event (the total frame
// count isn't known until then).
func (t *TitleProgress) Handler(label string) videoencode.ProgressHandler {
	return func(p videoencode.Progress) {
		t.update(label, p)
	}
}

func (t *TitleProgress) update(label string, p videoencode.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bar, ok := t.bars[label]
	if !ok {
		bar = progressbar.NewOptions(p.TotalFrames,
			progressbar.OptionSetDescription(color.CyanString(label)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		t.bars[label] = bar
	}
	if p.TotalFrames > 0 && bar.GetMax() != p.TotalFrames {
		bar.ChangeMax(p.TotalFrames)
	}
	bar.Set(p.EncodedFrames)
	if p.EncodedFrames >= p.TotalFrames && p.TotalFrames > 0 {
		bar.Finish()
		delete(t.bars, label)
	}
}

// Summarize formats a completed encode's average fps/bitrate the way the
// CLI prints a one-line result after a bar finishes (§4.7 Result fields).
func Summarize(label string, avgFPS, avgBitrateKbps float64) string {
	return fmt.Sprintf("%s: avg %.1f fps, %s", label, avgFPS, FormatBitrateLabel(int64(avgBitrateKbps)))
}
