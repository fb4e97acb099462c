package scalemerge

import (
	"io"
	"sync"

	"github.com/gosuri/uiprogress"
	"go.uber.org/zap"

	"github.com/scigolib/scalemerge/internal/model"
)

// reporter turns merge events into log lines or a progress bar depending
// on the print level. It has no effect on the output file.
type reporter struct {
	level int
	log   *zap.Logger
	out   io.Writer

	progress *uiprogress.Progress
	bar      *uiprogress.Bar

	mu      sync.Mutex
	current string
}

func newReporter(cfg *MergeConfig) *reporter {
	return &reporter{level: cfg.PrintLevel, log: cfg.Logger, out: cfg.Progress}
}

// start draws the bar at print level 0 when a progress writer is configured.
func (r *reporter) start(variables int) {
	if r.level != PrintSilent || r.out == nil || variables == 0 {
		return
	}
	r.progress = uiprogress.New()
	r.progress.SetOut(r.out)
	r.bar = r.progress.AddBar(variables).AppendCompleted().PrependElapsed()
	r.bar.PrependFunc(func(_ *uiprogress.Bar) string {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.current
	})
	r.progress.Start()
}

func (r *reporter) dimension(d model.Dimension) {
	if r.level >= PrintVariables {
		r.log.Info("copying dimension", zap.String("dimension", d.Name), zap.Int("size", d.Size))
	}
}

func (r *reporter) variable(v *model.Variable) {
	if r.level >= PrintVariables {
		r.log.Info("initializing variable",
			zap.String("variable", v.Name),
			zap.Strings("dimensions", v.Dimensions),
			zap.Stringer("type", v.Type))
	}
}

func (r *reporter) copying(name string) {
	r.mu.Lock()
	r.current = name
	r.mu.Unlock()
	if r.level >= PrintFiles {
		r.log.Info("copying data", zap.String("variable", name))
	}
}

func (r *reporter) file(name, path string, index int) {
	if r.level >= PrintFiles {
		r.log.Info("copying slab",
			zap.String("variable", name),
			zap.String("file", path),
			zap.Int("index", index))
	}
}

func (r *reporter) copied() {
	if r.bar != nil {
		r.bar.Incr()
	}
}

func (r *reporter) stop() {
	if r.progress != nil {
		r.progress.Stop()
		r.progress = nil
	}
}
