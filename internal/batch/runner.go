package batch

import (
	"context"

	"certify/internal/config"
	"certify/internal/fonts"
	"certify/internal/output"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
	"certify/internal/render"
	"certify/internal/roster"
	"certify/internal/storage"
)

// StorageFactory builds the provider a run writes to.
type StorageFactory func(ctx context.Context, name, root string) (storage.Provider, error)

// Runner executes a whole run from a configuration file. The CLI and the
// worker share it.
type Runner struct {
	recorder   Recorder
	newStorage StorageFactory
	log        *logger.Logger
}

// NewRunner builds a Runner. recorder may be nil; newStorage defaults to
// storage.NewProvider.
func NewRunner(recorder Recorder, newStorage StorageFactory, log *logger.Logger) *Runner {
	if newStorage == nil {
		newStorage = storage.NewProvider
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Runner{recorder: recorder, newStorage: newStorage, log: log}
}

// Execute loads the configuration at configPath and renders every
// certificate it describes. Nothing is rendered unless the configuration,
// participant table and template load and the output directory is new.
func (r *Runner) Execute(ctx context.Context, runID, configPath string) (Summary, error) {
	log := r.log.FromContext(logger.ContextWithRunID(ctx, runID)).WithComponent("runner")

	opts, err := config.Load(configPath)
	if err != nil {
		return Summary{}, err
	}
	for _, d := range opts.Diagnostics {
		log.Warn("configuration", "diagnostic", d.String(), "file", opts.Path)
	}
	if err := opts.Validate(); err != nil {
		return Summary{}, err
	}

	participants, err := roster.Load(opts.Settings.ParticipantsData)
	if err != nil {
		return Summary{}, err
	}
	log.Info("participants loaded", "rows", len(participants), "file", opts.Settings.ParticipantsData)

	tmpl, err := render.LoadTemplate(opts.Settings.Template)
	if err != nil {
		return Summary{}, err
	}
	b := tmpl.Bounds()
	if ok, err := opts.Layout.MatchesImage(b.Dx(), b.Dy()); err != nil {
		log.Warn("paper layout ignored", "error", err.Error())
	} else if !ok {
		log.Warn("template proportions differ from the declared paper",
			"paper_size", opts.Layout.PaperSize,
			"orientation", opts.Layout.Orientation,
			"width", b.Dx(),
			"height", b.Dy(),
		)
	}

	if opts.Settings.Storage == "localfs" {
		if err := output.PrepareDir(opts.Settings.Workdir); err != nil {
			return Summary{}, err
		}
	}
	store, err := r.newStorage(ctx, opts.Settings.Storage, opts.Settings.Workdir)
	if err != nil {
		return Summary{}, err
	}

	cache := fonts.NewCache(opts.Settings.FontsFolder)
	defer cache.Close()

	p := New(Deps{
		Composer: render.NewComposer(opts, cache, tmpl),
		Writer:   output.NewWriter(store),
		Recorder: r.recorder,
		Log:      r.log,
	})

	sum, err := p.Run(logger.ContextWithRunID(ctx, runID), runID, opts.Settings.Basename, participants)
	if err != nil {
		return sum, errors.Wrapf(err, "runner.execute", "run %s", configPath)
	}
	return sum, nil
}
