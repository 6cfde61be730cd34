// Package prune removes unused color swatches from a scene's palettes and
// deletes palettes left empty.
//
// A run collects the colors painted in the project's drawings (CollectUsage)
// and the colors registered in its palettes (CollectCatalog), builds a Plan of
// the difference per palette and applies it inside a single host transaction.
package prune

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/palprune/internal/confirm"
	"github.com/jmylchreest/palprune/internal/version"
	"github.com/jmylchreest/palprune/pkg/host"
)

// Request describes one prune invocation.
type Request struct {
	Mode Mode

	// Palette overrides the host's current palette in ModeSelected.
	// It matches a palette identifier first, then a palette name.
	Palette string

	// SkipConfirm bypasses the confirmation prompt.
	SkipConfirm bool

	// DryRun computes the plan without prompting or mutating anything.
	DryRun bool
}

// RemovedColor is a color that was removed from a palette.
type RemovedColor struct {
	Palette host.PaletteRef
	Color   host.ColorID
}

// Result describes what a run did.
type Result struct {
	Mode            Mode
	Plan            *Plan
	RemovedColors   []RemovedColor
	DeletedPalettes []host.PaletteRef
	Failures        []Failure
	Unreadable      []UnreadableContent
	Shared          map[host.ColorID][]host.PaletteID
	Declined        bool
	DryRun          bool
}

// Summary returns the headline counts of the result.
func (r *Result) Summary() string {
	switch {
	case r.Declined:
		return "cancelled"
	case r.DryRun:
		return fmt.Sprintf("dry run: %d color(s) and %d palette(s) would be removed",
			r.Plan.Removals(), len(r.Plan.Deletions()))
	default:
		return fmt.Sprintf("removed %d color(s) and %d palette(s), %d failure(s), %d unreadable item(s)",
			len(r.RemovedColors), len(r.DeletedPalettes), len(r.Failures), len(r.Unreadable))
	}
}

// Pruner runs prunes against a host.
type Pruner struct {
	host    host.Host
	confirm confirm.Confirmer
	logger  hclog.Logger
	strict  bool
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithConfirmer sets the confirmation capability. The default prompts on the terminal.
func WithConfirmer(c confirm.Confirmer) Option {
	return func(p *Pruner) { p.confirm = c }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pruner) { p.logger = l }
}

// WithStrict refuses to mutate anything when some content could not be read.
func WithStrict(strict bool) Option {
	return func(p *Pruner) { p.strict = strict }
}

// New creates a Pruner for h.
func New(h host.Host, opts ...Option) *Pruner {
	p := &Pruner{
		host:    h,
		confirm: confirm.NewTerminal(),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves the target, asks for confirmation, scans the project and
// applies the resulting plan. A declined confirmation returns a Result with
// Declined set and a nil error; nothing is scanned or mutated.
func (p *Pruner) Run(ctx context.Context, req Request) (*Result, error) {
	scope, target, err := p.resolveScope(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Mode: req.Mode, DryRun: req.DryRun}

	if !req.SkipConfirm && !req.DryRun {
		title, message := ConfirmText(req.Mode, target)
		ok, err := p.confirm.Confirm(title, message)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm: %w", err)
		}
		if !ok {
			p.logger.Info("prune declined", "mode", req.Mode)
			result.Declined = true
			return result, nil
		}
	}

	usage, err := CollectUsage(ctx, p.host, p.logger.Named("usage"))
	if err != nil {
		return nil, err
	}
	result.Unreadable = usage.Unreadable

	if p.strict && !usage.Complete() {
		return result, fmt.Errorf("%w: %d item(s) could not be read", ErrIncompleteUsage, len(usage.Unreadable))
	}

	catalog, err := CollectCatalog(ctx, p.host, scope, p.logger.Named("catalog"))
	if err != nil {
		return nil, err
	}
	result.Failures = append(result.Failures, catalog.Skipped...)
	result.Shared = catalog.Shared

	for id, owners := range catalog.Shared {
		p.logger.Warn("color identifier registered in several palettes", "color", id, "palettes", owners)
	}

	result.Plan = BuildPlan(req.Mode, usage, catalog)
	if req.DryRun {
		return result, nil
	}

	applied, err := p.Apply(ctx, result.Plan)
	if applied != nil {
		result.RemovedColors = applied.RemovedColors
		result.DeletedPalettes = applied.DeletedPalettes
		result.Failures = append(result.Failures, applied.Failures...)
	}
	return result, err
}

// Apply executes a plan inside one host transaction. Palettes are visited in
// reverse index order and each palette's removals are issued from the plan's
// own list, so removals never depend on live indices. Host refusals are
// recorded and skipped. A palette whose color count reaches zero is deleted
// along with its backing store. An empty plan opens no transaction.
func (p *Pruner) Apply(ctx context.Context, plan *Plan) (result *Result, err error) {
	result = &Result{Mode: plan.Mode, Plan: plan}
	if plan.Empty() {
		p.logger.Debug("nothing to prune")
		return result, nil
	}

	label := plan.Mode.TransactionLabel()
	if err := p.host.BeginTransaction(ctx, label); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if endErr := p.host.EndTransaction(ctx); endErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to end transaction: %w", endErr))
		}
	}()

	for i := len(plan.Palettes) - 1; i >= 0; i-- {
		pp := plan.Palettes[i]
		log := p.logger.With("palette", pp.Palette.String())

		for _, c := range pp.Remove {
			if err := p.host.RemoveColor(ctx, pp.Palette.ID, c); err != nil {
				result.Failures = append(result.Failures, Failure{Op: OpRemoveColor, Palette: pp.Palette, Color: c, Err: err})
				log.Warn("failed to remove color", "color", c, "error", err)
				continue
			}
			result.RemovedColors = append(result.RemovedColors, RemovedColor{Palette: pp.Palette, Color: c})
			log.Debug("removed color", "color", c)
		}

		n, err := p.host.PaletteColorCount(ctx, pp.Palette.ID)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Op: OpCountColors, Palette: pp.Palette, Err: err})
			log.Warn("failed to count colors", "error", err)
			continue
		}
		if n > 0 {
			continue
		}

		if err := p.host.DeletePalette(ctx, pp.Palette.ID); err != nil {
			result.Failures = append(result.Failures, Failure{Op: OpDeletePalette, Palette: pp.Palette, Err: err})
			log.Warn("failed to delete empty palette", "error", err)
			continue
		}
		result.DeletedPalettes = append(result.DeletedPalettes, pp.Palette)
		log.Info("deleted empty palette", "path", pp.Palette.Path)
	}

	return result, nil
}

// resolveScope returns the scope for the request and, in selected mode, the
// targeted palette.
func (p *Pruner) resolveScope(ctx context.Context, req Request) (Scope, host.PaletteRef, error) {
	if req.Mode != ModeSelected {
		return AllPalettes(), host.PaletteRef{}, nil
	}

	if req.Palette != "" {
		palettes, err := p.host.Palettes(ctx)
		if err != nil {
			return Scope{}, host.PaletteRef{}, fmt.Errorf("failed to list palettes: %w", err)
		}
		ref, ok := FindPalette(palettes, req.Palette)
		if !ok {
			return Scope{}, host.PaletteRef{}, fmt.Errorf("%w: %s", ErrTargetNotFound, req.Palette)
		}
		return SinglePalette(ref.ID), ref, nil
	}

	ref, ok, err := p.host.CurrentPalette(ctx)
	if err != nil {
		return Scope{}, host.PaletteRef{}, fmt.Errorf("failed to read current palette: %w", err)
	}
	if !ok {
		return Scope{}, host.PaletteRef{}, ErrNoTargetPalette
	}
	return SinglePalette(ref.ID), ref, nil
}

// FindPalette looks a palette up by identifier, then by name.
func FindPalette(palettes []host.PaletteRef, idOrName string) (host.PaletteRef, bool) {
	for _, ref := range palettes {
		if string(ref.ID) == idOrName {
			return ref, true
		}
	}
	for _, ref := range palettes {
		if ref.Name == idOrName {
			return ref, true
		}
	}
	return host.PaletteRef{}, false
}

// ConfirmText returns the confirmation title and message for a mode.
func ConfirmText(mode Mode, target host.PaletteRef) (title, message string) {
	const tip = "Tip: pass --yes to skip this confirmation."

	if mode == ModeSelected {
		title = "Remove Unused Colors On Selected Palette v" + version.Short()
		message = fmt.Sprintf("You are about to remove unused colors on the %s palette.\n"+
			"The palette is deleted from disk if it becomes empty.\n\n%s", target, tip)
		return title, message
	}

	title = "Remove All Unused Colors And Palettes v" + version.Short()
	message = "You are about to remove all unused colors and palettes of the scene.\n" +
		"Empty palettes are deleted from disk.\n\n" + tip
	return title, message
}
