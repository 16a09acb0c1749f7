package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ganymede-app/guidemark/config"
	"github.com/ganymede-app/guidemark/guides"
	"github.com/ganymede-app/guidemark/markup"
	"github.com/ganymede-app/guidemark/transform"
)

// positionalInt reads the 1-based positional argument i.
func positionalInt(cmd *cli.Command, i int, name string) (int, error) {
	raw := cmd.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, raw)
	}
	return v, nil
}

// guideStepArgs reads GUIDE STEP and returns the 0-based step index.
func guideStepArgs(cmd *cli.Command) (guideID, stepIndex int, err error) {
	if guideID, err = positionalInt(cmd, 0, "GUIDE"); err != nil {
		return 0, 0, err
	}
	step, err := positionalInt(cmd, 1, "STEP")
	if err != nil {
		return 0, 0, err
	}
	return guideID, step - 1, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

func logWarnings(log *zap.Logger, warnings []transform.Warning) {
	for _, w := range warnings {
		log.Warn("Markup degraded",
			zap.String("type", string(w.Type)), zap.String("node", w.NodeType), zap.String("message", w.Message))
	}
}

// stepResult renders one step of a guide, downloading the guide first when
// fetch is set and it is not available locally.
func stepResult(ctx context.Context, env *localEnv, guideID, stepIndex int, fetch bool) (transform.Result, error) {
	g, ok := env.openRegistry().Guide(guideID)
	if !ok {
		if !fetch {
			return transform.Result{}, fmt.Errorf("guide %d: %w locally (use --fetch to download it)", guideID, guides.ErrNotFound)
		}
		store, err := env.openStore(ctx)
		if err != nil {
			return transform.Result{}, err
		}
		g, err = env.downloader().Download(ctx, guideID)
		recordDownload(ctx, env.Log, store, guideID, err)
		if err != nil {
			return transform.Result{}, err
		}
	}
	step, ok := g.Step(stepIndex)
	if !ok {
		return transform.Result{}, fmt.Errorf("guide %d has %d steps, there is no step %d", guideID, len(g.Steps), stepIndex+1)
	}

	tc, err := env.readerContext(ctx, &guideID, &stepIndex)
	if err != nil {
		return transform.Result{}, err
	}
	t, err := env.transformer()
	if err != nil {
		return transform.Result{}, err
	}
	result, err := t.TransformString(step.WebText, tc)
	if err != nil {
		return transform.Result{}, fmt.Errorf("guide %d step %d: %w", guideID, stepIndex+1, err)
	}
	logWarnings(env.Log, result.Warnings)
	return result, nil
}

// describe is a one line summary of an interactive node.
func describe(n *transform.Node) string {
	switch n.Kind {
	case transform.KindPosition:
		return fmt.Sprintf("[%d,%d]", n.Position.X, n.Position.Y)
	case transform.KindSameGuideStepLink, transform.KindCrossGuideStepLink:
		s := fmt.Sprintf("guide %d step %d", n.StepLink.TargetGuideID, n.StepLink.TargetStep+1)
		switch {
		case n.StepLink.DownloadFailed:
			s += " (download failed)"
		case n.StepLink.NeedsDownload:
			s += " (not downloaded)"
		}
		return s
	case transform.KindResourceTag:
		return fmt.Sprintf("%s %q", n.Resource.Kind, n.Resource.Name)
	case transform.KindImage:
		return n.Image.Src
	case transform.KindExternalAnchor:
		return n.Anchor.Href
	case transform.KindCheckbox:
		mark := " "
		if n.Checkbox.Checked {
			mark = "x"
		}
		return fmt.Sprintf("[%s] #%d", mark, n.Checkbox.Index+1)
	default:
		return ""
	}
}

func listInteractive(w io.Writer, root *transform.Node) {
	for i, n := range transform.InteractiveNodes(root) {
		fmt.Fprintf(w, "%3d  %-20s %s\n", i+1, n.Kind, describe(n))
	}
}

func renderCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	guideID, stepIndex, err := guideStepArgs(cmd)
	if err != nil {
		return err
	}
	result, err := stepResult(ctx, env, guideID, stepIndex, cmd.Bool("fetch"))
	if err != nil {
		return err
	}
	if cmd.Bool("interactive") {
		listInteractive(cmd.Root().Writer, result.Root)
		return nil
	}
	return writeJSON(cmd.Root().Writer, result)
}

func notesCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	var (
		data []byte
		err  error
	)
	switch fname := cmd.Args().Get(0); fname {
	case "", "-":
		data, err = io.ReadAll(cmd.Root().Reader)
	default:
		data, err = os.ReadFile(fname)
	}
	if err != nil {
		return fmt.Errorf("unable to read notes: %w", err)
	}

	root, err := markup.ParseMarkdown(string(data))
	if err != nil {
		return err
	}
	tc, err := env.readerContext(ctx, nil, nil)
	if err != nil {
		return err
	}
	t, err := env.transformer()
	if err != nil {
		return err
	}
	result := t.Transform(root, tc)
	logWarnings(env.Log, result.Warnings)

	if cmd.Bool("interactive") {
		listInteractive(cmd.Root().Writer, result.Root)
		return nil
	}
	return writeJSON(cmd.Root().Writer, result)
}

func clickCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	guideID, stepIndex, err := guideStepArgs(cmd)
	if err != nil {
		return err
	}
	pick, err := positionalInt(cmd, 2, "ELEMENT")
	if err != nil {
		return err
	}
	result, err := stepResult(ctx, env, guideID, stepIndex, cmd.Bool("fetch"))
	if err != nil {
		return err
	}

	nodes := transform.InteractiveNodes(result.Root)
	if pick > len(nodes) {
		return fmt.Errorf("step has %d interactive elements, there is no element %d", len(nodes), pick)
	}
	node := nodes[pick-1]
	ev := transform.Event{Ctrl: cmd.Bool("ctrl"), Meta: cmd.Bool("meta"), Alt: cmd.Bool("alt")}
	intents := transform.Activate(node, ev)
	if len(intents) == 0 {
		env.Log.Info("Nothing to do", zap.String("element", describe(node)))
		return nil
	}
	if cmd.Bool("dry-run") {
		return writeJSON(cmd.Root().Writer, intents)
	}

	d, err := env.dispatcher(ctx)
	if err != nil {
		return err
	}
	if err := d.Dispatch(ctx, intents); err != nil {
		return fmt.Errorf("%s: %w", describe(node), err)
	}
	return nil
}

func toggleCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	guideID, stepIndex, err := guideStepArgs(cmd)
	if err != nil {
		return err
	}
	checkbox, err := positionalInt(cmd, 2, "CHECKBOX")
	if err != nil {
		return err
	}
	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	checked, err := store.ToggleCheckbox(ctx, env.Cfg.Progress.Profile, guideID, stepIndex, checkbox-1)
	if err != nil {
		return err
	}
	state := "unchecked"
	if checked {
		state = "checked"
	}
	fmt.Fprintf(cmd.Root().Writer, "guide %d step %d checkbox %d: %s\n", guideID, stepIndex+1, checkbox, state)
	return nil
}

func downloadCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.NArg() == 0 {
		return fmt.Errorf("missing GUIDE")
	}
	ids := make([]int, 0, cmd.NArg())
	for i := range cmd.NArg() {
		id, err := positionalInt(cmd, i, "GUIDE")
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	d := env.downloader()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(env.Cfg.API.Burst, 1))
	for _, id := range ids {
		g.Go(func() error {
			guide, err := d.Download(gctx, id)
			recordDownload(gctx, env.Log, store, id, err)
			if err != nil {
				return fmt.Errorf("guide %d: %w", id, err)
			}
			fmt.Fprintf(cmd.Root().Writer, "%d  %s (%d steps)\n", guide.ID, guide.Name, len(guide.Steps))
			return nil
		})
	}
	return g.Wait()
}

// listGuides prints local guides in natural name order ("Part 2" before
// "Part 10").
func listGuides(w io.Writer, r *guides.Registry) {
	var list []*guides.Guide
	for _, id := range r.IDs() {
		if g, ok := r.Guide(id); ok {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID < list[j].ID
		}
		return natural.Less(list[i].Name, list[j].Name)
	})
	for _, g := range list {
		fmt.Fprintf(w, "%6d  %s  %3d steps  %s\n", g.ID, g.Lang, len(g.Steps), g.Name)
	}
}

func listCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	w := cmd.Root().Writer

	if !cmd.Bool("watch") && !env.Cfg.Guides.Watch {
		listGuides(w, env.openRegistry())
		return nil
	}

	changed := make(chan struct{}, 1)
	r := env.openRegistry(guides.WithOnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))
	listGuides(w, r)
	if err := r.Watch(ctx); err != nil {
		return err
	}
	env.Log.Info("Watching guides folder, interrupt to stop", zap.String("dir", r.Dir()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			fmt.Fprintln(w)
			listGuides(w, r)
		}
	}
}

func profilesCommand(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	store, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer

	if name := cmd.String("add"); name != "" {
		id, err := store.CreateProfile(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, id)
		return nil
	}

	profiles, err := store.Profiles(ctx)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		mark := " "
		if p.ID == env.Cfg.Progress.Profile {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-36s  %3d  %s\n", mark, p.ID, p.Level, p.Name)
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := cmd.Root().Writer
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
