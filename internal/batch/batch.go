package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/textutil"
	"rpgm-translator/internal/translation"
	"rpgm-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// Action is a batch rewrite applied to one translation column.
type Action int

const (
	ActionTrim Action = iota
	ActionTranslate
	ActionWrap
)

func (a Action) String() string {
	switch a {
	case ActionTrim:
		return "trim"
	case ActionTranslate:
		return "translate"
	case ActionWrap:
		return "wrap"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction parses an action name.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "trim":
		return ActionTrim, nil
	case "translate":
		return ActionTranslate, nil
	case "wrap":
		return ActionWrap, nil
	}
	return 0, fmt.Errorf("unknown batch action %q", s)
}

var (
	// ErrInvalidColumn is returned for target columns below 1.
	ErrInvalidColumn = errors.New("invalid translation column")
	// ErrInvalidLimit is returned for wrap limits below 1.
	ErrInvalidLimit = errors.New("invalid wrap limit")
	// ErrNoTranslator is returned when translating without a translator.
	ErrNoTranslator = errors.New("no translator configured")
)

// Options configures a rewrite.
type Options struct {
	Action Action
	// Column is the translation column number (1-based).
	Column int
	// Limit is the wrap width.
	Limit int
	From  string
	To    string
}

func (o Options) validate() error {
	if o.Column < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, o.Column)
	}
	if o.Action == ActionWrap && o.Limit < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, o.Limit)
	}
	return nil
}

// Result is the outcome of rewriting one file.
type Result struct {
	Content string
	// Changed is the number of rows rewritten.
	Changed int
}

// Rewriter applies batch actions to corpus files.
type Rewriter struct {
	translator translation.Translator
	workers    int
}

// NewRewriter creates a rewriter. translator may be nil when only trim and
// wrap are used. workers bounds concurrent translate calls.
func NewRewriter(translator translation.Translator, workers int) *Rewriter {
	return &Rewriter{translator: translator, workers: workers}
}

// Rewrite applies opts to content. Lines are never dropped or reordered.
// Rows that do not qualify, blank lines and malformed lines are returned
// unchanged. Failed translations leave their row untouched and are
// reported in the returned error alongside the partial result.
func (rw *Rewriter) Rewrite(ctx context.Context, filename, content string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Action == ActionTranslate && rw.translator == nil {
		return nil, ErrNoTranslator
	}

	lines := textutil.SplitLines(content)
	result := &Result{}
	var jobs []translateJob

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parsed, ok := row.Parse(line)
		if !ok {
			log.Warn().Str("file", filename).Int("line", i+1).Msg("Malformed line, skipping")
			continue
		}

		if opts.Action != ActionTranslate && opts.Column >= parsed.Width() {
			log.Warn().Str("file", filename).Int("line", i+1).Msgf("Column %d doesn't exist", opts.Column)
			continue
		}

		target := row.Column(parsed, opts.Column)
		source := parsed.Source()
		comment := row.IsComment(source)

		switch opts.Action {
		case ActionTrim:
			trimmed := strings.TrimSpace(target)
			if comment || trimmed == "" || trimmed == target {
				continue
			}
			parsed.Set(opts.Column, trimmed)

		case ActionWrap:
			if comment || strings.TrimSpace(target) == "" {
				continue
			}
			wrapped := Wrap(target, opts.Limit)
			if wrapped == target {
				continue
			}
			parsed.Set(opts.Column, wrapped)

		case ActionTranslate:
			if strings.TrimSpace(target) != "" {
				continue
			}
			text := source
			if comment {
				name, ok := row.DisplayName(source)
				if !ok {
					continue
				}
				text = name
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			jobs = append(jobs, translateJob{line: i, text: text, row: parsed})
			continue
		}

		lines[i] = parsed.Line()
		result.Changed++
	}

	var err error
	if len(jobs) > 0 {
		err = rw.translate(translation.WithFile(ctx, corpus.TabName(filename)), jobs, opts)
		for _, job := range jobs {
			if job.done {
				lines[job.line] = job.row.Line()
				result.Changed++
			}
		}
	}

	result.Content = textutil.JoinLines(lines)
	log.Info().Str("file", filename).Str("action", opts.Action.String()).Int("changed", result.Changed).Msg("Batch rewrite complete")
	return result, err
}

type translateJob struct {
	line int
	text string
	row  *row.ParsedRow
	done bool
}

func (rw *Rewriter) translate(ctx context.Context, jobs []translateJob, opts Options) error {
	pool := worker.NewPool("translate", rw.workers, func(ctx context.Context, job translateJob) (string, error) {
		return rw.translator.Translate(ctx, job.text, opts.From, opts.To)
	})
	tasks := pool.Execute(ctx, jobs)

	for i, task := range tasks {
		if task.Err != nil {
			continue
		}
		// A bare \r would split the row when written.
		jobs[i].row.Set(opts.Column, textutil.JoinLines(textutil.SplitLines(task.Result)))
		jobs[i].done = true
	}

	if err := worker.Errors(tasks); err != nil {
		return fmt.Errorf("translate rows: %w", err)
	}
	return nil
}

// RewriteFiles rewrites every named tab on disk. A file that fails is
// logged and the rest are still processed.
func (rw *Rewriter) RewriteFiles(ctx context.Context, fsys fsio.FS, walker *corpus.Walker, names []string, opts Options) error {
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := walker.Path(name)
		content, err := fsys.ReadTextFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("Failed to read file for batch rewrite")
			errs = append(errs, err)
			continue
		}

		result, err := rw.Rewrite(ctx, name, content, opts)
		if result == nil {
			return err
		}
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("Batch rewrite incomplete")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}

		if result.Changed == 0 {
			continue
		}
		if err := fsys.WriteTextFile(path, result.Content); err != nil {
			log.Error().Err(err).Str("file", name).Msg("Failed to write file after batch rewrite")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
