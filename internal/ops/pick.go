package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/db"
	"github.com/thingsiplay/emojicherrypick/internal/logging"
	"github.com/thingsiplay/emojicherrypick/internal/output"
	"github.com/thingsiplay/emojicherrypick/internal/recents"
	"github.com/thingsiplay/emojicherrypick/internal/strategy"
)

// Outcome classifies a finished pick.
type Outcome string

const (
	OutcomeSelected    Outcome = "selected"
	OutcomeNoSelection Outcome = "no_selection" // cancelled, empty output or no match
	OutcomeNone        Outcome = "none"         // the none strategy ran
)

// PickInput adjusts what Pick does around the selection itself.
type PickInput struct {
	SkipRecord  bool // do not append to the recents ledger or the stats store
	SkipOutputs bool // do not dispatch to stdout, clipboard, typing or notify
}

// PickOutput contains the result of the Pick operation.
type PickOutput struct {
	Outcome    Outcome         `json:"outcome"`
	Selection  strategy.Result `json:"selection"`
	Strategy   strategy.Kind   `json:"strategy"`
	CorpusSize int             `json:"corpus_size"`
	Recorded   bool            `json:"recorded"`
	RecentsErr string          `json:"recents_error,omitempty"`
	StatsID    string          `json:"stats_id,omitempty"`
	Dispatched []string        `json:"dispatched,omitempty"`
}

// Pick runs the pipeline for one invocation: merge the corpus, select with
// the configured strategy, record the selection and deliver it to the
// enabled outputs.
//
// A failing recents ledger or stats store is logged and does not fail the
// pick. A failing output returns OUTPUT_FAILED after the selection has been
// recorded.
func Pick(ctx context.Context, s config.Settings, deps Deps, input PickInput) (*PickOutput, error) {
	log := logging.OrNop(deps.Logger)

	c, err := corpus.Load(corpus.Sources{
		RecentsPath:   s.RecentsPath,
		FavoritesPath: s.FavoritesPath,
		CatalogPath:   s.FilteredPath,
		RecentsSize:   s.RecentsSize,
	})
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(s, deps.Runner)
	if err != nil {
		return nil, err
	}
	log.Debug("selecting", zap.String("strategy", string(strat.Kind())), zap.Int("corpus_size", c.Len()))

	res, err := strat.Select(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &PickOutput{
		Outcome:    OutcomeSelected,
		Selection:  res,
		Strategy:   strat.Kind(),
		CorpusSize: c.Len(),
	}
	if !res.Chosen {
		out.Outcome = OutcomeNoSelection
		if strat.Kind() == strategy.KindNone {
			out.Outcome = OutcomeNone
		}
		log.Debug("nothing selected", zap.String("outcome", string(out.Outcome)))
		return out, nil
	}
	log.Debug("selected", zap.String("token", res.Token), zap.String("description", res.Description))

	if !input.SkipRecord {
		record(ctx, log, s, deps, out)
	}

	if input.SkipOutputs {
		return out, nil
	}
	sinks := output.Build(s, deps.Runner, deps.Stdout)
	if err := output.Dispatch(ctx, sinks, res.Token); err != nil {
		return nil, err
	}
	for _, sink := range sinks {
		out.Dispatched = append(out.Dispatched, sink.Name())
	}
	return out, nil
}

// record appends the selection to the recents ledger and the stats store.
func record(ctx context.Context, log *zap.Logger, s config.Settings, deps Deps, out *PickOutput) {
	res := out.Selection

	recorded, err := recents.New(s.RecentsPath).Append(res.Token, res.Description)
	if err != nil {
		log.Warn("failed to update recents", zap.String("path", s.RecentsPath), zap.Error(err))
		out.RecentsErr = err.Error()
	}
	out.Recorded = recorded

	if !s.UsageStats || deps.Stats == nil {
		return
	}
	id, err := db.RecordSelection(ctx, deps.Stats, db.Selection{
		Token:       res.Token,
		Description: res.Description,
		Strategy:    string(out.Strategy),
	})
	if err != nil {
		log.Warn("failed to record usage stats", zap.Error(err))
		return
	}
	out.StatsID = id
}
