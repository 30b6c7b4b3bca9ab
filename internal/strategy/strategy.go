// Package strategy turns a merged corpus into at most one selection.
//
// Every strategy implements Strategy. Delegates hand the corpus to an
// external menu program; Filter, Random and NoneStrategy decide in-process.
// A cancelled or empty pick is a Result with Chosen false, never an error.
// Errors are reserved for operational failures (STRATEGY_FAILED).
package strategy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// Kind names a selection engine.
type Kind string

const (
	KindRofi   Kind = "rofi"
	KindDmenu  Kind = "dmenu"
	KindPmenu  Kind = "pmenu"
	KindFzf    Kind = "fzf"
	KindFilter Kind = "filter"
	KindRandom Kind = "random"
	KindNone   Kind = "none"
)

// Kinds lists every selection engine.
var Kinds = []Kind{KindRofi, KindDmenu, KindPmenu, KindFzf, KindFilter, KindRandom, KindNone}

// ParseKind validates a selection engine name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if slices.Contains(Kinds, k) {
		return k, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown menu %q", name))
}

// IsDelegate reports whether k runs an external menu program.
func (k Kind) IsDelegate() bool {
	switch k {
	case KindRofi, KindDmenu, KindPmenu, KindFzf:
		return true
	}
	return false
}

// Result is the outcome of a selection: a token and its description, or
// nothing when Chosen is false.
type Result struct {
	Token       string `json:"token,omitempty"`
	Description string `json:"description,omitempty"`
	Chosen      bool   `json:"chosen"`
}

// None is the empty selection.
func None() Result {
	return Result{}
}

// FromLine splits a picked corpus line into a Result.
// A malformed line yields None.
func FromLine(line string) Result {
	token, desc, ok := corpus.Split(line)
	if !ok {
		return None()
	}
	return Result{Token: token, Description: desc, Chosen: true}
}

// Line renders the selection as a corpus line.
func (r Result) Line() string {
	if !r.Chosen {
		return ""
	}
	return corpus.Join(r.Token, r.Description)
}

// Strategy selects at most one line from a corpus.
type Strategy interface {
	Kind() Kind
	Select(ctx context.Context, c corpus.Corpus) (Result, error)
}

// New builds the strategy configured in s. Delegates run their program
// through runner.
func New(s config.Settings, runner proc.Runner) (Strategy, error) {
	kind, err := ParseKind(s.Menu)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFilter:
		return Filter{Pattern: s.Pattern, IgnoreCase: s.IgnoreCase}, nil
	case KindRandom:
		return NewRandom(nil), nil
	case KindNone:
		return NoneStrategy{}, nil
	}

	if runner == nil {
		return nil, errors.NewInternal(fmt.Errorf("no process runner for %s", kind))
	}
	return &Delegate{
		Menu:    MenuFor(kind, MenuOptionsFrom(s)),
		Program: proc.Which(s.Program(string(kind))),
		Runner:  runner,
	}, nil
}

// firstLine returns the first non-empty line of program output.
func firstLine(out string) string {
	out = strings.TrimLeft(out, "\r\n")
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimRight(line, "\r")
}

// Filter picks the first corpus line containing Pattern.
// An empty pattern matches the first line.
type Filter struct {
	Pattern    string
	IgnoreCase bool
}

func (Filter) Kind() Kind { return KindFilter }

func (f Filter) Select(_ context.Context, c corpus.Corpus) (Result, error) {
	pattern := f.Pattern
	if f.IgnoreCase {
		pattern = corpus.Fold(pattern)
	}
	for _, line := range c.Lines {
		candidate := line
		if f.IgnoreCase {
			candidate = corpus.Fold(line)
		}
		if strings.Contains(candidate, pattern) {
			return FromLine(line), nil
		}
	}
	return None(), nil
}

// Random picks one distinct non-empty line uniformly at random.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random drawing from rng. A nil rng uses a randomly
// seeded generator.
func NewRandom(rng *rand.Rand) Random {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return Random{rng: rng}
}

func (Random) Kind() Kind { return KindRandom }

func (r Random) Select(_ context.Context, c corpus.Corpus) (Result, error) {
	unique := corpus.Dedupe(c.Lines)
	candidates := unique[:0]
	for _, line := range unique {
		if line != "" {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) == 0 {
		return None(), errors.NewEmptyCorpus(string(KindRandom))
	}

	rng := r.rng
	if rng == nil {
		rng = NewRandom(nil).rng
	}
	return FromLine(candidates[rng.IntN(len(candidates))]), nil
}

// NoneStrategy never selects anything.
type NoneStrategy struct{}

func (NoneStrategy) Kind() Kind { return KindNone }

func (NoneStrategy) Select(context.Context, corpus.Corpus) (Result, error) {
	return None(), nil
}
