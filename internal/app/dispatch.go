package app

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type ModelReply struct {
	Model string
	Text  string
}

type ModelFailure struct {
	Model string
	Error string
}

// DispatchResult aggregates one fan-out. Primary is the first success in
// request order; Alternatives never repeat the primary (model, text) pair.
type DispatchResult struct {
	Primary      ModelReply
	Alternatives []ModelReply
	Failures     []ModelFailure
}

// SyntheticResult wraps a scripted reply as a successful single-model
// dispatch, used by the identity shortcut.
func SyntheticResult(model, text string) DispatchResult {
	return DispatchResult{Primary: ModelReply{Model: model, Text: text}}
}

// NormalizeModels normalizes identifiers and dedupes them preserving
// first-seen order. An empty input yields the single default model.
func NormalizeModels(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, model := range models {
		normalized := NormalizeModel(model)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	if len(out) == 0 {
		out = append(out, DefaultModel)
	}
	return out
}

type Dispatcher struct {
	Backend ModelBackend
	Logger  *Logger
}

func NewDispatcher(backend ModelBackend, logger *Logger) *Dispatcher {
	return &Dispatcher{Backend: backend, Logger: logger}
}

// Dispatch issues one request per normalized model concurrently and joins
// them all-settled style. Completion order never affects the result: each
// goroutine writes to its own slot and aggregation walks request order.
// Failed calls are not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt Prompt, history []HistoryItem, models []string) (DispatchResult, error) {
	if d.Backend == nil {
		return DispatchResult{}, errors.New("backend is required")
	}
	if prompt.Empty() {
		return DispatchResult{}, errors.New("nothing to send")
	}

	targets := NormalizeModels(models)
	outcomes := make([]Outcome, len(targets))

	var wg sync.WaitGroup
	wg.Add(len(targets))
	for i, model := range targets {
		go func(slot int, model string) {
			defer wg.Done()
			outcomes[slot] = d.Backend.Generate(ctx, model, prompt, history)
		}(i, model)
	}
	wg.Wait()

	var result DispatchResult
	havePrimary := false
	for i, outcome := range outcomes {
		model := targets[i]
		switch outcome.Kind {
		case OutcomeSuccess:
			reply := ModelReply{Model: model, Text: outcome.Text}
			if !havePrimary {
				result.Primary = reply
				havePrimary = true
				continue
			}
			if reply.Model == result.Primary.Model && reply.Text == result.Primary.Text {
				continue
			}
			result.Alternatives = append(result.Alternatives, reply)
		default:
			result.Failures = append(result.Failures, ModelFailure{Model: model, Error: outcome.Err})
		}
	}

	if !havePrimary {
		first := "all model calls failed"
		if len(result.Failures) > 0 {
			first = result.Failures[0].Error
		}
		if d.Logger != nil {
			d.Logger.Error("dispatch failed", map[string]interface{}{
				"models": strings.Join(targets, ","),
			})
		}
		return DispatchResult{}, errors.New(first)
	}
	return result, nil
}
