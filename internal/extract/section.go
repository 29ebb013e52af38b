package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/openfdd/dossier/internal/calllog"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/prompts"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/store"
)

// Input is one section extraction task.
type Input struct {
	FDDID         string
	ItemNo        int
	FranchiseName string

	// Text is the section's plain text content.
	Text string

	// Preferred optionally forces the primary backend by name.
	Preferred string
}

// Outcome is the terminal result of one section extraction.
type Outcome struct {
	FDDID  string
	ItemNo int
	Status store.Status

	// Backend and Model identify the winning call on success, the last one
	// tried otherwise.
	Backend string
	Model   string

	// Data is the validated extraction payload on success.
	Data json.RawMessage

	// Parsed is Data decoded through the item package's typed result
	// (e.g. *item5.Result). Nil when the template registers no decoder.
	Parsed any

	// Reason is the terminal message for failed and skipped sections.
	Reason string

	// Err is the underlying error when the section did not succeed;
	// errors.Is(Err, context.Canceled) distinguishes an aborted run from a
	// model failure.
	Err error

	// Usage sums every call made for the section, including attempts a
	// later fallback superseded.
	Usage monitor.Usage

	// Calls is how many model API calls the section consumed.
	Calls int

	Elapsed time.Duration
}

// Cancelled reports whether the section ended because the run was aborted.
func (o *Outcome) Cancelled() bool {
	return errors.Is(o.Err, context.Canceled)
}

// ExtractSection runs one section through the prompt catalog, the router's
// fallback chain, and the store's state machine. It always returns an
// outcome; infrastructure problems surface as failed outcomes, not panics.
func (e *Engine) ExtractSection(ctx context.Context, in Input) *Outcome {
	out := &Outcome{FDDID: in.FDDID, ItemNo: in.ItemNo}
	start := time.Now()
	defer func() { out.Elapsed = time.Since(start) }()

	span := e.monitor.Begin(in.FDDID, in.ItemNo)

	tpl, ok := e.catalog.ForItem(in.ItemNo)
	if !ok {
		out.Status = store.StatusSkipped
		out.Reason = "no prompt template registered"
		e.writeStatus(ctx, in, store.StatusSkipped, store.StatusUpdate{Error: out.Reason})
		span.End(monitor.OutcomeSkipped, "", out.Usage)
		return out
	}

	if strings.TrimSpace(in.Text) == "" {
		out.Status = store.StatusFailed
		out.Reason = "no text content"
		out.Err = errors.New(out.Reason)
		e.writeStatus(ctx, in, store.StatusFailed, store.StatusUpdate{Error: out.Reason})
		span.End(monitor.OutcomeFailed, "", out.Usage)
		return out
	}

	// The gate bounds model calls process-wide; validation shortcuts above
	// never consume a slot.
	if err := e.router.Acquire(ctx); err != nil {
		out.Status = store.StatusFailed
		out.Reason = "extraction cancelled"
		out.Err = err
		e.writeStatus(ctx, in, store.StatusFailed, store.StatusUpdate{Error: out.Reason})
		span.End(monitor.OutcomeCancelled, "", out.Usage)
		return out
	}
	defer e.router.Release()

	if err := e.store.UpdateStatus(ctx, in.FDDID, in.ItemNo, store.StatusProcessing, store.StatusUpdate{}); err != nil {
		out.Status = store.StatusFailed
		out.Reason = fmt.Sprintf("failed to mark section processing: %v", err)
		out.Err = err
		span.End(monitor.OutcomeFailed, "", out.Usage)
		return out
	}

	sectionTimeout := sectionTimeoutFactor * e.cfg.CallTimeout
	sectionCtx, cancel := context.WithTimeout(ctx, sectionTimeout)
	defer cancel()

	system, user := tpl.Render(map[string]string{
		"section_content": in.Text,
		"franchise_name":  in.FranchiseName,
	}, int(e.maxFewShot.Load()))

	chain := e.router.Chain(in.ItemNo, in.Preferred)

	var lastErr error
	for _, backend := range chain {
		out.Backend = backend.Name()
		out.Model = backend.Model()

		res, err := e.callBackend(sectionCtx, backend, tpl, in, system, user, out)
		if err == nil {
			return e.finishSuccess(ctx, in, out, span, res)
		}
		lastErr = err
		e.router.ReportFailure(backend.Name())

		if sectionCtx.Err() != nil {
			break
		}
		e.logger.Warn("backend failed, falling back",
			"fdd_id", in.FDDID,
			"item", in.ItemNo,
			"backend", backend.Name(),
			"error", err,
		)
	}

	out.Status = store.StatusFailed
	monOutcome := monitor.OutcomeFailed
	switch {
	case ctx.Err() != nil:
		out.Reason = "extraction cancelled"
		out.Err = ctx.Err()
		monOutcome = monitor.OutcomeCancelled
	case sectionCtx.Err() != nil:
		out.Reason = fmt.Sprintf("section timed out after %s", sectionTimeout)
		out.Err = sectionCtx.Err()
	case lastErr != nil:
		out.Reason = lastErr.Error()
		out.Err = lastErr
	default:
		out.Reason = "no model backends available"
		out.Err = errors.New(out.Reason)
	}

	e.writeStatus(ctx, in, store.StatusFailed, store.StatusUpdate{Model: out.Model, Error: out.Reason})
	span.End(monOutcome, out.Model, out.Usage)
	return out
}

// finishSuccess persists the winning result and closes out the section.
func (e *Engine) finishSuccess(ctx context.Context, in Input, out *Outcome, span *monitor.Span, res *attempt) *Outcome {
	now := time.Now().UTC()
	result := store.Result{
		Model:            res.resp.Model,
		Backend:          res.resp.Backend,
		Data:             res.data,
		PromptTokens:     res.usage.PromptTokens,
		CompletionTokens: res.usage.CompletionTokens,
		TotalTokens:      res.usage.TotalTokens,
		CostUSD:          res.usage.CostUSD,
		TotalSeconds:     res.resp.Latency.Seconds(),
		CreatedAt:        now,
	}

	// Terminal store writes survive run cancellation so no record is left
	// in processing.
	storeCtx := context.WithoutCancel(ctx)
	if err := e.store.AppendResult(storeCtx, in.FDDID, in.ItemNo, result); err != nil {
		out.Status = store.StatusFailed
		out.Reason = fmt.Sprintf("failed to persist result: %v", err)
		out.Err = err
		e.writeStatus(ctx, in, store.StatusFailed, store.StatusUpdate{Model: result.Model, Error: out.Reason})
		span.End(monitor.OutcomeFailed, result.Model, out.Usage)
		return out
	}
	if err := e.store.UpdateStatus(storeCtx, in.FDDID, in.ItemNo, store.StatusSuccess, store.StatusUpdate{Model: result.Model, ExtractedAt: &now}); err != nil {
		e.logger.Warn("failed to mark section success",
			"fdd_id", in.FDDID, "item", in.ItemNo, "error", err)
	}

	e.router.ReportSuccess(res.resp.Backend)

	out.Status = store.StatusSuccess
	out.Backend = res.resp.Backend
	out.Model = res.resp.Model
	out.Data = res.data
	out.Parsed = res.parsed
	span.End(monitor.OutcomeSuccess, result.Model, out.Usage)

	e.logger.Info("section extracted",
		"fdd_id", in.FDDID,
		"item", in.ItemNo,
		"backend", out.Backend,
		"model", out.Model,
		"calls", out.Calls,
		"tokens", out.Usage.TotalTokens,
		"cost_usd", out.Usage.CostUSD,
	)
	return out
}

// attempt is one accepted backend response: schema-valid data, its typed
// decoding, and the call that produced it.
type attempt struct {
	data   json.RawMessage
	parsed any
	resp   *providers.Response
	usage  monitor.Usage
}

// callBackend tries one backend with retry on transient errors. Invalid
// responses and fatal errors return immediately so the caller moves to the
// next backend in the chain. Every real API call is logged and counted,
// including retried ones.
func (e *Engine) callBackend(ctx context.Context, b providers.Backend, tpl *prompts.Template, in Input, system, user string, out *Outcome) (*attempt, error) {
	limiter := e.registry.Limiter(b.Name())

	op := func() (*attempt, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()

		if limiter != nil {
			if err := limiter.Wait(callCtx); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, &providers.Error{
					Kind:    providers.KindTransient,
					Backend: b.Name(),
					Err:     fmt.Errorf("rate limit wait: %w", err),
				}
			}
		}

		req := &providers.Request{
			SystemPrompt: system,
			UserPrompt:   user,
			Schema:       tpl.Schema,
			SchemaName:   tpl.Name,
			Temperature:  e.cfg.Temperature,
			MaxTokens:    e.cfg.MaxTokens,
			RequestID:    uuid.New().String(),
		}

		callStart := time.Now()
		resp, err := b.Extract(callCtx, req)
		latency := time.Since(callStart)

		if err != nil {
			if ctx.Err() != nil {
				// The section budget or the whole run ended; stop, do not
				// reclassify.
				e.recordCall(in, tpl.Name, b, resp, monitor.Usage{}, latency, err)
				return nil, ctx.Err()
			}
			if callCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
				err = &providers.Error{
					Kind:    providers.KindTransient,
					Backend: b.Name(),
					Err:     fmt.Errorf("call timed out after %s: %w", e.cfg.CallTimeout, err),
				}
			}
		}

		var usage monitor.Usage
		if resp != nil {
			usage = usageFromResponse(system, user, resp)
		}

		if err == nil {
			data, decodeErr := providers.DecodeStructured(resp.Content, tpl.CompiledSchema())
			var parsed any
			if decodeErr == nil && tpl.Decode != nil {
				// Schema-valid output must also bind to the item's typed
				// result; a payload that does not is an invalid response.
				parsed, decodeErr = tpl.Decode(data)
				if decodeErr != nil {
					decodeErr = &providers.Error{
						Kind:    providers.KindInvalidResponse,
						Backend: b.Name(),
						Err:     fmt.Errorf("binding %s result: %w", tpl.Name, decodeErr),
					}
				}
			}
			if decodeErr == nil {
				out.Usage.Add(usage)
				out.Calls++
				e.monitor.RecordCall(b.Name(), resp.Model, usage, latency, true)
				e.recordCall(in, tpl.Name, b, resp, usage, latency, nil)
				return &attempt{data: data, parsed: parsed, resp: resp, usage: usage}, nil
			}
			err = decodeErr
		}

		var perr *providers.Error
		if errors.As(err, &perr) && perr.Status == http.StatusTooManyRequests && limiter != nil {
			limiter.Record429()
		}

		out.Usage.Add(usage)
		out.Calls++
		model := b.Model()
		if resp != nil && resp.Model != "" {
			model = resp.Model
		}
		e.monitor.RecordCall(b.Name(), model, usage, latency, false)
		e.recordCall(in, tpl.Name, b, resp, usage, latency, err)
		return nil, err
	}

	return retry.DoWithData(
		op,
		retry.Context(ctx),
		retry.Attempts(uint(e.cfg.RetryAttempts)),
		retry.Delay(e.cfg.RetryBaseDelay),
		retry.MaxDelay(e.cfg.RetryMaxDelay),
		retry.MaxJitter(e.cfg.RetryBaseDelay/2),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(providers.IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Debug("retrying backend call",
				"fdd_id", in.FDDID,
				"item", in.ItemNo,
				"backend", b.Name(),
				"attempt", n+1,
				"error", err,
			)
		}),
	)
}

// recordCall appends one API call to the filing's call log.
func (e *Engine) recordCall(in Input, template string, b providers.Backend, resp *providers.Response, usage monitor.Usage, latency time.Duration, callErr error) {
	if e.calls == nil {
		return
	}
	temp := e.cfg.Temperature
	c := &calllog.Call{
		FDDID:            in.FDDID,
		ItemNo:           in.ItemNo,
		Template:         template,
		Backend:          b.Name(),
		Model:            b.Model(),
		Temperature:      &temp,
		LatencyMs:        int(latency.Milliseconds()),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          usage.CostUSD,
		Success:          callErr == nil,
	}
	if resp != nil {
		if resp.Model != "" {
			c.Model = resp.Model
		}
		c.RequestID = resp.RequestID
	}
	if callErr != nil {
		c.Error = callErr.Error()
	}
	e.calls.Append(c)
}

// writeStatus records a terminal transition, surviving run cancellation.
func (e *Engine) writeStatus(ctx context.Context, in Input, status store.Status, upd store.StatusUpdate) {
	if err := e.store.UpdateStatus(context.WithoutCancel(ctx), in.FDDID, in.ItemNo, status, upd); err != nil {
		e.logger.Warn("failed to update section status",
			"fdd_id", in.FDDID,
			"item", in.ItemNo,
			"status", string(status),
			"error", err,
		)
	}
}

// usageFromResponse converts reported usage, estimating token counts when
// the backend reports none.
func usageFromResponse(system, user string, resp *providers.Response) monitor.Usage {
	u := monitor.Usage{
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		TotalTokens:      resp.TotalTokens,
		CostUSD:          resp.CostUSD,
	}
	if u.PromptTokens == 0 {
		u.PromptTokens = monitor.EstimateTokens(len(system) + len(user))
	}
	if u.CompletionTokens == 0 && resp.Content != "" {
		u.CompletionTokens = monitor.EstimateTokens(len(resp.Content))
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}
