package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/cost"
	"github.com/sells-group/contentgrade/internal/resilience"
)

// Router dispatches model IDs of the form "provider/model" to the backend
// registered for the provider. Backends receive the provider-local model
// name. Transient failures are retried.
type Router struct {
	backends map[string]Invoker
	retry    resilience.RetryConfig
	calc     *cost.Calculator
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRetry sets the retry policy for model calls.
func WithRetry(cfg resilience.RetryConfig) RouterOption {
	return func(r *Router) {
		r.retry = cfg
	}
}

// WithCalculator prices every completion's usage.
func WithCalculator(calc *cost.Calculator) RouterOption {
	return func(r *Router) {
		r.calc = calc
	}
}

// NewRouter creates a Router. Register backends with Register.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		backends: make(map[string]Invoker),
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds the backend for provider.
func (r *Router) Register(provider string, backend Invoker) {
	r.backends[provider] = backend
}

// Providers returns the number of registered backends.
func (r *Router) Providers() int {
	return len(r.backends)
}

func (r *Router) resolve(modelID string) (Invoker, string, error) {
	provider, name := config.SplitModelID(modelID)
	backend, ok := r.backends[provider]
	if !ok {
		return nil, "", eris.Wrapf(ErrUnknownProvider, "%q (model %s)", provider, modelID)
	}
	if name == "" {
		return nil, "", eris.Errorf("llm: empty model name in %q", modelID)
	}
	return backend, name, nil
}

// Invoke implements Invoker.
func (r *Router) Invoke(ctx context.Context, modelID string, msgs []Message) (*Completion, error) {
	backend, name, err := r.resolve(modelID)
	if err != nil {
		return nil, err
	}
	return r.call(ctx, modelID, "invoke", func(ctx context.Context) (*Completion, error) {
		return backend.Invoke(ctx, name, msgs)
	})
}

// InvokeStructured implements Invoker.
func (r *Router) InvokeStructured(ctx context.Context, modelID string, msgs []Message, schema *Schema) (*Completion, error) {
	if schema == nil {
		return nil, eris.New("llm: structured call without schema")
	}
	backend, name, err := r.resolve(modelID)
	if err != nil {
		return nil, err
	}
	return r.call(ctx, modelID, "invoke_structured", func(ctx context.Context) (*Completion, error) {
		return backend.InvokeStructured(ctx, name, msgs, schema)
	})
}

func (r *Router) call(ctx context.Context, modelID, op string, fn func(context.Context) (*Completion, error)) (*Completion, error) {
	retry := r.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(modelID, op)
	}

	start := time.Now()
	comp, err := resilience.DoVal(ctx, retry, fn)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: %s %s", op, modelID)
	}

	comp.Model = modelID
	if r.calc != nil {
		comp.Usage = r.calc.Apply(modelID, comp.Usage)
	}

	zap.L().Debug("model call complete",
		zap.String("model", modelID),
		zap.String("op", op),
		zap.Int("input_tokens", comp.Usage.InputTokens),
		zap.Int("output_tokens", comp.Usage.OutputTokens),
		zap.Float64("cost_usd", comp.Usage.Cost),
		zap.Duration("elapsed", time.Since(start)),
	)
	return comp, nil
}
