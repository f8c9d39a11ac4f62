// Package validator provides the BPX document validator.
package validator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	bpx "github.com/bpxgo/validator"
	"github.com/bpxgo/validator/cache"
	"github.com/bpxgo/validator/pkg/consistency"
	"github.com/bpxgo/validator/pkg/function"
	"github.com/bpxgo/validator/pkg/issue"
	"github.com/bpxgo/validator/pkg/loader"
	"github.com/bpxgo/validator/pkg/location"
	"github.com/bpxgo/validator/pkg/logger"
	"github.com/bpxgo/validator/pkg/schema"
	"github.com/bpxgo/validator/pkg/section"
	"github.com/bpxgo/validator/pkg/variant"
	"github.com/bpxgo/validator/pkg/walker"
)

// Phase names, as recorded in metrics.
const (
	PhaseHeader      = "header"
	PhaseVariant     = "variant"
	PhaseState       = "state"
	PhaseValidation  = "validation"
	PhaseStructure   = "structure"
	PhaseStrict      = "strict"
	PhaseConsistency = "consistency"
)

// Validator is the main BPX document validator. It is safe for concurrent
// use.
type Validator struct {
	config   *Config
	compiler *function.Compiler
	cache    *cache.Cache[string, *function.Func]
	checker  *consistency.Checker
	metrics  *bpx.Metrics
	log      *logger.Logger

	// cache counters already reported to metrics
	mu         sync.Mutex
	lastHits   uint64
	lastMisses uint64
}

// Config holds the validator configuration.
type Config struct {
	Functions  []function.Builtin // Functions approved in addition to exp, tanh and cosh
	CacheSize  int                // Compiled expression cache capacity; 0 disables the cache
	StrictMode bool               // Every expression must compile against the approved functions
	Logger     *logger.Logger     // Defaults to the logger carried by the context
	Metrics    *bpx.Metrics       // Defaults to a private instance
}

// Option is a functional option for configuring the validator.
type Option func(*Config)

// WithFunction approves an extra function of the given arity for
// expressions.
func WithFunction(name string, arity int, fn func(args ...float64) float64) Option {
	return func(c *Config) {
		c.Functions = append(c.Functions, function.Builtin{Name: name, Arity: arity, Fn: fn})
	}
}

// WithCacheSize sets the compiled expression cache capacity.
func WithCacheSize(size int) Option {
	return func(c *Config) {
		c.CacheSize = size
	}
}

// WithStrictMode enables strict mode: every expression in the parameter set
// must compile, not only the ones the consistency check evaluates.
func WithStrictMode(strict bool) Option {
	return func(c *Config) {
		c.StrictMode = strict
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records validation metrics into m.
func WithMetrics(m *bpx.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// validateConfig holds per-call validation options.
type validateConfig struct {
	tolerance float64
}

// ValidateOption configures a single Validate call.
type ValidateOption func(*validateConfig)

// WithVoltageTolerance sets the absolute voltage tolerance in volts used by
// the consistency check for this call only. It must not be negative.
func WithVoltageTolerance(v float64) ValidateOption {
	return func(c *validateConfig) {
		c.tolerance = v
	}
}

// Result is a successful validation.
type Result struct {
	Document *schema.Document
	Warnings *issue.Result
	Duration time.Duration
}

// HasWarnings reports whether validation produced any warning.
func (r *Result) HasWarnings() bool {
	return r.Warnings.HasWarnings()
}

// New creates a new Validator with the given options.
func New(opts ...Option) (*Validator, error) {
	config := &Config{
		CacheSize: cache.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(config)
	}

	copts := make([]function.Option, 0, len(config.Functions)+1)
	for _, b := range config.Functions {
		if err := checkBuiltin(b); err != nil {
			return nil, err
		}
		copts = append(copts, function.WithFunction(b.Name, b.Arity, b.Fn))
	}

	v := &Validator{
		config:  config,
		metrics: config.Metrics,
		log:     config.Logger,
	}
	if v.metrics == nil {
		v.metrics = bpx.NewMetrics()
	}
	if v.log == nil {
		v.log = logger.Default()
	}
	if config.CacheSize > 0 {
		v.cache = cache.New[string, *function.Func](config.CacheSize)
		copts = append(copts, function.WithCache(v.cache))
	}
	v.compiler = function.NewCompiler(copts...)
	v.checker = consistency.New(v.compiler, v.log)

	v.log.Info("validator ready",
		"format", bpx.FormatVersion,
		"functions", v.compiler.Names(),
		"cache", config.CacheSize,
		"strict", config.StrictMode,
	)
	return v, nil
}

// checkBuiltin rejects functions expressions could never call.
func checkBuiltin(b function.Builtin) error {
	if b.Fn == nil {
		return issue.NewError(issue.CodeConfiguration, nil, "function '%s' has no implementation", b.Name)
	}
	if b.Arity < 1 {
		return issue.NewError(issue.CodeConfiguration, nil, "function '%s' must take at least one argument, got %d", b.Name, b.Arity)
	}
	if b.Name == "x" || !isIdentifier(b.Name) {
		return issue.NewError(issue.CodeConfiguration, nil, "'%s' is not a valid function name", b.Name)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Validate validates a raw document tree and returns the typed document with
// its warnings. The first violation aborts validation and is returned as an
// *issue.Error; the Result is nil in that case.
func (v *Validator) Validate(ctx context.Context, raw map[string]any, opts ...ValidateOption) (*Result, error) {
	startTime := time.Now()

	vc := validateConfig{tolerance: consistency.DefaultTolerance}
	for _, opt := range opts {
		opt(&vc)
	}
	if !(vc.tolerance >= 0) {
		err := issue.ErrorWithID(issue.DiagConfigTolerance,
			map[string]any{"value": strconv.FormatFloat(vc.tolerance, 'g', -1, 64)}, nil)
		v.metrics.RecordError(errorKind(err))
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := v.logger(ctx)
	log.Info("validating document", "tolerance", vc.tolerance)

	r := &run{v: v, log: log, tolerance: vc.tolerance, warnings: issue.NewResult()}
	doc, err := r.document(raw)
	duration := time.Since(startTime)

	v.syncCache()
	v.metrics.RecordDocument(duration, err == nil)
	for _, w := range r.warnings.Warnings() {
		v.metrics.RecordWarning(string(w.Code))
	}

	if err != nil {
		v.metrics.RecordError(errorKind(err))
		log.Info("validation failed", "duration", duration, "error", err)
		return nil, err
	}

	log.Info("validated document",
		"model", doc.Header.Model,
		"duration", duration,
		"warnings", r.warnings.WarningCount(),
	)
	return &Result{Document: doc, Warnings: r.warnings, Duration: duration}, nil
}

// ValidateJSON parses and validates a JSON document. Errors carry the line
// and column of the offending value.
func (v *Validator) ValidateJSON(ctx context.Context, data []byte, opts ...ValidateOption) (*Result, error) {
	raw, err := loader.ParseJSON(data)
	if err != nil {
		v.metrics.RecordError(errorKind(err))
		return nil, err
	}
	res, err := v.Validate(ctx, raw, opts...)
	if err != nil {
		return nil, location.Enrich(data, err)
	}
	return res, nil
}

// ValidateDocument validates a loaded document. Errors in JSON documents
// carry the line and column of the offending value.
func (v *Validator) ValidateDocument(ctx context.Context, doc *loader.Document, opts ...ValidateOption) (*Result, error) {
	res, err := v.Validate(ctx, doc.Raw, opts...)
	if err != nil && doc.Format == loader.FormatJSON {
		return nil, location.Enrich(doc.Source, err)
	}
	return res, err
}

// Config returns the validator configuration.
func (v *Validator) Config() *Config {
	return v.config
}

// Metrics returns the metrics the validator records into.
func (v *Validator) Metrics() *bpx.Metrics {
	return v.metrics
}

// Functions returns the approved function names, sorted.
func (v *Validator) Functions() []string {
	return v.compiler.Names()
}

// Version returns the BPX format version being validated against.
func (v *Validator) Version() string {
	return bpx.FormatVersion
}

func (v *Validator) logger(ctx context.Context) *logger.Logger {
	if v.config.Logger != nil {
		return v.config.Logger
	}
	return logger.FromContext(ctx)
}

// syncCache reports cache lookups made since the last call.
func (v *Validator) syncCache() {
	if v.cache == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.cache.Stats()
	v.metrics.RecordCache(s.Hits-v.lastHits, s.Misses-v.lastMisses)
	v.lastHits, v.lastMisses = s.Hits, s.Misses
}

func errorKind(err error) string {
	if e, ok := issue.AsError(err); ok {
		return string(e.Code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "unknown"
}

// run is the state of one Validate call.
type run struct {
	v         *Validator
	log       *logger.Logger
	tolerance float64
	warnings  *issue.Result
}

// phase runs fn and records its duration.
func (r *run) phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.v.metrics.RecordPhase(name, time.Since(start))
	return err
}

func (r *run) document(raw map[string]any) (*schema.Document, error) {
	o, err := section.Open(raw, nil, false)
	if err != nil {
		return nil, err
	}
	doc := &schema.Document{}

	// Phase 1: Header, decoded on its own so the model is known
	err = r.phase(PhaseHeader, func() error {
		o.Decode(schema.SectionHeader, true, func(v any, at issue.Path) error {
			h, err := schema.DecodeHeader(v, at, r.warnings)
			doc.Header = h
			return err
		})
		return o.Err()
	})
	if err != nil {
		return nil, err
	}
	model := doc.Header.Model

	// Phase 2: Parameterisation, resolved against the model
	err = r.phase(PhaseVariant, func() error {
		o.Decode(schema.SectionParameterisation, true, func(v any, at issue.Path) error {
			out := variant.Resolve(v, at, model)
			r.log.Debug("parameter set resolved",
				"model", model, "match", out.Match, "shape", out.Shape)
			doc.Parameterisation = out.Params
			return out.Error()
		})
		return o.Err()
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: State, required unless the model is Partial
	err = r.phase(PhaseState, func() error {
		o.Decode(schema.SectionState, !model.IsPartial(), func(v any, at issue.Path) error {
			s, err := schema.DecodeState(v, at, doc.Parameterisation, model.IsPartial(), r.warnings)
			doc.State = s
			return err
		})
		return o.Err()
	})
	if err != nil {
		return nil, err
	}

	// Phase 4: Validation experiments
	err = r.phase(PhaseValidation, func() error {
		o.Decode(schema.SectionValidation, false, func(v any, at issue.Path) error {
			exps, err := schema.DecodeValidation(v, at)
			doc.Validation = exps
			return err
		})
		return o.Err()
	})
	if err != nil {
		return nil, err
	}

	// Phase 5: no other top-level sections
	if err := r.phase(PhaseStructure, o.Close); err != nil {
		return nil, err
	}

	params := issue.NewPath(schema.SectionParameterisation)

	// Phase 6: every expression compiles
	if r.v.config.StrictMode {
		if err := r.phase(PhaseStrict, func() error { return r.compileAll(doc.Parameterisation, params) }); err != nil {
			return nil, err
		}
	}

	// Phase 7: voltage cut-offs against the OCPs
	start := time.Now()
	ran := r.v.checker.Check(doc.Parameterisation, params, r.tolerance, r.warnings)
	r.v.metrics.RecordPhase(PhaseConsistency, time.Since(start))
	r.log.Debug("consistency check finished", "ran", ran, "tolerance", r.tolerance)

	return doc, nil
}

// compileAll compiles every expression of p and fails on the first one
// that calls an unapproved function.
func (r *run) compileAll(p *schema.Parameterisation, path issue.Path) error {
	var err error
	walker.Expressions(p, path, func(ctx *walker.QuantityContext) bool {
		e, _ := ctx.Quantity.Expression()
		if _, cerr := r.v.compiler.Compile(e); cerr != nil {
			err = issue.ErrorWithID(issue.DiagExpressionInvalid,
				map[string]any{"error": cerr.Error()}, ctx.Path).Wrap(cerr)
			return false
		}
		return true
	})
	return err
}
