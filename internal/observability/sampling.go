package observability

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

// SamplingRule decides how many root spans to keep. A rule matches a span
// when both patterns match (empty or "*" matches anything; "?" matches one
// character). Up to FixedTarget matching spans per second are always kept,
// and Rate of the rest.
type SamplingRule struct {
	Description string  `yaml:"description"`
	ServiceName string  `yaml:"service_name"`
	SpanName    string  `yaml:"span_name"`
	FixedTarget int     `yaml:"fixed_target"`
	Rate        float64 `yaml:"rate"`
}

// SamplingRules is a localized sampling rules document. The layout follows
// the X-Ray "sampling-rules.json" format, so existing JSON files load
// unchanged (YAML is accepted too); host, http_method and url_path keys are
// ignored.
type SamplingRules struct {
	Version int            `yaml:"version"`
	Rules   []SamplingRule `yaml:"rules"`
	Default SamplingRule   `yaml:"default"`
}

// DefaultSamplingRules keeps one trace per second and 5% beyond that.
func DefaultSamplingRules() SamplingRules {
	return SamplingRules{
		Version: 2,
		Default: SamplingRule{Description: "default", FixedTarget: 1, Rate: 0.05},
	}
}

// LoadSamplingRules reads rules from path. An empty path yields DefaultSamplingRules.
func LoadSamplingRules(path string) (SamplingRules, error) {
	if path == "" {
		return DefaultSamplingRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SamplingRules{}, fmt.Errorf("read sampling rules: %w", err)
	}
	return ParseSamplingRules(data)
}

// ParseSamplingRules decodes and validates a rules document.
func ParseSamplingRules(data []byte) (SamplingRules, error) {
	var rules SamplingRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return SamplingRules{}, fmt.Errorf("parse sampling rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return SamplingRules{}, err
	}
	return rules, nil
}

// Validate checks the version, rates, targets and patterns of every rule.
func (r SamplingRules) Validate() error {
	if r.Version != 1 && r.Version != 2 {
		return fmt.Errorf("sampling rules: unsupported version %d", r.Version)
	}
	var errs []error
	for i, rule := range r.Rules {
		if err := rule.validate(); err != nil {
			errs = append(errs, fmt.Errorf("sampling rules: rule %d (%s): %w", i, rule.Description, err))
		}
	}
	if err := r.Default.validate(); err != nil {
		errs = append(errs, fmt.Errorf("sampling rules: default: %w", err))
	}
	return errors.Join(errs...)
}

func (r SamplingRule) validate() error {
	if r.FixedTarget < 0 {
		return fmt.Errorf("fixed_target %d is negative", r.FixedTarget)
	}
	if r.Rate < 0 || r.Rate > 1 {
		return fmt.Errorf("rate %v is outside [0, 1]", r.Rate)
	}
	for _, p := range []string{r.ServiceName, r.SpanName} {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}
	return nil
}

func (r SamplingRule) matches(service, span string) bool {
	return wildcardMatch(r.ServiceName, service) && wildcardMatch(r.SpanName, span)
}

func wildcardMatch(pattern, s string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}

// RulesSampler implements sdktrace.Sampler over SamplingRules. The first
// matching rule wins; the default rule applies when none match.
type RulesSampler struct {
	service string
	rules   []*ruleState
	def     *ruleState
	clock   clockwork.Clock
}

var _ sdktrace.Sampler = (*RulesSampler)(nil)

// NewRulesSampler creates a sampler for spans of the named service.
func NewRulesSampler(service string, rules SamplingRules, clock clockwork.Clock) *RulesSampler {
	s := &RulesSampler{
		service: service,
		def:     newRuleState(rules.Default),
		clock:   clock,
	}
	for _, r := range rules.Rules {
		s.rules = append(s.rules, newRuleState(r))
	}
	return s
}

// ShouldSample keeps the span if the matching rule still has reservoir for
// the current second, else falls back to the rule's trace-id ratio.
func (s *RulesSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	rule := s.match(p.Name)

	var decision sdktrace.SamplingDecision
	if rule.borrow(s.clock.Now()) {
		decision = sdktrace.RecordAndSample
	} else {
		decision = rule.ratio.ShouldSample(p).Decision
	}

	return sdktrace.SamplingResult{
		Decision:   decision,
		Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
	}
}

func (s *RulesSampler) Description() string {
	return fmt.Sprintf("RulesSampler{service=%s,rules=%d}", s.service, len(s.rules))
}

func (s *RulesSampler) match(span string) *ruleState {
	for _, r := range s.rules {
		if r.matches(s.service, span) {
			return r
		}
	}
	return s.def
}

// ruleState pairs a rule with its per-second reservoir.
type ruleState struct {
	SamplingRule
	ratio sdktrace.Sampler

	mu     sync.Mutex
	second int64
	used   int
}

func newRuleState(r SamplingRule) *ruleState {
	return &ruleState{SamplingRule: r, ratio: sdktrace.TraceIDRatioBased(r.Rate)}
}

func (r *ruleState) borrow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sec := now.Unix(); sec != r.second {
		r.second = sec
		r.used = 0
	}
	if r.used < r.FixedTarget {
		r.used++
		return true
	}
	return false
}
