package triage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/triagegate/pkg/provider"
)

// Generator is the model chain the service reasons through. Satisfied
// by orchestrator.Orchestrator and by test fakes.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (string, error)
}

// chatFallback is returned whenever no provider can answer a chat
// message.
const chatFallback = "I'm here to help with your health questions. While I can provide general guidance, please consult healthcare professionals for specific medical advice."

// chatSuggestions are the canned follow-up prompts offered with every
// chat reply.
var chatSuggestions = []string{
	"What should I eat while recovering?",
	"When should I take my temperature again?",
	"What warning signs should I watch for?",
	"How can I manage my symptoms at home?",
}

// Service composes the provider chain, the response extractor, the
// rule-based baseline, and the safety overrides into operations that
// never fail: every path through Assess ends in a usable Assessment.
type Service struct {
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRequestTimeout bounds a whole assessment, retries and fallback
// included. It must be no smaller than the retry policy's worst case.
func WithRequestTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithServiceLogger sets the structured logger.
func WithServiceLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// NewService creates a triage service over a generator chain.
func NewService(gen Generator, opts ...ServiceOption) *Service {
	s := &Service{
		gen:     gen,
		timeout: 2 * time.Minute,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess produces a triage assessment for one patient. It never
// returns an error: provider failure, unparsable output, a dead
// deadline, or a panic anywhere below all degrade to the rule-based
// baseline, and the safety overrides run on every result.
func (s *Service) Assess(ctx context.Context, p PatientInput) (a Assessment) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("assessment panicked, using rule-based baseline")
			a = s.finish(Classify(p), p)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.log.Info().Float64("temperature", p.Temperature).Int("age", p.Age).
		Int("symptoms", len(p.Symptoms)).Msg("requesting model assessment")

	raw, err := s.gen.Generate(ctx, provider.Request{
		System: systemPrompt,
		User:   userPrompt(p),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("all providers failed, using rule-based baseline")
		return s.finish(Classify(p), p)
	}

	parsed, err := ExtractAssessment(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("model output unparsable, using rule-based baseline")
		return s.finish(Classify(p), p)
	}

	s.log.Info().Stringer("severity", parsed.Severity).Msg("model assessment parsed")
	return s.finish(*parsed, p)
}

// finish runs the safety override stage, the one mutation an
// assessment sees before it is returned.
func (s *Service) finish(a Assessment, p PatientInput) Assessment {
	if ApplySafetyOverrides(&a, p) {
		s.log.Warn().Stringer("severity", a.Severity).
			Float64("temperature", p.Temperature).
			Msg("safety override escalated severity")
	}
	return a
}

// Chat answers a free-text follow-up question. On total provider
// failure it returns a fixed reassurance reply; it never fails.
func (s *Service) Chat(ctx context.Context, message, assessmentContext string) (reply ChatReply) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("chat panicked, using fallback reply")
			reply = ChatReply{Response: chatFallback, Suggestions: chatSuggestions}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(ctx, provider.Request{
		System: chatSystemPrompt,
		User:   chatUserPrompt(message, assessmentContext),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("chat providers failed, using fallback reply")
		return ChatReply{Response: chatFallback, Suggestions: chatSuggestions}
	}
	return ChatReply{Response: raw, Suggestions: chatSuggestions}
}

// AnalyzeAppearance runs a vision provider over a patient photo. Any
// failure yields a could-not-analyze payload; it never fails.
func (s *Service) AnalyzeAppearance(ctx context.Context, image []byte) (out AppearanceAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("appearance analysis panicked")
			out = unanalyzedAppearance()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(ctx, provider.Request{
		User:  appearancePrompt,
		Image: image,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("appearance providers failed")
		return unanalyzedAppearance()
	}

	parsed, err := ExtractAppearance(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("appearance output unparsable")
		return unanalyzedAppearance()
	}
	return *parsed
}

func unanalyzedAppearance() AppearanceAnalysis {
	return AppearanceAnalysis{
		FatigueIndicators: []string{},
		FeverIndicators:   []string{},
		OverallAppearance: "Could not analyze appearance from the provided image",
		ConfidenceScore:   0,
		Recommendations:   []string{"Consult a healthcare provider for an in-person evaluation"},
	}
}
