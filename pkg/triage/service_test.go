package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/triagegate/pkg/provider"
)

// genFunc adapts a closure to the Generator interface.
type genFunc func(ctx context.Context, req provider.Request) (string, error)

func (f genFunc) Generate(ctx context.Context, req provider.Request) (string, error) {
	return f(ctx, req)
}

var errAllDown = errors.New("all providers failed")

func failingGen() Generator {
	return genFunc(func(context.Context, provider.Request) (string, error) {
		return "", errAllDown
	})
}

func panickingGen() Generator {
	return genFunc(func(context.Context, provider.Request) (string, error) {
		panic("adapter bug")
	})
}

func fixedGen(text string) Generator {
	return genFunc(func(context.Context, provider.Request) (string, error) {
		return text, nil
	})
}

func TestAssessUsesModelOutput(t *testing.T) {
	svc := NewService(fixedGen(`{"severity": "HIGH", "diagnosis_suggestions": ["Flu"], "confidence_score": 0.9}`))
	p := PatientInput{Temperature: 102.0, DurationHours: 12, Symptoms: []string{"cough"}, Age: 30}

	a := svc.Assess(context.Background(), p)

	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, []string{"Flu"}, a.DiagnosisSuggestions)
	assert.Equal(t, 0.9, a.ConfidenceScore)
}

func TestAssessSendsStructuredPrompts(t *testing.T) {
	var captured provider.Request
	svc := NewService(genFunc(func(_ context.Context, req provider.Request) (string, error) {
		captured = req
		return `{"severity": "LOW"}`, nil
	}))
	p := PatientInput{Temperature: 101.2, DurationHours: 12, Symptoms: []string{"cough", "chills"}, Age: 34, MedicalHistory: "asthma"}

	svc.Assess(context.Background(), p)

	assert.NotEmpty(t, captured.System)
	assert.Contains(t, captured.User, "101.2")
	assert.Contains(t, captured.User, "cough")
	assert.Contains(t, captured.User, "asthma")
	assert.Nil(t, captured.Image)
}

func TestAssessFallsBackWhenProvidersFail(t *testing.T) {
	svc := NewService(failingGen())
	p := PatientInput{Temperature: 103.0, DurationHours: 24, Symptoms: []string{"cough"}, Age: 20}

	a := svc.Assess(context.Background(), p)

	want := Classify(p)
	ApplySafetyOverrides(&want, p)
	assert.Equal(t, want, a)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, 0.6, a.ConfidenceScore)
}

func TestAssessFallsBackOnUnparsableOutput(t *testing.T) {
	svc := NewService(fixedGen("I'm sorry, I can't help with that."))
	p := PatientInput{Temperature: 99.2, DurationHours: 6, Symptoms: []string{"fatigue"}, Age: 30}

	a := svc.Assess(context.Background(), p)

	want := Classify(p)
	ApplySafetyOverrides(&want, p)
	assert.Equal(t, want, a)
}

func TestAssessRecoversFromPanic(t *testing.T) {
	svc := NewService(panickingGen())
	p := PatientInput{Temperature: 100.2, DurationHours: 6, Symptoms: []string{"fatigue"}, Age: 30}

	a := svc.Assess(context.Background(), p)

	assert.Equal(t, SeverityLow, a.Severity)
	assert.NotEmpty(t, a.RecommendedAction)
}

func TestAssessOverridesModelUnderestimate(t *testing.T) {
	// The model calls a 105°F fever MEDIUM; the safety stage must not
	// let that stand.
	svc := NewService(fixedGen(`{"severity": "MEDIUM", "red_flags": []}`))
	p := PatientInput{Temperature: 105.0, DurationHours: 12, Symptoms: []string{"fatigue"}, Age: 30}

	a := svc.Assess(context.Background(), p)

	assert.Equal(t, SeverityCritical, a.Severity)
	assert.Contains(t, a.RedFlags, RedFlagHighFever)
}

func TestAssessOverridesRuleBaselineToo(t *testing.T) {
	svc := NewService(failingGen())
	p := PatientInput{Temperature: 99.0, DurationHours: 6, Symptoms: []string{"rapid heartbeat"}, Age: 30}

	a := svc.Assess(context.Background(), p)

	// The baseline already ranks rapid heartbeat HIGH, so the override
	// has nothing to raise.
	assert.Equal(t, SeverityHigh, a.Severity)
}

func TestChat(t *testing.T) {
	svc := NewService(fixedGen("Drink fluids and rest."))

	reply := svc.Chat(context.Background(), "What should I do?", "severity: LOW")

	assert.Equal(t, "Drink fluids and rest.", reply.Response)
	require.Len(t, reply.Suggestions, 4)
}

func TestChatFallback(t *testing.T) {
	svc := NewService(failingGen())

	reply := svc.Chat(context.Background(), "What should I do?", "")

	assert.Equal(t, chatFallback, reply.Response)
	assert.Len(t, reply.Suggestions, 4)
}

func TestChatRecoversFromPanic(t *testing.T) {
	svc := NewService(panickingGen())

	reply := svc.Chat(context.Background(), "hello", "")

	assert.Equal(t, chatFallback, reply.Response)
}

func TestAnalyzeAppearance(t *testing.T) {
	var captured provider.Request
	svc := NewService(genFunc(func(_ context.Context, req provider.Request) (string, error) {
		captured = req
		return `{"overall_appearance": "Flushed", "confidence_score": 0.8}`, nil
	}))

	out := svc.AnalyzeAppearance(context.Background(), []byte{0x89, 0x50})

	assert.Equal(t, "Flushed", out.OverallAppearance)
	assert.Equal(t, 0.8, out.ConfidenceScore)
	assert.Equal(t, []byte{0x89, 0x50}, captured.Image)
}

func TestAnalyzeAppearanceFallback(t *testing.T) {
	for name, gen := range map[string]Generator{
		"providers fail":    failingGen(),
		"unparsable output": fixedGen("not json"),
		"panic":             panickingGen(),
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(gen)
			out := svc.AnalyzeAppearance(context.Background(), []byte{0x89})

			assert.Equal(t, "Could not analyze appearance from the provided image", out.OverallAppearance)
			assert.Equal(t, 0.0, out.ConfidenceScore)
			assert.NotEmpty(t, out.Recommendations)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := PatientInput{Temperature: 101.0, DurationHours: 12, Symptoms: []string{"cough"}, Age: 30}
	require.NoError(t, valid.Validate())

	t.Run("temperature range", func(t *testing.T) {
		p := valid
		p.Temperature = 94.0
		assert.Error(t, p.Validate())
		p.Temperature = 111.0
		assert.Error(t, p.Validate())
	})

	t.Run("duration range", func(t *testing.T) {
		p := valid
		p.DurationHours = 0
		assert.Error(t, p.Validate())
		p.DurationHours = 721
		assert.Error(t, p.Validate())
	})

	t.Run("age range", func(t *testing.T) {
		p := valid
		p.Age = -1
		assert.Error(t, p.Validate())
		p.Age = 121
		assert.Error(t, p.Validate())
	})

	t.Run("symptoms required", func(t *testing.T) {
		p := valid
		p.Symptoms = nil
		assert.Error(t, p.Validate())
	})

	t.Run("coordinates come in pairs", func(t *testing.T) {
		lat := 40.7
		p := valid
		p.Latitude = &lat
		assert.Error(t, p.Validate())

		lon := -74.0
		p.Longitude = &lon
		assert.NoError(t, p.Validate())
	})

	t.Run("multiple defects reported together", func(t *testing.T) {
		p := PatientInput{Temperature: 90, DurationHours: 0, Age: 200}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "temperature")
		assert.Contains(t, err.Error(), "duration_hours")
		assert.Contains(t, err.Error(), "age")
		assert.Contains(t, err.Error(), "symptom")
	})
}

func TestSeverityJSON(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalJSON([]byte(`"CRITICAL"`)))
	assert.Equal(t, SeverityCritical, s)

	require.Error(t, s.UnmarshalJSON([]byte(`"SEVERE"`)))

	out, err := SeverityHigh.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"HIGH"`, string(out))
}
