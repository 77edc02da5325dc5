package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/triagegate/pkg/config"
	"github.com/zen-systems/triagegate/pkg/geo"
	"github.com/zen-systems/triagegate/pkg/provider"
	"github.com/zen-systems/triagegate/pkg/triage"
)

const modelAssessment = `{"severity": "HIGH", "diagnosis_suggestions": ["Flu"], "recommended_action": "See a doctor today", "clinical_explanation": "High fever", "red_flags": ["High fever"], "confidence_score": 0.9}`

func testConfig() *config.Config {
	return &config.Config{
		GeminiAPIKey:    "test-key",
		DefaultProvider: provider.Gemini,
		Server: config.ServerConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
		},
	}
}

func newTestServer(t *testing.T, gen triage.Generator, geoClient *geo.Client, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	svc := triage.NewService(gen)
	chain := []provider.Client{provider.NewMockClient("gemini", modelAssessment)}
	return New(svc, geoClient, chain, cfg, zerolog.Nop())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func validBody() map[string]any {
	return map[string]any{
		"temperature":    102.5,
		"duration_hours": 24,
		"symptoms":       []string{"cough", "chills"},
		"age":            30,
	}
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), nil, nil)
	rec := doJSON(t, s, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AI Fever Triage System API", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), nil, nil)
	rec := doJSON(t, s, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status              string          `json:"status"`
		DefaultProvider     string          `json:"default_provider"`
		ProvidersConfigured map[string]bool `json:"providers_configured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "gemini", body.DefaultProvider)
	assert.True(t, body.ProvidersConfigured["gemini"])
	assert.False(t, body.ProvidersConfigured["openai"])
}

func TestTriage(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), nil, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/triage", validBody())

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Assessment  triage.Assessment    `json:"assessment"`
		Medications []map[string]string  `json:"medications"`
		Location    *geo.Locality        `json:"location"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, triage.SeverityHigh, body.Assessment.Severity)
	assert.NotEmpty(t, body.Medications)
	assert.Nil(t, body.Location, "no coordinates, no location")
}

func TestTriageValidation(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), nil, nil)

	t.Run("out-of-range temperature", func(t *testing.T) {
		body := validBody()
		body["temperature"] = 120.0
		rec := doJSON(t, s, http.MethodPost, "/api/triage", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no symptoms", func(t *testing.T) {
		body := validBody()
		body["symptoms"] = []string{}
		rec := doJSON(t, s, http.MethodPost, "/api/triage", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/triage", strings.NewReader("{"))
		req.Header.Set(echoHeaderContentType, "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTriageNeverFailsOnProviderTrouble(t *testing.T) {
	failing := &provider.MockClient{
		ClientName: "gemini",
		Script:     []provider.MockResult{{Err: errors.New("all providers down")}},
	}
	s := newTestServer(t, failing, nil, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/triage", validBody())

	require.Equal(t, http.StatusOK, rec.Code, "provider failure must not surface to the client")
	var body struct {
		Assessment triage.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.6, body.Assessment.ConfidenceScore, "rule-based baseline expected")
}

func TestTriageGeoEnrichment(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geo.Locality{City: "New York", Country: "United States"})
	}))
	defer geoSrv.Close()

	geoClient, err := geo.NewClient(geoSrv.URL)
	require.NoError(t, err)
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), geoClient, nil)

	body := validBody()
	body["latitude"] = 40.7128
	body["longitude"] = -74.006
	rec := doJSON(t, s, http.MethodPost, "/api/triage", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Location          *geo.Locality    `json:"location"`
		Doctors           []map[string]any `json:"doctors"`
		EmergencyContacts []map[string]any `json:"emergency_contacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Location)
	assert.Equal(t, "New York", resp.Location.City)
	assert.NotEmpty(t, resp.Doctors)
	assert.NotEmpty(t, resp.EmergencyContacts)
}

func TestTriageGeoFailureIsNonFatal(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer geoSrv.Close()

	geoClient, err := geo.NewClient(geoSrv.URL)
	require.NoError(t, err)
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), geoClient, nil)

	body := validBody()
	body["latitude"] = 40.7128
	body["longitude"] = -74.006
	rec := doJSON(t, s, http.MethodPost, "/api/triage", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Location *geo.Locality `json:"location"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Location)
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", "Rest and hydrate."), nil, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", map[string]string{"message": "What now?"})

	require.Equal(t, http.StatusOK, rec.Code)
	var reply triage.ChatReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Rest and hydrate.", reply.Response)
	assert.Len(t, reply.Suggestions, 4)
}

func TestChatRequiresMessage(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", "x"), nil, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppearanceEndpoint(t *testing.T) {
	gen := provider.NewMockClient("gemini", `{"overall_appearance": "Flushed", "confidence_score": 0.8}`)
	s := newTestServer(t, gen, nil, nil)

	image := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4E, 0x47})
	rec := doJSON(t, s, http.MethodPost, "/api/appearance", map[string]string{"image_base64": image})

	require.Equal(t, http.StatusOK, rec.Code)
	var out triage.AppearanceAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Flushed", out.OverallAppearance)
}

func TestAppearanceRejectsBadInput(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", "x"), nil, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/appearance", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/appearance", map[string]string{"image_base64": "not base64!!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	s := newTestServer(t, provider.NewMockClient("gemini", modelAssessment), nil, nil)
	rec := doJSON(t, s, http.MethodGet, "/api/providers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		CurrentProvider string                    `json:"current_provider"`
		TestResults     map[string]map[string]any `json:"test_results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "gemini", body.CurrentProvider)
	require.Contains(t, body.TestResults, "gemini")
	assert.Equal(t, "available", body.TestResults["gemini"]["status"])
}
