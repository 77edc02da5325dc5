package server

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zen-systems/triagegate/pkg/geo"
	"github.com/zen-systems/triagegate/pkg/refdata"
	"github.com/zen-systems/triagegate/pkg/triage"
)

// triageResponse is an assessment plus optional enrichment. Enrichment
// fields are absent when their collaborator is unavailable.
type triageResponse struct {
	Assessment        triage.Assessment           `json:"assessment"`
	Location          *geo.Locality               `json:"location,omitempty"`
	Medications       []refdata.Medication        `json:"medications,omitempty"`
	Doctors           []refdata.Doctor            `json:"doctors,omitempty"`
	EmergencyContacts []refdata.EmergencyContact  `json:"emergency_contacts,omitempty"`
}

func (s *Server) handleTriage(c echo.Context) error {
	var input triage.PatientInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := input.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	assessment := s.svc.Assess(c.Request().Context(), input)

	resp := triageResponse{
		Assessment:  assessment,
		Medications: refdata.MedicationsFor(assessment.Severity, input.Symptoms),
	}

	if input.Latitude != nil && input.Longitude != nil && s.geo != nil {
		loc, err := s.geo.Reverse(c.Request().Context(), *input.Latitude, *input.Longitude)
		if err != nil {
			// Enrichment only; the assessment still goes out.
			s.log.Warn().Err(err).Msg("geocoding failed, skipping location enrichment")
		} else {
			resp.Location = loc
			resp.Doctors = refdata.DoctorsNear(loc.City)
			resp.EmergencyContacts = refdata.EmergencyContacts(loc.Country)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	reply := s.svc.Chat(c.Request().Context(), req.Message, req.Context)
	return c.JSON(http.StatusOK, reply)
}

type appearanceRequest struct {
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleAppearance(c echo.Context) error {
	var req appearanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ImageBase64 == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "image_base64 is required"})
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "image_base64 is not valid base64"})
	}

	analysis := s.svc.AnalyzeAppearance(c.Request().Context(), image)
	return c.JSON(http.StatusOK, analysis)
}
