package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecopulse/ecopulse/internal/enrich"
	"github.com/ecopulse/ecopulse/internal/helpers"
	"github.com/ecopulse/ecopulse/internal/publish"
	"github.com/ecopulse/ecopulse/internal/tasks"
	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/session"
)

// retryableMsg is what the UI shows for any external-call failure.
const retryableMsg = "intelligence engine busy, please try again"

type NewsHandler struct {
	Session  *session.Session
	Enricher *enrich.Enricher
	Workflow *publish.Workflow
	Logger   *log.Logger
}

func (h *NewsHandler) Register(g *echo.Group) {
	g.POST("/search", h.search)
	g.GET("/records", h.list)
	g.GET("/cost", h.cost)
	g.POST("/records/url", h.analyzeURL)
	g.PATCH("/records/:id/url", h.updateURL)
	g.POST("/records/:id/image", h.generateImage)
	g.GET("/records/:id/image", h.downloadImage)
	g.POST("/records/:id/report", h.generateReport)
	g.POST("/records/:id/contacts", h.researchContacts)
}

// stateResponse is the UI-facing session snapshot.
type stateResponse struct {
	Records   []models.NewsRecord     `json:"records"`
	Grounding []models.GroundingChunk `json:"grounding"`
	RawText   string                  `json:"raw_text,omitempty"`
	Cost      float64                 `json:"cost"`
	Currency  string                  `json:"currency"`
}

func (h *NewsHandler) state() stateResponse {
	return stateResponse{
		Records:   h.Session.Records().Snapshot(),
		Grounding: h.Session.Grounding(),
		RawText:   h.Session.RawText(),
		Cost:      h.Session.Ledger().Total(),
		Currency:  h.Session.Ledger().Currency(),
	}
}

// search starts a fresh discovery. It resets the session first, so results of
// any previous in-flight enrichment are invalidated; if an even newer search
// lands while this one is suspended, this one's result is discarded.
func (h *NewsHandler) search(c echo.Context) error {
	var req models.DiscoverRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	gen := h.Session.BeginDiscovery()
	res, err := h.Enricher.Discover(c.Request().Context(), req)
	if err != nil {
		h.Logger.Printf("discovery failed: %v", err)
		observeEnrichment("discover", "error")
		return echo.NewHTTPError(http.StatusBadGateway, retryableMsg)
	}
	observeEnrichment("discover", "ok")
	observeCost(res.Cost)

	if !h.Session.SetDiscovery(gen, res.Records, res.Grounding, res.RawText) {
		return echo.NewHTTPError(http.StatusConflict, "superseded by a newer search")
	}
	return c.JSON(http.StatusOK, h.state())
}

func (h *NewsHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.state())
}

func (h *NewsHandler) cost(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":    h.Session.Ledger().Total(),
		"currency": h.Session.Ledger().Currency(),
	})
}

// urlIntakeID is the registry handle for the single manual-URL intake slot.
const urlIntakeID = "url-intake"

// analyzeURL ingests one manually submitted article URL, inserts the
// extracted record at the front and runs the requested follow-up action.
func (h *NewsHandler) analyzeURL(c echo.Context) error {
	var req struct {
		URL    string `json:"url"`
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.URL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}
	if req.Action != "research" && req.Action != "report" {
		return echo.NewHTTPError(http.StatusBadRequest, "action must be research or report")
	}

	reg := h.Session.Tasks()
	if !reg.Begin(urlIntakeID, tasks.KindExtract) {
		return echo.NewHTTPError(http.StatusConflict, "url analysis already in progress")
	}
	defer reg.End(urlIntakeID, tasks.KindExtract)

	ctx := c.Request().Context()
	gen := h.Session.Generation()
	rec, cost, err := h.Enricher.ExtractFromURL(ctx, req.URL)
	observeCost(cost)
	if err != nil {
		if errors.Is(err, models.ErrExtractFailed) {
			observeEnrichment("extract", "no_story")
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		h.Logger.Printf("url extraction failed: %v", err)
		observeEnrichment("extract", "error")
		return echo.NewHTTPError(http.StatusBadGateway, retryableMsg)
	}
	observeEnrichment("extract", "ok")
	if !h.Session.Current(gen) {
		return echo.NewHTTPError(http.StatusConflict, models.ErrStaleSession.Error())
	}

	rec.UserURL = req.URL
	id := h.Session.Records().Append(rec, true)

	switch req.Action {
	case "research":
		return h.runContacts(c, id)
	default:
		return h.runReport(c, id)
	}
}

func (h *NewsHandler) updateURL(c echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.Session.Records().Apply(c.Param("id"), func(r *models.NewsRecord) {
		r.UserURL = strings.TrimSpace(req.URL)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, h.state())
}

func (h *NewsHandler) generateImage(c echo.Context) error {
	id := c.Param("id")
	rec, ok := h.Session.Records().Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrRecordNotFound.Error())
	}
	reg := h.Session.Tasks()
	if !reg.Begin(id, tasks.KindImage) {
		return echo.NewHTTPError(http.StatusConflict, "image generation already in flight for this record")
	}
	defer reg.End(id, tasks.KindImage)

	gen := h.Session.Generation()
	data, cost, err := h.Enricher.Illustrate(c.Request().Context(), rec)
	observeCost(cost)
	if err != nil {
		h.Logger.Printf("image generation failed: %v", err)
		observeEnrichment("image", "error")
		return echo.NewHTTPError(http.StatusBadGateway, retryableMsg)
	}
	observeEnrichment("image", "ok")
	if !h.Session.Current(gen) {
		return echo.NewHTTPError(http.StatusConflict, models.ErrStaleSession.Error())
	}
	if data != "" {
		if err := h.Session.Records().Apply(id, func(r *models.NewsRecord) {
			r.GeneratedImage = data
		}); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	return c.JSON(http.StatusOK, h.state())
}

func (h *NewsHandler) downloadImage(c echo.Context) error {
	rec, ok := h.Session.Records().Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrRecordNotFound.Error())
	}
	if rec.GeneratedImage == "" {
		return echo.NewHTTPError(http.StatusNotFound, "record has no generated image")
	}
	raw, err := base64.StdEncoding.DecodeString(rec.GeneratedImage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "stored image data is corrupt")
	}
	name := helpers.ImageFileName(rec.Date, rec.Title)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "image/png", raw)
}

func (h *NewsHandler) generateReport(c echo.Context) error {
	return h.runReport(c, c.Param("id"))
}

// runReport generates the deep-dive for the record, stages it for publish and
// returns it alongside the refreshed session state.
func (h *NewsHandler) runReport(c echo.Context, id string) error {
	rec, ok := h.Session.Records().Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrRecordNotFound.Error())
	}
	reg := h.Session.Tasks()
	if !reg.Begin(id, tasks.KindReport) {
		return echo.NewHTTPError(http.StatusConflict, "report generation already in flight for this record")
	}
	defer reg.End(id, tasks.KindReport)

	gen := h.Session.Generation()
	content, cost, err := h.Enricher.Report(c.Request().Context(), rec)
	observeCost(cost)
	if err != nil {
		h.Logger.Printf("report generation failed: %v", err)
		observeEnrichment("report", "error")
		return echo.NewHTTPError(http.StatusBadGateway, retryableMsg)
	}
	observeEnrichment("report", "ok")
	if !h.Session.Current(gen) {
		return echo.NewHTTPError(http.StatusConflict, models.ErrStaleSession.Error())
	}

	report := models.GeneratedReport{
		Title:    rec.Title,
		FileName: helpers.ReportFileName(rec.Date, rec.Title),
		Content:  content,
		Status:   models.ReportStatusPending,
	}
	if err := h.Workflow.Stage([]models.GeneratedReport{report}); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"report": report,
		"state":  h.state(),
	})
}

func (h *NewsHandler) researchContacts(c echo.Context) error {
	return h.runContacts(c, c.Param("id"))
}

func (h *NewsHandler) runContacts(c echo.Context, id string) error {
	rec, ok := h.Session.Records().Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrRecordNotFound.Error())
	}
	reg := h.Session.Tasks()
	if !reg.Begin(id, tasks.KindContacts) {
		return echo.NewHTTPError(http.StatusConflict, "contact research already in flight for this record")
	}
	defer reg.End(id, tasks.KindContacts)

	gen := h.Session.Generation()
	contacts, cost, err := h.Enricher.Contacts(c.Request().Context(), rec)
	observeCost(cost)
	if err != nil {
		h.Logger.Printf("contact research failed: %v", err)
		observeEnrichment("contacts", "error")
		return echo.NewHTTPError(http.StatusBadGateway, retryableMsg)
	}
	observeEnrichment("contacts", "ok")
	if !h.Session.Current(gen) {
		return echo.NewHTTPError(http.StatusConflict, models.ErrStaleSession.Error())
	}
	if len(contacts) > 0 {
		if err := h.Session.Records().Apply(id, func(r *models.NewsRecord) {
			r.Contacts = contacts
		}); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	return c.JSON(http.StatusOK, h.state())
}
