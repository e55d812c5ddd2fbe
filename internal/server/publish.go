package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	appconfig "github.com/ecopulse/ecopulse/config"
	"github.com/ecopulse/ecopulse/internal/publish"
	"github.com/ecopulse/ecopulse/models"
)

type PublishHandler struct {
	Workflow *publish.Workflow
	Defaults appconfig.PublishConfig
	Logger   *log.Logger
}

func (h *PublishHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.PATCH("/:idx", h.edit)
	g.DELETE("/:idx", h.discard)
	g.GET("/:idx/download", h.download)
	g.POST("/approve", h.approve)
}

func (h *PublishHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reports": h.Workflow.Reports(),
	})
}

func (h *PublishHandler) edit(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report index")
	}
	var req struct {
		FileName *string `json:"file_name"`
		Content  *string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch err := h.Workflow.Edit(idx, req.FileName, req.Content); err {
	case nil:
	case models.ErrReportNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case models.ErrReportNotPending, models.ErrPublishInProgress:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.list(c)
}

func (h *PublishHandler) discard(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report index")
	}
	switch err := h.Workflow.Discard(idx); err {
	case nil:
	case models.ErrPublishInProgress:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reports": h.Workflow.Reports(),
		"closed":  h.Workflow.Empty(),
	})
}

func (h *PublishHandler) download(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report index")
	}
	report, err := h.Workflow.Get(idx)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.FileName))
	return c.Blob(http.StatusOK, "text/markdown", []byte(report.Content))
}

// approve drives the sequential upload batch. The request may omit any field
// covered by configured defaults; the token may be omitted entirely when a
// cached credential exists.
func (h *PublishHandler) approve(c echo.Context) error {
	var cfg models.PublishConfig
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if cfg.Owner == "" {
		cfg.Owner = h.Defaults.Owner
	}
	if cfg.Repo == "" {
		cfg.Repo = h.Defaults.Repo
	}
	if cfg.BasePath == "" {
		cfg.BasePath = h.Defaults.BasePath
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "owner and repo required")
	}

	err := h.Workflow.Approve(c.Request().Context(), cfg, func(i int, r models.GeneratedReport) {
		if r.Status == models.ReportStatusSuccess || r.Status == models.ReportStatusError {
			observePublish(string(r.Status))
		}
		h.Logger.Printf("report %d (%s): %s", i, r.FileName, r.Status)
	})
	switch err {
	case nil:
	case models.ErrMissingCredential:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case models.ErrPublishInProgress:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.list(c)
}
