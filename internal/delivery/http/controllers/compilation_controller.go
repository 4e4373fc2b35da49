package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventcatalog/internal/delivery/http/helpers"
	"eventcatalog/internal/domain"
)

type CompilationController struct {
	Logger  *slog.Logger
	Service domain.CompilationService
}

func NewCompilationController(logger *slog.Logger, svc domain.CompilationService) *CompilationController {
	return &CompilationController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateCompilationRequest is the request body for POST /admin/compilations.
type CreateCompilationRequest struct {
	Title    string  `json:"title"`
	Pinned   bool    `json:"pinned"`
	EventIDs []int64 `json:"event_ids"`
}

// Validate implements helpers.Validator.
func (c CreateCompilationRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	return errs
}

// UpdateCompilationRequest is the request body for PATCH
// /admin/compilations/{compID}. Omitting event_ids keeps the current
// membership; an empty array clears it.
type UpdateCompilationRequest struct {
	Title    *string `json:"title"`
	Pinned   *bool   `json:"pinned"`
	EventIDs []int64 `json:"event_ids"`
}

// ListCompilations godoc
// @Summary List compilations
// @Tags compilations
// @Produce json
// @Param pinned query bool false "Filter by pinned flag"
// @Param from query int false "Result offset"
// @Param size query int false "Page size"
// @Success 200 {object} helpers.APIResponse "data is a list of CompilationView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /compilations [get]
func (c *CompilationController) ListCompilations(w http.ResponseWriter, r *http.Request) {
	pinned, err := helpers.ParseOptionalBool(r, "pinned")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	from, size, err := helpers.ParseFromSize(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	views, err := c.Service.List(r.Context(), pinned, from, size)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// GetCompilation godoc
// @Summary Get a compilation
// @Tags compilations
// @Produce json
// @Param compID path int true "Compilation id"
// @Success 200 {object} helpers.APIResponse "data is a CompilationView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /compilations/{compID} [get]
func (c *CompilationController) GetCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := helpers.ParseIDParam(r, "compID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	view, err := c.Service.Get(r.Context(), compID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// CreateCompilation godoc
// @Summary Create a compilation (admin)
// @Description Creates a compilation. Referenced events that do not exist are dropped silently.
// @Tags admin
// @Accept json
// @Produce json
// @Param compilation body CreateCompilationRequest true "Compilation draft"
// @Success 201 {object} helpers.APIResponse "data is a CompilationView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /admin/compilations [post]
func (c *CompilationController) CreateCompilation(w http.ResponseWriter, r *http.Request) {
	var req CreateCompilationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	view, err := c.Service.Create(r.Context(), domain.NewCompilation{
		Title:    req.Title,
		Pinned:   req.Pinned,
		EventIDs: req.EventIDs,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, view)
}

// UpdateCompilation godoc
// @Summary Update a compilation (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param compID path int true "Compilation id"
// @Param patch body UpdateCompilationRequest true "Partial update"
// @Success 200 {object} helpers.APIResponse "data is a CompilationView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/compilations/{compID} [patch]
func (c *CompilationController) UpdateCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := helpers.ParseIDParam(r, "compID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	var req UpdateCompilationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	view, err := c.Service.Update(r.Context(), compID, domain.CompilationPatch{
		Title:    req.Title,
		Pinned:   req.Pinned,
		EventIDs: req.EventIDs,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// DeleteCompilation godoc
// @Summary Delete a compilation (admin)
// @Tags admin
// @Param compID path int true "Compilation id"
// @Success 204 "no content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/compilations/{compID} [delete]
func (c *CompilationController) DeleteCompilation(w http.ResponseWriter, r *http.Request) {
	compID, err := helpers.ParseIDParam(r, "compID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if err := c.Service.Delete(r.Context(), compID); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CompilationController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !isClientError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
