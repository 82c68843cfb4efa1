package handler

import (
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/middleware"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct{ svc service.CompanyService }

func NewCompanyHandler(svc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Get godoc
// @Summary      Own company profile
// @Description  Returns the caller's company; a bare starter-plan company is created on first access.
// @Tags         company
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.CompanyResponse
// @Router       /v1/company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetOrCreate(c.Request.Context(), authedUserID(c), claims.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update company profile
// @Description  Sets name, contact details, logo URL, the inbound channel account and the billing customer reference.
// @Tags         company
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UpdateCompanyRequest true "Company fields"
// @Success      200 {object} dto.CompanyResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/company [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	var req dto.UpdateCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), authedUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
