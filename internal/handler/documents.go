package handler

import (
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/apierror"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentsHandler struct{ svc service.DocumentService }

func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// Create godoc
// @Summary      Create a document
// @Description  Creates an invoice, quotation or receipt from structured fields (the web form path). Amounts are integer cents; tax_rate is percent x 100.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateDocumentRequest true "Document fields"
// @Success      201 {object} dto.DocumentResponse
// @Failure      403 {object} apierror.APIError "quota_exceeded"
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/documents [post]
func (h *DocumentsHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), authedUserID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        type   query string false "invoice | quotation | receipt"
// @Param        status query string false "draft | sent | paid"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50, max 200)"
// @Success      200 {object} dto.DocumentListResponse
// @Router       /v1/documents [get]
func (h *DocumentsHandler) List(c *gin.Context) {
	var filter dto.DocumentFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), authedUserID(c), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), authedUserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Correct document content
// @Description  Replaces the customer block, items and notes; totals are recomputed, document number and status are kept.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Document UUID"
// @Param        body body dto.UpdateDocumentRequest true "Replacement content"
// @Success      200 {object} dto.DocumentResponse
// @Router       /v1/documents/{id} [put]
func (h *DocumentsHandler) Update(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	var req dto.UpdateDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateContent(c.Request.Context(), authedUserID(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) UpdateStatus(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	var req dto.UpdateDocumentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), authedUserID(c), id, model.DocumentStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadPDF godoc
// @Summary      Download the document PDF
// @Description  Serves the rendered PDF. When the file is not there yet a render is queued and 503 with code render_unavailable is returned; retry shortly.
// @Tags         documents
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Document UUID"
// @Success      200 {file} file
// @Failure      503 {object} apierror.APIError "render_unavailable"
// @Router       /v1/documents/{id}/pdf [get]
func (h *DocumentsHandler) DownloadPDF(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	path, name, err := h.svc.PDFFile(c.Request.Context(), authedUserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.FileAttachment(path, name)
}

// Send godoc
// @Summary      Email the document
// @Description  Queues delivery of the PDF to the customer; a draft moves to sent on first successful delivery.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Document UUID"
// @Param        body body dto.SendDocumentRequest true "Recipient override and note"
// @Success      202 {object} map[string]string
// @Router       /v1/documents/{id}/send [post]
func (h *DocumentsHandler) Send(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	var req dto.SendDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Send(c.Request.Context(), authedUserID(c), id, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func docID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeValidationFailed, "invalid document id"))
		return uuid.Nil, false
	}
	return id, true
}
