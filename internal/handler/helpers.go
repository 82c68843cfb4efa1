package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/apierror"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/middleware"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeValidationFailed, "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQueryAndValidate does the same for query-string filters.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeValidationFailed, "invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// authedUserID returns the caller's user id from the JWT claims. Routes
// using it sit behind JWTAuth, so the claims are always present.
func authedUserID(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}

// respondServiceError maps service-layer errors onto HTTP statuses and
// stable reason codes. Unknown errors become an opaque 500; the detail
// goes to the log through the ErrorHandler middleware, never to the
// client.
func respondServiceError(c *gin.Context, err error) {
	var lineErr *money.InvalidLineItemError
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, apierror.New(apierror.CodeQuotaExceeded, "monthly document quota exceeded, upgrade your plan"))
	case errors.As(err, &lineErr):
		field := fmt.Sprintf("items[%d].%s", lineErr.Index, lineErr.Field)
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{field: lineErr.Reason}))
	case service.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"items": err.Error()}))
	case errors.Is(err, service.ErrNoRecipient):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"to_email": "document has no recipient email"}))
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, service.ErrCompanyNotFound):
		c.JSON(http.StatusNotFound, apierror.New(apierror.CodeNotFound, err.Error()))
	case errors.Is(err, service.ErrChannelTaken):
		c.JSON(http.StatusConflict, apierror.New(apierror.CodeConflict, err.Error()))
	case errors.Is(err, service.ErrPDFNotReady):
		c.Header("Retry-After", "2")
		c.JSON(http.StatusServiceUnavailable, apierror.New(apierror.CodeRenderUnavailable, "PDF is being rendered, retry shortly"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New(apierror.CodeInternal, "internal server error"))
	}
}
