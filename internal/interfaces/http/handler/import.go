package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	importapp "github.com/storefront/backend/internal/application/import"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductImporter imports marketplace listings into the catalog
type ProductImporter interface {
	ImportProduct(ctx context.Context, req importapp.ImportRequest) (*importapp.ImportResponse, error)
}

// ImportHandler handles product import API endpoints
type ImportHandler struct {
	BaseHandler
	importer ProductImporter
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importer ProductImporter) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// ImportProduct godoc
// @ID           importProduct
// @Summary      Import a marketplace listing
// @Description  Fetches the listing at url and validates it. With importDirectly it is
// @Description  written to the catalog, otherwise a preview is returned and nothing is saved.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportProductRequest true "Import request"
// @Success      200 {object} dto.Response{data=dto.ImportProductResponse}
// @Success      201 {object} dto.Response{data=dto.ImportProductResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /products/import [post]
func (h *ImportHandler) ImportProduct(c *gin.Context) {
	var req dto.ImportProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.importer.ImportProduct(c.Request.Context(), req.ToImportRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	body := dto.ToImportProductResponse(resp)
	if resp.Outcome == importapp.OutcomeImported {
		h.Created(c, body)
		return
	}
	h.Success(c, body)
}
