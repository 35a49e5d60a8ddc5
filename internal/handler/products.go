package handler

import (
	"net/http"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/apierror"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Create godoc
// @Summary Crear producto
// @Tags products
// @Accept json
// @Produce json
// @Param product body dto.CreateProductRequest true "Producto"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, apierror.MsgDuplicateOnCreate)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Listar productos, opcionalmente filtrados por categoria
// @Tags products
// @Produce json
// @Param category query string false "Filtrar por categoria (subcadena, sin distinguir mayusculas)"
// @Param skip query int false "Desplazamiento" default(0)
// @Param limit query int false "Maximo de resultados (1-200)" default(100)
// @Success 200 {array} dto.ProductResponse
// @Router /products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET /products/:id
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update PUT /products/:id. Only the fields present in the body are applied.
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err, apierror.MsgDuplicateOnRename)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate DELETE /products/:id. The row is kept with is_active=false.
func (h *ProductsHandler) Deactivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "")
		return
	}
	c.Status(http.StatusNoContent)
}
