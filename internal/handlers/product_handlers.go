package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
)

const maxImageSize = 5 << 20

// ProductHandlers handles HTTP requests for products
type ProductHandlers struct {
	productService services.ProductService
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// ListProducts godoc
// @Summary      List products
// @Description  Paginated catalog sorted by name
// @Tags         products
// @Produce      json
// @Param        page      query  int  false  "Page number"  default(1)
// @Param        per_page  query  int  false  "Page size"    default(10)
// @Success      200  {object}  models.ProductPage
// @Router       /products [get]
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	page, err := h.productService.List(c.Request().Context(), queryInt(c, "page"), queryInt(c, "per_page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetProduct godoc
// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id   path      int  true  "Product ID"
// @Success  200  {object}  models.Product
// @Failure  404  {object}  common.ErrorResponse
// @Router   /products/{id} [get]
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, ok, err := parseID(c, "Product")
	if !ok {
		return err
	}

	product, err := h.productService.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct godoc
// @Summary   Update price and stock
// @Tags      products
// @Accept    json
// @Produce   json
// @Param     id    path  int                          true  "Product ID"
// @Param     body  body  models.UpdateProductRequest  true  "New values"
// @Success   200  {object}  models.ProductResponse
// @Failure   422  {object}  common.ErrorResponse
// @Security  BearerAuth
// @Router    /products/{id} [put]
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	id, ok, err := parseID(c, "Product")
	if !ok {
		return err
	}

	var req models.UpdateProductRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), id, models.ProductUpdate{
		Price:    *req.Price,
		QtyStock: *req.QtyStock,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.ProductResponse{Message: "Product updated successfully", Product: product})
}

// UploadProductImage godoc
// @Summary   Upload a product image
// @Tags      products
// @Accept    multipart/form-data
// @Produce   json
// @Param     id     path      int   true  "Product ID"
// @Param     image  formData  file  true  "Image file"
// @Success   200  {object}  models.ProductResponse
// @Security  BearerAuth
// @Router    /products/{id}/image [put]
func (h *ProductHandlers) UploadProductImage(c echo.Context) error {
	id, ok, err := parseID(c, "Product")
	if !ok {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "The image field is required.")
	}
	if file.Size > maxImageSize {
		return common.SendValidationError(c, "image", "The image must not be greater than 5 MB.")
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer src.Close()

	product, err := h.productService.UploadImage(c.Request().Context(), id, file.Filename, file.Header.Get("Content-Type"), src, file.Size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.ProductResponse{Message: "Product image uploaded successfully", Product: product})
}
