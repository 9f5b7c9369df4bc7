package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.productService.ListProducts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid ID")
	}

	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Edit runs one of the create, update, archive or delete product actions.
func (h *ProductHandler) Edit(c echo.Context) error {
	action, err := decodeProductAction(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	caller := principal(c)

	switch a := action.(type) {
	case createProduct:
		req := service.NewProduct{Name: *a.Name, Price: *a.Price, QuantityInStock: *a.QuantityInStock}
		if a.Description != nil {
			req.Description = *a.Description
		}
		product, err := h.productService.CreateProduct(ctx, caller, req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, product)

	case updateProduct:
		product, err := h.productService.UpdateProduct(ctx, caller, a.ID, service.ProductUpdate{
			Name:            a.Name,
			Description:     a.Description,
			Price:           a.Price,
			QuantityInStock: a.QuantityInStock,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, product)

	case archiveProduct:
		product, err := h.productService.ArchiveProduct(ctx, caller, a.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, product)

	case deleteProduct:
		if err := h.productService.DeleteProduct(ctx, caller, a.ID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": fmt.Sprintf("Product with id %d was deleted successfully.", a.ID)})
	}
	return badRequest(c, "unsupported product action")
}
