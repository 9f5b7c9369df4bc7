package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type AdminHandler struct {
	userService     *service.UserService
	discountService *service.DiscountService
}

func NewAdminHandler(userService *service.UserService, discountService *service.DiscountService) *AdminHandler {
	return &AdminHandler{userService: userService, discountService: discountService}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// UserAction runs one of the delete, deactivate, reactivate, promote or demote actions on a user.
func (h *AdminHandler) UserAction(c echo.Context) error {
	action, err := decodeUserAction(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	caller := principal(c)
	id := action.targetUser()

	var user *entity.User
	switch action.(type) {
	case deleteUser:
		if err := h.userService.DeleteUser(ctx, caller, id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": fmt.Sprintf("User %d was successfully deleted.", id)})
	case deactivateUser:
		user, err = h.userService.DeactivateUser(ctx, caller, id)
	case reactivateUser:
		user, err = h.userService.ReactivateUser(ctx, caller, id)
	case promoteUser:
		user, err = h.userService.PromoteUser(ctx, caller, id)
	case demoteUser:
		user, err = h.userService.DemoteUser(ctx, caller, id)
	default:
		return badRequest(c, "unsupported user action")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) GetDiscount(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid ID")
	}

	code, err := h.discountService.GetDiscount(c.Request().Context(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, code)
}

// DiscountAction runs one of the create, update, deactivate or delete discount actions.
func (h *AdminHandler) DiscountAction(c echo.Context) error {
	action, err := decodeDiscountAction(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	caller := principal(c)

	var code *entity.DiscountCode
	switch a := action.(type) {
	case createDiscount:
		code, err = h.discountService.CreateDiscount(ctx, caller, service.NewDiscount{
			Code:               a.Code,
			DiscountPercentage: a.DiscountPercentage,
			ExpiryDate:         a.ExpiryDate,
		})
		if err == nil {
			return c.JSON(http.StatusCreated, code)
		}
	case updateDiscount:
		code, err = h.discountService.UpdateDiscount(ctx, caller, a.ID, service.DiscountUpdate{
			DiscountPercentage: a.DiscountPercentage,
			IsActive:           a.IsActive,
			ExpiryDate:         a.ExpiryDate,
		})
	case deactivateDiscount:
		code, err = h.discountService.DeactivateDiscount(ctx, caller, a.ID)
	case deleteDiscount:
		if err := h.discountService.DeleteDiscount(ctx, caller, a.ID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": fmt.Sprintf("Discount code with id %d has been permanently deleted.", a.ID)})
	default:
		return badRequest(c, "unsupported discount action")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, code)
}
