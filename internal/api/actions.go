package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

// Action endpoints carry an "_action" discriminator. Each value decodes into its own request
// type and handlers dispatch with a type switch, so a variant only ever sees its own fields.

type envelope struct {
	Action string `json:"_action"`
}

func readAction(c echo.Context) (string, []byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: unreadable body", entity.ErrValidation)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil, fmt.Errorf("%w: invalid request payload", entity.ErrValidation)
	}
	if env.Action == "" {
		return "", nil, fmt.Errorf("%w: _action is required", entity.ErrValidation)
	}
	return env.Action, body, nil
}

func decodeVariant[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("%w: invalid request payload", entity.ErrValidation)
	}
	return v, nil
}

func unknownAction(kind, action string) error {
	return fmt.Errorf("%w: unknown %s action %q", entity.ErrValidation, kind, action)
}

func requireID(name string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s is required", entity.ErrValidation, name)
	}
	return nil
}

// Orders.

type orderAction interface{ isOrderAction() }

type listOrders struct{}

type createOrder struct {
	Items        []entity.ItemRequest `json:"items"`
	DiscountCode string               `json:"discount_code"`
}

type cancelOrder struct {
	OrderID int `json:"order_id"`
}

func (listOrders) isOrderAction()  {}
func (createOrder) isOrderAction() {}
func (cancelOrder) isOrderAction() {}

func decodeOrderAction(c echo.Context) (orderAction, error) {
	action, body, err := readAction(c)
	if err != nil {
		return nil, err
	}
	switch action {
	case "list":
		return listOrders{}, nil
	case "create":
		return decodeVariant[createOrder](body)
	case "cancel":
		a, err := decodeVariant[cancelOrder](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("order_id", a.OrderID)
	default:
		return nil, unknownAction("order", action)
	}
}

// Products.

type productAction interface{ isProductAction() }

type productFields struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	QuantityInStock *int             `json:"quantity_in_stock"`
}

type createProduct struct {
	productFields
}

type updateProduct struct {
	ID int `json:"id"`
	productFields
}

type archiveProduct struct {
	ID int `json:"id"`
}

type deleteProduct struct {
	ID int `json:"id"`
}

func (createProduct) isProductAction()  {}
func (updateProduct) isProductAction()  {}
func (archiveProduct) isProductAction() {}
func (deleteProduct) isProductAction()  {}

func decodeProductAction(c echo.Context) (productAction, error) {
	action, body, err := readAction(c)
	if err != nil {
		return nil, err
	}
	switch action {
	case "create":
		a, err := decodeVariant[createProduct](body)
		if err != nil {
			return nil, err
		}
		if a.Name == nil || a.Price == nil || a.QuantityInStock == nil {
			return nil, fmt.Errorf("%w: name, price, and quantity are required to create a product", entity.ErrValidation)
		}
		return a, nil
	case "update":
		a, err := decodeVariant[updateProduct](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	case "archive":
		a, err := decodeVariant[archiveProduct](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	case "delete":
		a, err := decodeVariant[deleteProduct](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	default:
		return nil, unknownAction("product", action)
	}
}

// Discount codes.

type discountAction interface{ isDiscountAction() }

type createDiscount struct {
	Code               string     `json:"code"`
	DiscountPercentage int        `json:"discount_percentage"`
	ExpiryDate         *time.Time `json:"expiry_date"`
}

type updateDiscount struct {
	ID                 int        `json:"id"`
	DiscountPercentage *int       `json:"discount_percentage"`
	IsActive           *bool      `json:"is_active"`
	ExpiryDate         *time.Time `json:"expiry_date"`
}

type deactivateDiscount struct {
	ID int `json:"id"`
}

type deleteDiscount struct {
	ID int `json:"id"`
}

func (createDiscount) isDiscountAction()     {}
func (updateDiscount) isDiscountAction()     {}
func (deactivateDiscount) isDiscountAction() {}
func (deleteDiscount) isDiscountAction()     {}

func decodeDiscountAction(c echo.Context) (discountAction, error) {
	action, body, err := readAction(c)
	if err != nil {
		return nil, err
	}
	switch action {
	case "create":
		a, err := decodeVariant[createDiscount](body)
		if err != nil {
			return nil, err
		}
		if a.Code == "" || a.DiscountPercentage == 0 {
			return nil, fmt.Errorf("%w: code and discount_percentage are required for creation", entity.ErrValidation)
		}
		return a, nil
	case "update":
		a, err := decodeVariant[updateDiscount](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	case "deactivate":
		a, err := decodeVariant[deactivateDiscount](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	case "delete":
		a, err := decodeVariant[deleteDiscount](body)
		if err != nil {
			return nil, err
		}
		return a, requireID("id", a.ID)
	default:
		return nil, unknownAction("discount", action)
	}
}

// Admin user actions. Every variant targets one user.

type userAction interface{ targetUser() int }

type userTarget struct {
	UserID int `json:"user_id"`
}

func (t userTarget) targetUser() int { return t.UserID }

type deleteUser struct{ userTarget }
type deactivateUser struct{ userTarget }
type reactivateUser struct{ userTarget }
type promoteUser struct{ userTarget }
type demoteUser struct{ userTarget }

func decodeUserAction(c echo.Context) (userAction, error) {
	action, body, err := readAction(c)
	if err != nil {
		return nil, err
	}
	target, err := decodeVariant[userTarget](body)
	if err != nil {
		return nil, err
	}
	if err := requireID("user_id", target.UserID); err != nil {
		return nil, err
	}
	switch action {
	case "delete":
		return deleteUser{target}, nil
	case "deactivate":
		return deactivateUser{target}, nil
	case "reactivate":
		return reactivateUser{target}, nil
	case "promote":
		return promoteUser{target}, nil
	case "demote":
		return demoteUser{target}, nil
	default:
		return nil, unknownAction("user", action)
	}
}
