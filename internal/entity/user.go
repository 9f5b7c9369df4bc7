package entity

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID             int     `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	HashedPassword string  `json:"-"`
	IsActive       bool    `json:"is_active"`
	Role           Role    `json:"role"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Age            *int    `json:"age,omitempty"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       int
	Username string
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
