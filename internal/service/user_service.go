package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/entity"
	"storefront-service/internal/port"
)

type RegisterRequest struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Password  string `json:"password" form:"password"`
}

// ProfileUpdate carries the fields a user may change on their own account. Nil means unchanged.
type ProfileUpdate struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Age         *int    `json:"age"`
}

type UserService struct {
	repo       port.UserRepository
	sessions   port.SessionStore
	tokens     *TokenIssuer
	bcryptCost int
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo port.UserRepository, sessions port.SessionStore, tokens *TokenIssuer, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, sessions: sessions, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates an active customer account.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		HashedPassword: string(hash),
		IsActive:       true,
		Role:           entity.RoleCustomer,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, entity.ErrConflict) {
			log.Error().Err(err).Msgf("Error registering user %s", req.Username)
		}
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed token, which also becomes the user's session.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return "", fmt.Errorf("%w: incorrect username or password", entity.ErrUnauthorized)
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", fmt.Errorf("%w: incorrect username or password", entity.ErrUnauthorized)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%w: %s", entity.ErrInactiveUser, user.Username)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}

	if err := s.sessions.Save(ctx, user.ID, token, s.tokens.TTL()); err != nil {
		log.Error().Err(err).Msgf("Error storing session for user %d", user.ID)
		return "", err
	}
	return token, nil
}

// CheckSession confirms that token is still the stored session of the principal.
func (s *UserService) CheckSession(ctx context.Context, principal entity.Principal, token string) (entity.Principal, error) {
	stored, err := s.sessions.Get(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Principal{}, fmt.Errorf("%w: session expired or revoked", entity.ErrUnauthorized)
		}
		return entity.Principal{}, err
	}
	if stored != token {
		return entity.Principal{}, fmt.Errorf("%w: session replaced by a newer login", entity.ErrUnauthorized)
	}
	return principal, nil
}

func (s *UserService) Logout(ctx context.Context, principal entity.Principal) error {
	return s.sessions.Revoke(ctx, principal.ID)
}

func (s *UserService) Me(ctx context.Context, principal entity.Principal) (*entity.User, error) {
	return s.repo.GetByID(ctx, principal.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, principal entity.Principal, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, principal.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)) != nil {
		return fmt.Errorf("%w: incorrect password", entity.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	return s.repo.Update(ctx, user)
}

func (s *UserService) UpdateProfile(ctx context.Context, principal entity.Principal, upd ProfileUpdate) (*entity.User, error) {
	if err := validateProfile(upd); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.PhoneNumber != nil {
		user.PhoneNumber = upd.PhoneNumber
	}
	if upd.Age != nil {
		user.Age = upd.Age
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, caller entity.Principal) ([]*entity.User, error) {
	if err := requireAdmin(caller, "list users"); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users")
		return nil, err
	}
	return nonNil(users), nil
}

// DeleteUser removes the account and its session. Users that still own orders cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, caller entity.Principal, userID int) error {
	if err := requireAdmin(caller, "delete users"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.revoke(ctx, userID)
	return nil
}

func (s *UserService) DeactivateUser(ctx context.Context, caller entity.Principal, userID int) (*entity.User, error) {
	user, err := s.modifyUser(ctx, caller, userID, func(u *entity.User) { u.IsActive = false })
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, userID)
	return user, nil
}

func (s *UserService) ReactivateUser(ctx context.Context, caller entity.Principal, userID int) (*entity.User, error) {
	return s.modifyUser(ctx, caller, userID, func(u *entity.User) { u.IsActive = true })
}

// PromoteUser grants the admin role. The role is carried in the token, so the user has to log in again.
func (s *UserService) PromoteUser(ctx context.Context, caller entity.Principal, userID int) (*entity.User, error) {
	return s.changeRole(ctx, caller, userID, entity.RoleAdmin)
}

// DemoteUser drops the user back to customer and ends the current session.
func (s *UserService) DemoteUser(ctx context.Context, caller entity.Principal, userID int) (*entity.User, error) {
	return s.changeRole(ctx, caller, userID, entity.RoleCustomer)
}

func (s *UserService) changeRole(ctx context.Context, caller entity.Principal, userID int, role entity.Role) (*entity.User, error) {
	user, err := s.modifyUser(ctx, caller, userID, func(u *entity.User) { u.Role = role })
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, userID)
	return user, nil
}

func (s *UserService) modifyUser(ctx context.Context, caller entity.Principal, userID int, change func(u *entity.User)) (*entity.User, error) {
	if err := requireAdmin(caller, "modify users"); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	change(user)
	if err := s.repo.Update(ctx, user); err != nil {
		log.Error().Err(err).Msgf("Error updating user %d", userID)
		return nil, err
	}
	return user, nil
}

func (s *UserService) revoke(ctx context.Context, userID int) {
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		log.Error().Err(err).Msgf("Error revoking session for user %d", userID)
	}
}

func requireAdmin(caller entity.Principal, what string) error {
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: %s requires the admin role", entity.ErrForbidden, what)
	}
	return nil
}

func validateRegistration(req RegisterRequest) error {
	if len(strings.TrimSpace(req.Username)) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", entity.ErrValidation)
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(req.FirstName) < 2 || len(req.LastName) < 2 {
		return fmt.Errorf("%w: first and last name must be at least 2 characters", entity.ErrValidation)
	}
	return validatePassword(req.Password)
}

func validateProfile(upd ProfileUpdate) error {
	if upd.Email != nil {
		if err := validateEmail(*upd.Email); err != nil {
			return err
		}
	}
	if (upd.FirstName != nil && len(*upd.FirstName) < 2) || (upd.LastName != nil && len(*upd.LastName) < 2) {
		return fmt.Errorf("%w: first and last name must be at least 2 characters", entity.ErrValidation)
	}
	if upd.Age != nil && *upd.Age <= 0 {
		return fmt.Errorf("%w: age must be greater than 0", entity.ErrValidation)
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return fmt.Errorf("%w: invalid email %q", entity.ErrValidation, email)
	}
	return nil
}

// bcrypt only looks at the first 72 bytes.
func validatePassword(p string) error {
	if len(p) < 6 || len(p) > 72 {
		return fmt.Errorf("%w: password must be between 6 and 72 characters", entity.ErrValidation)
	}
	return nil
}
