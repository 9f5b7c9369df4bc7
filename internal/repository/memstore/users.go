package memstore

import (
	"context"
	"fmt"
	"sort"

	"storefront-service/internal/entity"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var users []*entity.User
	err := r.s.read(func(st *state) error {
		for _, u := range st.users {
			users = append(users, copyUser(u))
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var user *entity.User
	err := r.s.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return entity.ErrNotFound
		}
		user = copyUser(u)
		return nil
	})
	return user, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var user *entity.User
	err := r.s.read(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				user = copyUser(u)
				return nil
			}
		}
		return entity.ErrNotFound
	})
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if err := st.checkUserUnique(user); err != nil {
			return err
		}
		user.ID = st.nextUserID
		st.nextUserID++
		st.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return entity.ErrNotFound
		}
		if err := st.checkUserUnique(user); err != nil {
			return err
		}
		next := copyUser(user)
		next.Username = current.Username
		st.users[user.ID] = next
		return nil
	})
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return r.s.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return entity.ErrNotFound
		}
		for _, o := range st.orders {
			if o.OwnerID == id {
				return fmt.Errorf("%w: user %d still owns orders", entity.ErrConflict, id)
			}
		}
		delete(st.users, id)
		return nil
	})
}

func (st *state) checkUserUnique(user *entity.User) error {
	for _, u := range st.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return fmt.Errorf("%w: username %q already exists", entity.ErrConflict, user.Username)
		}
		if u.Email == user.Email {
			return fmt.Errorf("%w: email %q already exists", entity.ErrConflict, user.Email)
		}
	}
	return nil
}
