package memstore

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
)

type companyRepo struct {
	scope
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return r.write(ctx, "create company", func(st *state, now time.Time) error {
		st.lastCompany++
		company.ID = st.lastCompany
		company.CreatedAt = now
		company.UpdatedAt = now
		st.companies[company.ID] = *company
		return nil
	})
}

func (r *companyRepo) FindByID(ctx context.Context, id uint) (*model.Company, error) {
	var found model.Company
	err := r.read(ctx, "find company", func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return model.ErrNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

type userRepo struct {
	scope
}

// withCompany mirrors the Preload("Company") of the SQL repository.
func withCompany(st *state, u model.User) *model.User {
	if u.CompanyID != nil {
		if c, ok := st.companies[*u.CompanyID]; ok {
			u.Company = &c
		}
	}
	return &u
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var found *model.User
	err := r.read(ctx, "find user", func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				found = withCompany(st, u)
				return nil
			}
		}
		return model.ErrNotFound
	})
	return found, err
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var found *model.User
	err := r.read(ctx, "find user", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return model.ErrNotFound
		}
		found = withCompany(st, u)
		return nil
	})
	return found, err
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.write(ctx, "create user", func(st *state, now time.Time) error {
		for _, u := range st.users {
			if u.Username == user.Username {
				return model.ErrDuplicate
			}
		}
		if user.CompanyID != nil {
			if _, ok := st.companies[*user.CompanyID]; !ok {
				return model.ErrNotFound
			}
		}
		st.lastUser++
		user.ID = st.lastUser
		user.CreatedAt = now
		user.UpdatedAt = now
		stored := *user
		stored.Company = nil
		st.users[user.ID] = stored
		return nil
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	return r.write(ctx, "update password", func(st *state, now time.Time) error {
		u, ok := st.users[userID]
		if !ok {
			return model.ErrNotFound
		}
		u.Password = hashedPassword
		u.UpdatedAt = now
		st.users[userID] = u
		return nil
	})
}
