package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"zebracli/internal/domain"
	"zebracli/internal/store"
	"zebracli/internal/zebra"
)

type UsersAPI interface {
	User(ctx context.Context, id int) (zebra.User, error)
}

const (
	userKey        = "user"
	defaultRoleKey = "defaultRole"
)

// Users stores the Zebra user the tracker works for and the role used when a
// frame gets none.
type Users struct {
	Store  store.Store
	API    UsersAPI
	UserID int
}

func NewUsers(b store.Backend, api UsersAPI, userID int) *Users {
	return &Users{Store: b.Collection(store.User), API: api, UserID: userID}
}

// Get returns the stored user, or nil before the first refresh.
func (r *Users) Get(ctx context.Context) (*domain.User, error) {
	var u domain.User
	found, err := readKey(ctx, r.Store, userKey, &u)
	if err != nil {
		return nil, fmt.Errorf("%w: user: %v", domain.ErrDeserialization, err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// Refresh fetches the configured user from Zebra. The default role is kept
// while the user still has it.
func (r *Users) Refresh(ctx context.Context) (domain.User, error) {
	if r.UserID == 0 {
		return domain.User{}, fmt.Errorf("%w: zebra user id is not configured", domain.ErrValidation)
	}
	remote, err := r.API.User(ctx, r.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch zebra user %d: %w", r.UserID, err)
	}
	u := userFromZebra(remote)
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := doc.Put(userKey, u); err != nil {
		return domain.User{}, err
	}
	if raw, ok := doc[defaultRoleKey]; ok {
		var roleID int
		if err := json.Unmarshal(raw, &roleID); err != nil {
			delete(doc, defaultRoleKey)
		} else if _, ok := u.Role(roleID); !ok {
			delete(doc, defaultRoleKey)
		}
	}
	if err := r.Store.Write(ctx, doc); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SetDefaultRole picks one of the user's roles as the default.
func (r *Users) SetDefaultRole(ctx context.Context, roleID int) (domain.Role, error) {
	u, err := r.Get(ctx)
	if err != nil {
		return domain.Role{}, err
	}
	if u == nil {
		return domain.Role{}, fmt.Errorf("%w: no user stored, run user refresh first", ErrNotFound)
	}
	role, ok := u.Role(roleID)
	if !ok {
		return domain.Role{}, fmt.Errorf("%w: role %d of user %d", ErrNotFound, roleID, u.ID)
	}
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return domain.Role{}, err
	}
	if err := doc.Put(defaultRoleKey, roleID); err != nil {
		return domain.Role{}, err
	}
	return role, r.Store.Write(ctx, doc)
}

// DefaultRole returns the chosen role, the user's only role, or nil.
func (r *Users) DefaultRole(ctx context.Context) (*domain.Role, error) {
	u, err := r.Get(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	var roleID int
	found, err := readKey(ctx, r.Store, defaultRoleKey, &roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: default role: %v", domain.ErrDeserialization, err)
	}
	if found {
		if role, ok := u.Role(roleID); ok {
			return &role, nil
		}
	}
	if len(u.Roles) == 1 {
		role := u.Roles[0]
		return &role, nil
	}
	return nil, nil
}

// Role resolves a role id against the stored user.
func (r *Users) Role(ctx context.Context, id int) (*domain.Role, error) {
	u, err := r.Get(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	role, ok := u.Role(id)
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func userFromZebra(u zebra.User) domain.User {
	out := domain.User{
		ID:           u.ID,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		EmployeeType: u.EmployeeType,
	}
	for _, r := range u.Roles {
		out.Roles = append(out.Roles, domain.Role{
			ID:       r.ID,
			ParentID: r.ParentID,
			Name:     r.Name,
			FullName: r.FullName,
			Type:     r.Type,
			Status:   r.Status,
		})
	}
	return out
}
