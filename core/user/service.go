package user

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"time"

	"github.com/mawazo/darasa/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrOwnsClasses    = errors.New("some users own classes; their classes must be deleted first")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		// GetUserByID returns ErrNotFound when id does not resolve.
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		GetUsersByID(ctx context.Context, ids ...int) ([]User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name,
		// User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, id int, t time.Time) error
		DeleteUsersByID(ctx context.Context, ids ...int) error
	}

	// ClassOwnership answers which users still own classes; ownership vetoes
	// deletion. classroom.Service satisfies it.
	ClassOwnership interface {
		OwnersAmong(ctx context.Context, userIDs ...int) ([]int, error)
		PurgeEnrollments(ctx context.Context, userIDs ...int) error
	}

	// ContentPurger removes everything the users authored before the accounts
	// go away. content.Service satisfies it.
	ContentPurger interface {
		PurgeUserContent(ctx context.Context, userIDs ...int) error
	}

	Service struct {
		repo    Repository
		classes ClassOwnership
		content ContentPurger
	}
)

func NewService(repo Repository, classes ClassOwnership, content ContentPurger) *Service {
	return &Service{repo: repo, classes: classes, content: content}
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		IsAdmin:   nu.IsAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.QueryAll(ctx)
	}
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	origUsr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(ctx, origUsr, svc); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

// SetLastLogin stamps a successful authentication.
func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, usr.ID, now); err != nil {
		return User{}, err
	}
	usr.LastLogin = now
	return usr, nil
}

// Delete removes user accounts and everything they authored. Ownership is a
// hard veto: if any of the users still owns a class, nothing is deleted and
// the caller gets the full offender list via ErrOwnsClasses.
func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}

	owners, err := svc.classes.OwnersAmong(ctx, ids...)
	if err != nil {
		return err
	}
	if len(owners) > 0 {
		flds := make([]core.FieldError, len(owners))
		for i, id := range owners {
			flds[i] = core.FieldError{Field: strconv.Itoa(id), Error: "user owns one or more classes"}
		}
		return core.NewValidationError(ErrOwnsClasses, flds...)
	}

	if err := svc.content.PurgeUserContent(ctx, ids...); err != nil {
		return err
	}
	if err := svc.classes.PurgeEnrollments(ctx, ids...); err != nil {
		return err
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// Emails resolves user ids to deliverable addresses, skipping inactive
// accounts and accounts without an email.
func (svc *Service) Emails(ctx context.Context, userIDs ...int) ([]mail.Address, error) {
	usrs, err := svc.repo.GetUsersByID(ctx, userIDs...)
	if err != nil {
		return nil, err
	}
	addrs := make([]mail.Address, 0, len(usrs))
	for _, usr := range usrs {
		if usr.IsActive && usr.Email != "" {
			addrs = append(addrs, usr.Address())
		}
	}
	return addrs, nil
}
