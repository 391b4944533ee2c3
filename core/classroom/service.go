package classroom

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/mawazo/darasa/core"
)

var (
	// errors
	ErrNotFound           = errors.New("class not found")
	ErrNotMember          = errors.New("you are not a member of this class")
	ErrClassBlocked       = errors.New("class is temporarily blocked")
	ErrAlreadyEnrolled    = errors.New("you are already enrolled in this class")
	ErrInvalidJoinCode    = errors.New("invalid join code")
	ErrTeacherCannotLeave = errors.New("teachers cannot leave a class; delete it instead")
	ErrPermissionDenied   = errors.New("permission denied")
)

const (
	joinCodeChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeLen     = 6
	joinCodeRetries = 10
)

var generateJoinCode = func() string { // mockable
	b := make([]byte, joinCodeLen)
	for i := range b {
		b[i] = joinCodeChars[rand.Intn(len(joinCodeChars))]
	}
	return string(b)
}

func init() {
	rand.Seed(time.Now().UnixNano())
}

type (
	Repository interface {
		// Atomic runs fn against a transactional view of the repository.
		// Changes made inside fn are discarded when it returns an error.
		Atomic(ctx context.Context, fn func(repo Repository) error) error

		CreateClass(ctx context.Context, class Class) (Class, error)
		GetClassByID(ctx context.Context, id int) (Class, error)
		// GetClassByJoinCode returns ErrNotFound when no class carries the code.
		GetClassByJoinCode(ctx context.Context, code string) (Class, error)
		JoinCodeExists(ctx context.Context, code string) (bool, error)
		UpdateClass(ctx context.Context, class Class) (Class, error)
		SetClassBlocked(ctx context.Context, id int, blocked bool) error
		SetClassStatus(ctx context.Context, id int, status Status) error

		// CreateEnrollment returns ErrAlreadyEnrolled when the (user, class)
		// unique constraint rejects the row.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		// GetEnrollment returns ErrNotMember when the pair does not resolve.
		GetEnrollment(ctx context.Context, userID, classID int) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id int) error
		QueryClassEnrollments(ctx context.Context, classID int) ([]Enrollment, error)
		QueryUserClasses(ctx context.Context, userID int) ([]Class, error)
		ClassesOwnedBy(ctx context.Context, userIDs ...int) (map[int][]Class, error)
		DeleteEnrollmentsByUser(ctx context.Context, userIDs ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RoleOf resolves the (user, class) pair to a role. A non-member resolves to
// RoleNone without error; RoleOf is a pure lookup and the single source of
// authorization facts.
func (svc *Service) RoleOf(ctx context.Context, userID, classID int) (Role, error) {
	enr, err := svc.repo.GetEnrollment(ctx, userID, classID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return RoleNone, nil
		}
		return RoleNone, err
	}
	return enr.Role, nil
}

// IsOpen reports whether the class accepts content mutations. A soft-deleted
// class yields ErrNotFound; a blocked class yields (false, nil). Blocking only
// restricts writes, so read paths may call IsOpen and ignore the bool to get
// the visibility check alone.
func (svc *Service) IsOpen(ctx context.Context, classID int) (bool, error) {
	class, err := svc.visibleClass(ctx, classID)
	if err != nil {
		return false, err
	}
	return !class.Blocked, nil
}

func (svc *Service) visibleClass(ctx context.Context, id int) (Class, error) {
	class, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !class.Visible() {
		return Class{}, ErrNotFound
	}
	return class, nil
}

// Create creates a class owned by actor and auto-enrolls them as Teacher.
func (svc *Service) Create(ctx context.Context, actorID int, nc NewClass) (Class, error) {
	if err := nc.Validate(); err != nil {
		return Class{}, err
	}

	code, err := svc.uniqueJoinCode(ctx)
	if err != nil {
		return Class{}, err
	}

	// the class and its owner's Teacher enrollment land together or not at all
	now := time.Now().UTC()
	var class Class
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		class, err = repo.CreateClass(ctx, Class{
			Name:        nc.Name,
			Description: nc.Description,
			ImageURL:    nc.ImageURL,
			Blocked:     false,
			Status:      StatusActive,
			JoinCode:    code,
			OwnerID:     actorID,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		_, err = repo.CreateEnrollment(ctx, Enrollment{
			UserID:   actorID,
			ClassID:  class.ID,
			Role:     RoleTeacher,
			JoinedAt: now,
		})
		return err
	})
	if err != nil {
		return Class{}, err
	}
	return class, nil
}

func (svc *Service) uniqueJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < joinCodeRetries; i++ {
		code := generateJoinCode()
		exists, err := svc.repo.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique join code")
}

// Join enrolls actor as Student in the class carrying the join code.
// A duplicate enrollment is reported as a validation failure, not a fatal error.
func (svc *Service) Join(ctx context.Context, actorID int, joinCode string) (Class, error) {
	// codes are generated upper-case; accept any casing
	joinCode = strings.ToUpper(core.CleanString(joinCode))
	if joinCode == "" {
		return Class{}, core.NewValidationError(ErrInvalidJoinCode,
			core.FieldError{Field: "join_code", Error: "this field is required"})
	}

	class, err := svc.repo.GetClassByJoinCode(ctx, joinCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Class{}, core.NewValidationError(ErrInvalidJoinCode,
				core.FieldError{Field: "join_code", Error: ErrInvalidJoinCode.Error()})
		}
		return Class{}, err
	}
	if !class.Visible() {
		return Class{}, core.NewValidationError(ErrInvalidJoinCode,
			core.FieldError{Field: "join_code", Error: ErrInvalidJoinCode.Error()})
	}

	_, err = svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:   actorID,
		ClassID:  class.ID,
		Role:     RoleStudent,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			return Class{}, core.NewValidationError(ErrAlreadyEnrolled)
		}
		return Class{}, err
	}
	return class, nil
}

// Leave removes actor's Student enrollment. A Teacher enrollment can only go
// away with the class itself.
func (svc *Service) Leave(ctx context.Context, actorID, classID int) error {
	enr, err := svc.repo.GetEnrollment(ctx, actorID, classID)
	if err != nil {
		return err
	}
	if enr.Role.IsTeacher() {
		return ErrTeacherCannotLeave
	}
	return svc.repo.DeleteEnrollment(ctx, enr.ID)
}

// Update edits class name/description. Owner only.
func (svc *Service) Update(ctx context.Context, actorID, classID int, uc UpdateClass) (Class, error) {
	class, err := svc.ownedClass(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	if err := uc.Validate(class); err != nil {
		return Class{}, err
	}
	class.Name = uc.Name
	class.Description = uc.Description
	return svc.repo.UpdateClass(ctx, class)
}

// SetImageURL replaces the class image. Owner only.
func (svc *Service) SetImageURL(ctx context.Context, actorID, classID int, url string) (Class, error) {
	class, err := svc.ownedClass(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	class.ImageURL = url
	return svc.repo.UpdateClass(ctx, class)
}

// SetBlocked toggles the class write kill-switch. Owner only. The gate does
// not apply to itself: a blocked class can always be unblocked by its owner.
func (svc *Service) SetBlocked(ctx context.Context, actorID, classID int, blocked bool) error {
	if _, err := svc.ownedClass(ctx, actorID, classID); err != nil {
		return err
	}
	return svc.repo.SetClassBlocked(ctx, classID, blocked)
}

// SoftDelete marks the class Non-active. Owner only. Children are not
// cascaded; they simply become unreachable along with the class.
func (svc *Service) SoftDelete(ctx context.Context, actorID, classID int) error {
	if _, err := svc.ownedClass(ctx, actorID, classID); err != nil {
		return err
	}
	return svc.repo.SetClassStatus(ctx, classID, StatusNonActive)
}

func (svc *Service) ownedClass(ctx context.Context, actorID, classID int) (Class, error) {
	class, err := svc.visibleClass(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	if class.OwnerID != actorID {
		return Class{}, ErrPermissionDenied
	}
	return class, nil
}

// Get returns the class for an enrolled actor. Reads are allowed on a blocked
// class; only writes are gated.
func (svc *Service) Get(ctx context.Context, actorID, classID int) (Class, error) {
	class, err := svc.visibleClass(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	role, err := svc.RoleOf(ctx, actorID, classID)
	if err != nil {
		return Class{}, err
	}
	if !role.IsMember() {
		return Class{}, ErrNotMember
	}
	return class, nil
}

// Members lists the class roster for an enrolled actor.
func (svc *Service) Members(ctx context.Context, actorID, classID int) ([]Enrollment, error) {
	if _, err := svc.Get(ctx, actorID, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryClassEnrollments(ctx, classID)
}

// MemberIDs returns the user ids enrolled in a class. It carries no actor
// check; it exists for internal consumers (notifications), not handlers.
func (svc *Service) MemberIDs(ctx context.Context, classID int) ([]int, error) {
	enrs, err := svc.repo.QueryClassEnrollments(ctx, classID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.UserID)
	}
	return ids, nil
}

// ListForUser lists the visible classes the actor is enrolled in.
func (svc *Service) ListForUser(ctx context.Context, actorID int) ([]Class, error) {
	classes, err := svc.repo.QueryUserClasses(ctx, actorID)
	if err != nil {
		return nil, err
	}
	visible := make([]Class, 0, len(classes))
	for _, c := range classes {
		if c.Visible() {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// OwnersAmong returns the subset of userIDs owning at least one class,
// regardless of class status. Used to veto user deletion.
func (svc *Service) OwnersAmong(ctx context.Context, userIDs ...int) ([]int, error) {
	owned, err := svc.repo.ClassesOwnedBy(ctx, userIDs...)
	if err != nil {
		return nil, err
	}
	owners := make([]int, 0, len(owned))
	for id, classes := range owned {
		if len(classes) > 0 {
			owners = append(owners, id)
		}
	}
	return owners, nil
}

// PurgeEnrollments removes every enrollment held by the given users.
func (svc *Service) PurgeEnrollments(ctx context.Context, userIDs ...int) error {
	return svc.repo.DeleteEnrollmentsByUser(ctx, userIDs...)
}
