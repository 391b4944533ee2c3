package classroom

import (
	"time"

	"github.com/mawazo/darasa/core"
)

// Role is the capability a user holds within one class. It is a closed set:
// a user's capabilities are purely a function of the (user, class) pair.
type Role string

const (
	RoleNone    Role = ""
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

func (r Role) IsTeacher() bool { return r == RoleTeacher }
func (r Role) IsStudent() bool { return r == RoleStudent }
func (r Role) IsMember() bool  { return r == RoleTeacher || r == RoleStudent }

// Status is the class soft-delete state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusNonActive Status = "Non-active"
)

type Class struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Blocked     bool      `json:"blocked"`
	Status      Status    `json:"status"`
	JoinCode    string    `json:"join_code"`
	OwnerID     int       `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// EffectiveStatus normalizes a missing status to Active.
func (c Class) EffectiveStatus() Status {
	if c.Status == "" {
		return StatusActive
	}
	return c.Status
}

// Visible reports whether the class is reachable at all. A soft-deleted
// (Non-active) class is invisible everywhere, including direct-by-id reads.
func (c Class) Visible() bool { return c.EffectiveStatus() == StatusActive }

type Enrollment struct {
	ID       int       `json:"id"`
	UserID   int       `json:"user_id"`
	ClassID  int       `json:"class_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (uc *UpdateClass) Validate(origClass Class) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origClass.Name
	}
	uc.Description = core.CleanString(uc.Description)
	return core.Validate.Struct(uc)
}
