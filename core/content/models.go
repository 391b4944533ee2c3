package content

import (
	"time"

	"github.com/mawazo/darasa/core"
)

// ParentKind tags which content entity an Attachment hangs off.
type ParentKind string

const (
	ParentAnnouncement ParentKind = "announcement"
	ParentAssignment   ParentKind = "assignment"
	ParentSubmission   ParentKind = "submission"
)

// AttachmentType determines which optional Attachment fields are meaningful:
// VideoID only for YouTube, FileName and a stored object URL only for File.
type AttachmentType string

const (
	AttachmentFile    AttachmentType = "File"
	AttachmentLink    AttachmentType = "Link"
	AttachmentYouTube AttachmentType = "YouTube"
)

type Attachment struct {
	ID       int            `json:"id"`
	Parent   ParentKind     `json:"-"`
	ParentID int            `json:"-"`
	Type     AttachmentType `json:"type"`
	Title    string         `json:"title"`
	URL      string         `json:"url,omitempty"`
	VideoID  string         `json:"video_id,omitempty"`
	FileName string         `json:"file_name,omitempty"`
}

type Announcement struct {
	ID        int       `json:"id"`
	ClassID   int       `json:"class_id"`
	AuthorID  int       `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Assignment struct {
	ID          int        `json:"id"`
	ClassID     int        `json:"class_id"`
	CreatedBy   int        `json:"created_by"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishAt   time.Time  `json:"publish_at"` // UTC; defaults to creation time
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
}

// PublishedAt reports whether the assignment is visible to Students at t.
func (a Assignment) PublishedAt(t time.Time) bool { return !a.PublishAt.After(t) }

// PastDueAt reports whether the due date has passed at t. An assignment
// without a due date is never past due.
func (a Assignment) PastDueAt(t time.Time) bool {
	return a.DueDate != nil && a.DueDate.Before(t)
}

type Submission struct {
	ID              int       `json:"id"`
	AssignmentID    int       `json:"assignment_id"`
	StudentID       int       `json:"student_id"`
	SubmittedAt     time.Time `json:"submitted_at"` // UTC
	Score           *int      `json:"score,omitempty"`
	TeacherFeedback string    `json:"teacher_feedback,omitempty"`
}

type Comment struct {
	ID             int       `json:"id"`
	ClassID        int       `json:"class_id"`
	AuthorID       int       `json:"author_id"`
	AnnouncementID *int      `json:"announcement_id,omitempty"`
	AssignmentID   *int      `json:"assignment_id,omitempty"`
	SubmissionID   *int      `json:"submission_id,omitempty"`
	TargetUserID   *int      `json:"target_user_id,omitempty"`
	Content        string    `json:"content"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// Input structs

// NewAttachment contains information needed to attach content to a parent
// entity. It is shared by the announcement, assignment and submission
// surfaces.
type NewAttachment struct {
	Type     AttachmentType `json:"type" validate:"required"`
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	VideoID  string         `json:"video_id"`
	FileName string         `json:"file_name"`
}

func (na *NewAttachment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.URL = core.CleanString(na.URL)
	na.VideoID = core.CleanString(na.VideoID)
	na.FileName = core.CleanString(na.FileName)

	var flds []core.FieldError
	switch na.Type {
	case AttachmentFile, AttachmentLink:
		if na.URL == "" {
			flds = append(flds, core.FieldError{Field: "url", Error: "this field is required"})
		}
	case AttachmentYouTube:
		if na.VideoID == "" {
			flds = append(flds, core.FieldError{Field: "video_id", Error: "this field is required"})
		}
	default:
		flds = append(flds, core.FieldError{Field: "type", Error: "must be one of File, Link, YouTube"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidAttachment, flds...)
	}
	if na.Title == "" {
		na.Title = na.URL
	}
	return nil
}

// NewAnnouncement contains information needed to create a new Announcement.
type NewAnnouncement struct {
	Content     string          `json:"content" validate:"required"`
	Attachments []NewAttachment `json:"attachments"`
}

func (na *NewAnnouncement) Validate() error {
	na.Content = core.CleanString(na.Content)
	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	for i := range na.Attachments {
		if err := na.Attachments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAnnouncement defines what may be modified on an existing Announcement.
type UpdateAnnouncement struct {
	Content             string          `json:"content" validate:"required"`
	AddAttachments      []NewAttachment `json:"add_attachments"`
	RemoveAttachmentIDs []int           `json:"remove_attachment_ids"`
}

func (ua *UpdateAnnouncement) Validate() error {
	ua.Content = core.CleanString(ua.Content)
	if err := core.Validate.Struct(ua); err != nil {
		return err
	}
	for i := range ua.AddAttachments {
		if err := ua.AddAttachments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	PublishAt   *time.Time      `json:"publish_at"`
	DueDate     *time.Time      `json:"due_date"`
	Attachments []NewAttachment `json:"attachments"`
}

func (na *NewAssignment) Validate(now time.Time) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if err := validateSchedule(na.PublishAt, na.DueDate, now, now); err != nil {
		return err
	}
	for i := range na.Attachments {
		if err := na.Attachments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAssignment defines what may be modified on an existing Assignment.
// Nil PublishAt/DueDate keep the current values; ClearDueDate removes the due
// date entirely and wins over DueDate.
type UpdateAssignment struct {
	Title               string          `json:"title" validate:"required"`
	Description         string          `json:"description"`
	PublishAt           *time.Time      `json:"publish_at"`
	DueDate             *time.Time      `json:"due_date"`
	ClearDueDate        bool            `json:"clear_due_date"`
	AddAttachments      []NewAttachment `json:"add_attachments"`
	RemoveAttachmentIDs []int           `json:"remove_attachment_ids"`
}

func (ua *UpdateAssignment) Validate(orig Assignment, now time.Time) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	ua.Description = core.CleanString(ua.Description)
	if err := core.Validate.Struct(ua); err != nil {
		return err
	}

	due := ua.DueDate
	switch {
	case ua.ClearDueDate:
		due = nil
	case due == nil:
		due = orig.DueDate
	}
	if err := validateSchedule(ua.PublishAt, due, orig.PublishAt, now); err != nil {
		return err
	}
	for i := range ua.AddAttachments {
		if err := ua.AddAttachments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// publishTolerance is how far in the past a requested publish time may lie
// before it is rejected (clock skew between client and server).
const publishTolerance = time.Minute

// validateSchedule enforces the publication invariants: an explicit publishAt
// must not lie in the past beyond the tolerance, and dueDate (if set) must be
// strictly after the effective publishAt.
func validateSchedule(publishAt, dueDate *time.Time, fallbackPublish, now time.Time) error {
	effective := fallbackPublish
	if publishAt != nil {
		if publishAt.Before(now.Add(-publishTolerance)) {
			return core.NewValidationError(ErrInvalidSchedule,
				core.FieldError{Field: "publish_at", Error: "publish time cannot be in the past"})
		}
		effective = *publishAt
	}
	if dueDate != nil && !dueDate.After(effective) {
		return core.NewValidationError(ErrInvalidSchedule,
			core.FieldError{Field: "due_date", Error: "due date must be after the publish time"})
	}
	return nil
}

// NewSubmission contains the attachments a Student hands in. Submitting with
// no attachments is allowed; it refreshes the submission timestamp.
type NewSubmission struct {
	Attachments []NewAttachment `json:"attachments"`
}

func (ns *NewSubmission) Validate() error {
	for i := range ns.Attachments {
		if err := ns.Attachments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GradeSubmission carries a Teacher's grade and optional feedback.
type GradeSubmission struct {
	Score    *int   `json:"score"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate() error {
	gs.Feedback = core.CleanString(gs.Feedback)
	if gs.Score != nil && (*gs.Score < 0 || *gs.Score > 100) {
		return core.NewValidationError(ErrScoreOutOfRange,
			core.FieldError{Field: "score", Error: ErrScoreOutOfRange.Error()})
	}
	return nil
}

// NewComment contains information needed to create a new Comment. Exactly one
// of AnnouncementID/AssignmentID must be set; SubmissionID and TargetUserID
// only make sense under an assignment scope.
type NewComment struct {
	ClassID        int    `json:"class_id" validate:"required"`
	AnnouncementID *int   `json:"announcement_id"`
	AssignmentID   *int   `json:"assignment_id"`
	SubmissionID   *int   `json:"submission_id"`
	TargetUserID   *int   `json:"target_user_id"`
	Content        string `json:"content" validate:"required"`
	IsPrivate      bool   `json:"is_private"`
}

func (nc *NewComment) Validate() error {
	nc.Content = core.CleanString(nc.Content)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	if (nc.AnnouncementID == nil) == (nc.AssignmentID == nil) {
		return core.NewValidationError(ErrInvalidCommentScope)
	}
	if nc.AnnouncementID != nil && nc.SubmissionID != nil {
		return core.NewValidationError(ErrInvalidCommentScope,
			core.FieldError{Field: "submission_id", Error: "submissions only exist under assignments"})
	}
	return nil
}

// CommentFilter narrows comment listings to one parent entity.
type CommentFilter struct {
	ClassID        int  `query:"class_id"`
	AnnouncementID *int `query:"announcement_id"`
	AssignmentID   *int `query:"assignment_id"`
	SubmissionID   *int `query:"submission_id"`
	IncludePrivate bool `query:"-"` // never bound from requests
}
