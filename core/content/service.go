package content

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/classroom"
)

var (
	// errors
	ErrAnnouncementNotFound   = errors.New("announcement not found")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentNotPublished = errors.New("assignment is not published yet")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrSubmissionExists       = errors.New("submission already exists")
	ErrCommentNotFound        = errors.New("comment not found")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrPastDue                = errors.New("the due date has passed")
	ErrInvalidAttachment      = errors.New("invalid attachment")
	ErrInvalidSchedule        = errors.New("invalid schedule")
	ErrScoreOutOfRange        = errors.New("score must be between 0 and 100")
	ErrInvalidCommentScope    = errors.New("a comment must belong to exactly one announcement or assignment")
)

var timeNow = time.Now // mockable

type (
	Repository interface {
		// Atomic runs fn against a transactional view of the repository.
		// Changes made inside fn are discarded when it returns an error.
		Atomic(ctx context.Context, fn func(repo Repository) error) error

		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		// GetAnnouncement returns ErrAnnouncementNotFound when id does not resolve.
		GetAnnouncement(ctx context.Context, id int) (Announcement, error)
		UpdateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id int) error
		QueryClassAnnouncements(ctx context.Context, classID int) ([]Announcement, error)
		QueryAnnouncementsByAuthor(ctx context.Context, userIDs ...int) ([]Announcement, error)

		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		// GetAssignment returns ErrAssignmentNotFound when id does not resolve.
		GetAssignment(ctx context.Context, id int) (Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int) error
		QueryClassAssignments(ctx context.Context, classID int) ([]Assignment, error)
		QueryAssignmentsByCreator(ctx context.Context, userIDs ...int) ([]Assignment, error)

		// CreateSubmission returns ErrSubmissionExists when the
		// (assignment, student) unique constraint rejects the row.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// GetSubmissionByID returns ErrSubmissionNotFound when id does not resolve.
		GetSubmissionByID(ctx context.Context, id int) (Submission, error)
		// GetSubmission returns ErrSubmissionNotFound when the pair does not resolve.
		GetSubmission(ctx context.Context, assignmentID, studentID int) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		DeleteSubmission(ctx context.Context, id int) error
		QueryAssignmentSubmissions(ctx context.Context, assignmentID int) ([]Submission, error)
		QuerySubmissionsByStudent(ctx context.Context, userIDs ...int) ([]Submission, error)

		CreateComment(ctx context.Context, cmt Comment) (Comment, error)
		// GetComment returns ErrCommentNotFound when id does not resolve.
		GetComment(ctx context.Context, id int) (Comment, error)
		UpdateComment(ctx context.Context, cmt Comment) (Comment, error)
		DeleteComment(ctx context.Context, id int) error
		QueryComments(ctx context.Context, filter CommentFilter) ([]Comment, error)
		DeleteCommentsByAnnouncement(ctx context.Context, announcementID int) error
		DeleteCommentsByAssignment(ctx context.Context, assignmentID int) error
		DeleteCommentsBySubmission(ctx context.Context, submissionID int) error
		// ClearCommentSubmission detaches comments from a submission without
		// deleting them; the conversation survives on the assignment.
		ClearCommentSubmission(ctx context.Context, submissionID int) error
		DeleteCommentsByAuthor(ctx context.Context, userIDs ...int) error
		ClearCommentTargets(ctx context.Context, userIDs ...int) error

		CreateAttachment(ctx context.Context, att Attachment) (Attachment, error)
		// GetAttachment returns ErrAttachmentNotFound when id does not resolve.
		GetAttachment(ctx context.Context, id int) (Attachment, error)
		DeleteAttachment(ctx context.Context, id int) error
		QueryAttachments(ctx context.Context, parent ParentKind, parentID int) ([]Attachment, error)
	}

	// ClassDirectory is what the engine needs to know about classes and
	// memberships. classroom.Service satisfies it.
	ClassDirectory interface {
		RoleOf(ctx context.Context, userID, classID int) (classroom.Role, error)
		// IsOpen returns (false, nil) for a blocked class and
		// classroom.ErrNotFound for a soft-deleted or unknown one.
		IsOpen(ctx context.Context, classID int) (bool, error)
		MemberIDs(ctx context.Context, classID int) ([]int, error)
	}

	// UserDirectory resolves user ids to deliverable addresses for
	// notifications. user.Service satisfies it.
	UserDirectory interface {
		Emails(ctx context.Context, userIDs ...int) ([]mail.Address, error)
	}

	Service struct {
		repo    Repository
		classes ClassDirectory
		users   UserDirectory
		files   core.FileStorage
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, classes ClassDirectory,
	files core.FileStorage, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		classes: classes,
		files:   files,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// SetUserDirectory wires the address book in after construction. The user
// service needs this service for its delete cascade, so the two cannot be
// built in one pass.
func (svc *Service) SetUserDirectory(users UserDirectory) { svc.users = users }

// writeRole runs the full write precondition chain for a class: the class
// must be visible, unblocked, and the actor a member. Every mutation in the
// engine funnels through here so blocked classes reject uniformly.
func (svc *Service) writeRole(ctx context.Context, actorID, classID int) (classroom.Role, error) {
	open, err := svc.classes.IsOpen(ctx, classID)
	if err != nil {
		return classroom.RoleNone, err
	}
	if !open {
		return classroom.RoleNone, classroom.ErrClassBlocked
	}
	return svc.memberRole(ctx, actorID, classID)
}

// readRole checks visibility and membership only; blocking does not gate reads.
func (svc *Service) readRole(ctx context.Context, actorID, classID int) (classroom.Role, error) {
	if _, err := svc.classes.IsOpen(ctx, classID); err != nil {
		return classroom.RoleNone, err
	}
	return svc.memberRole(ctx, actorID, classID)
}

func (svc *Service) memberRole(ctx context.Context, actorID, classID int) (classroom.Role, error) {
	role, err := svc.classes.RoleOf(ctx, actorID, classID)
	if err != nil {
		return classroom.RoleNone, err
	}
	if !role.IsMember() {
		return classroom.RoleNone, classroom.ErrNotMember
	}
	return role, nil
}

// Announcements

// CreateAnnouncement posts an announcement to a class. Any member may post.
func (svc *Service) CreateAnnouncement(ctx context.Context, actorID, classID int, na NewAnnouncement) (Announcement, error) {
	if _, err := svc.writeRole(ctx, actorID, classID); err != nil {
		return Announcement{}, err
	}
	if err := na.Validate(); err != nil {
		return Announcement{}, err
	}

	var ann Announcement
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		ann, err = repo.CreateAnnouncement(ctx, Announcement{
			ClassID:   classID,
			AuthorID:  actorID,
			Content:   na.Content,
			CreatedAt: timeNow().UTC(),
		})
		if err != nil {
			return err
		}
		return svc.attachAll(ctx, repo, ParentAnnouncement, ann.ID, na.Attachments)
	})
	if err != nil {
		return Announcement{}, err
	}

	svc.notifyAnnouncement(ctx, ann)
	return ann, nil
}

// UpdateAnnouncement edits an announcement's content and attachments.
// Teachers only, regardless of who authored it.
func (svc *Service) UpdateAnnouncement(ctx context.Context, actorID, announcementID int, ua UpdateAnnouncement) (Announcement, error) {
	ann, err := svc.repo.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return Announcement{}, err
	}
	role, err := svc.writeRole(ctx, actorID, ann.ClassID)
	if err != nil {
		return Announcement{}, err
	}
	if !role.IsTeacher() {
		return Announcement{}, ErrPermissionDenied
	}
	if err := ua.Validate(); err != nil {
		return Announcement{}, err
	}

	ann.Content = ua.Content
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		ann, err = repo.UpdateAnnouncement(ctx, ann)
		if err != nil {
			return err
		}
		if err = svc.detachByIDs(ctx, repo, ParentAnnouncement, ann.ID, ua.RemoveAttachmentIDs); err != nil {
			return err
		}
		return svc.attachAll(ctx, repo, ParentAnnouncement, ann.ID, ua.AddAttachments)
	})
	if err != nil {
		return Announcement{}, err
	}
	return ann, nil
}

// DeleteAnnouncement removes an announcement and everything hanging off it.
// Allowed for Teachers and for the original author.
func (svc *Service) DeleteAnnouncement(ctx context.Context, actorID, announcementID int) error {
	ann, err := svc.repo.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return err
	}
	role, err := svc.writeRole(ctx, actorID, ann.ClassID)
	if err != nil {
		return err
	}
	if !role.IsTeacher() && ann.AuthorID != actorID {
		return ErrPermissionDenied
	}
	return svc.repo.Atomic(ctx, func(repo Repository) error {
		return svc.deleteAnnouncementTree(ctx, repo, ann)
	})
}

// GetAnnouncement returns one announcement with its attachments. Members only.
func (svc *Service) GetAnnouncement(ctx context.Context, actorID, announcementID int) (Announcement, []Attachment, error) {
	ann, err := svc.repo.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return Announcement{}, nil, err
	}
	if _, err = svc.readRole(ctx, actorID, ann.ClassID); err != nil {
		return Announcement{}, nil, err
	}
	atts, err := svc.repo.QueryAttachments(ctx, ParentAnnouncement, ann.ID)
	if err != nil {
		return Announcement{}, nil, err
	}
	return ann, atts, nil
}

// ListAnnouncements lists a class feed. Members only.
func (svc *Service) ListAnnouncements(ctx context.Context, actorID, classID int) ([]Announcement, error) {
	if _, err := svc.readRole(ctx, actorID, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryClassAnnouncements(ctx, classID)
}

// Assignments

// CreateAssignment creates an assignment. Teachers only. A nil PublishAt
// publishes immediately.
func (svc *Service) CreateAssignment(ctx context.Context, actorID, classID int, na NewAssignment) (Assignment, error) {
	role, err := svc.writeRole(ctx, actorID, classID)
	if err != nil {
		return Assignment{}, err
	}
	if !role.IsTeacher() {
		return Assignment{}, ErrPermissionDenied
	}

	now := timeNow().UTC()
	if err := na.Validate(now); err != nil {
		return Assignment{}, err
	}

	publishAt := now
	if na.PublishAt != nil {
		publishAt = na.PublishAt.UTC()
	}

	var asg Assignment
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		asg, err = repo.CreateAssignment(ctx, Assignment{
			ClassID:     classID,
			CreatedBy:   actorID,
			Title:       na.Title,
			Description: na.Description,
			PublishAt:   publishAt,
			DueDate:     utcPtr(na.DueDate),
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		return svc.attachAll(ctx, repo, ParentAssignment, asg.ID, na.Attachments)
	})
	if err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

// UpdateAssignment edits an assignment. Teachers only.
func (svc *Service) UpdateAssignment(ctx context.Context, actorID, assignmentID int, ua UpdateAssignment) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	role, err := svc.writeRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return Assignment{}, err
	}
	if !role.IsTeacher() {
		return Assignment{}, ErrPermissionDenied
	}
	if err := ua.Validate(asg, timeNow().UTC()); err != nil {
		return Assignment{}, err
	}

	asg.Title = ua.Title
	asg.Description = ua.Description
	if ua.PublishAt != nil {
		asg.PublishAt = ua.PublishAt.UTC()
	}
	switch {
	case ua.ClearDueDate:
		asg.DueDate = nil
	case ua.DueDate != nil:
		asg.DueDate = utcPtr(ua.DueDate)
	}
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		asg, err = repo.UpdateAssignment(ctx, asg)
		if err != nil {
			return err
		}
		if err = svc.detachByIDs(ctx, repo, ParentAssignment, asg.ID, ua.RemoveAttachmentIDs); err != nil {
			return err
		}
		return svc.attachAll(ctx, repo, ParentAssignment, asg.ID, ua.AddAttachments)
	})
	if err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

// DeleteAssignment removes an assignment and its whole subtree: submissions,
// comments (including submission-scoped ones), and every attachment at each
// level. Teachers only.
func (svc *Service) DeleteAssignment(ctx context.Context, actorID, assignmentID int) error {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	role, err := svc.writeRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return err
	}
	if !role.IsTeacher() {
		return ErrPermissionDenied
	}
	return svc.repo.Atomic(ctx, func(repo Repository) error {
		return svc.deleteAssignmentTree(ctx, repo, asg)
	})
}

// GetAssignment returns one assignment with its attachments. Members only;
// Students cannot see it before its publish time.
func (svc *Service) GetAssignment(ctx context.Context, actorID, assignmentID int) (Assignment, []Attachment, error) {
	asg, err := svc.publishedAssignment(ctx, actorID, assignmentID)
	if err != nil {
		return Assignment{}, nil, err
	}
	atts, err := svc.repo.QueryAttachments(ctx, ParentAssignment, asg.ID)
	if err != nil {
		return Assignment{}, nil, err
	}
	return asg, atts, nil
}

// publishedAssignment loads an assignment and applies the publish read-gate:
// Teachers see everything, Students only published assignments.
func (svc *Service) publishedAssignment(ctx context.Context, actorID, assignmentID int) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	role, err := svc.readRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return Assignment{}, err
	}
	if role.IsStudent() && !asg.PublishedAt(timeNow().UTC()) {
		return Assignment{}, ErrAssignmentNotPublished
	}
	return asg, nil
}

// ListAssignments lists a class's assignments. Members only; unpublished
// assignments are filtered out for Students.
func (svc *Service) ListAssignments(ctx context.Context, actorID, classID int) ([]Assignment, error) {
	role, err := svc.readRole(ctx, actorID, classID)
	if err != nil {
		return nil, err
	}
	asgs, err := svc.repo.QueryClassAssignments(ctx, classID)
	if err != nil {
		return nil, err
	}
	if role.IsTeacher() {
		return asgs, nil
	}
	now := timeNow().UTC()
	published := make([]Assignment, 0, len(asgs))
	for _, asg := range asgs {
		if asg.PublishedAt(now) {
			published = append(published, asg)
		}
	}
	return published, nil
}

// Submissions

// Submit records or refreshes the actor's submission for an assignment.
// Students only; the assignment must be published and not past due. At most
// one submission per (assignment, student) exists: re-submitting updates the
// timestamp and appends attachments instead of creating a second row.
func (svc *Service) Submit(ctx context.Context, actorID, assignmentID int, ns NewSubmission) (Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	role, err := svc.writeRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return Submission{}, err
	}
	if !role.IsStudent() {
		return Submission{}, ErrPermissionDenied
	}

	now := timeNow().UTC()
	if !asg.PublishedAt(now) {
		return Submission{}, ErrAssignmentNotPublished
	}
	if asg.PastDueAt(now) {
		return Submission{}, core.NewValidationError(ErrPastDue)
	}
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}

	var sub Submission
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		sub, err = repo.GetSubmission(ctx, assignmentID, actorID)
		switch {
		case err == nil:
			sub.SubmittedAt = now
			sub, err = repo.UpdateSubmission(ctx, sub)
		case errors.Is(err, ErrSubmissionNotFound):
			sub, err = repo.CreateSubmission(ctx, Submission{
				AssignmentID: assignmentID,
				StudentID:    actorID,
				SubmittedAt:  now,
			})
			if errors.Is(err, ErrSubmissionExists) {
				// lost the race with a concurrent submit; take the update path
				if sub, err = repo.GetSubmission(ctx, assignmentID, actorID); err == nil {
					sub.SubmittedAt = now
					sub, err = repo.UpdateSubmission(ctx, sub)
				}
			}
		}
		if err != nil {
			return err
		}
		return svc.attachAll(ctx, repo, ParentSubmission, sub.ID, ns.Attachments)
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Unsubmit withdraws the actor's submission before the due date. Comments
// written on the submission survive, reattached to the bare assignment;
// attachments are deleted along with their stored files.
func (svc *Service) Unsubmit(ctx context.Context, actorID, assignmentID int) error {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if _, err = svc.writeRole(ctx, actorID, asg.ClassID); err != nil {
		return err
	}
	if asg.PastDueAt(timeNow().UTC()) {
		return core.NewValidationError(ErrPastDue)
	}

	sub, err := svc.repo.GetSubmission(ctx, assignmentID, actorID)
	if err != nil {
		return err
	}
	return svc.repo.Atomic(ctx, func(repo Repository) error {
		if err := repo.ClearCommentSubmission(ctx, sub.ID); err != nil {
			return err
		}
		if err := svc.detachAll(ctx, repo, ParentSubmission, sub.ID); err != nil {
			return err
		}
		return repo.DeleteSubmission(ctx, sub.ID)
	})
}

// Grade sets the score and feedback on a submission and notifies the student.
// Teachers only; score must lie in [0, 100].
func (svc *Service) Grade(ctx context.Context, actorID, submissionID int, gs GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	asg, err := svc.repo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	role, err := svc.writeRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return Submission{}, err
	}
	if !role.IsTeacher() {
		return Submission{}, ErrPermissionDenied
	}
	if err := gs.Validate(); err != nil {
		return Submission{}, err
	}

	sub.Score = gs.Score
	sub.TeacherFeedback = gs.Feedback
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}

	svc.notifyGraded(ctx, asg, sub)
	return sub, nil
}

// GetOwnSubmission returns the actor's submission for an assignment.
func (svc *Service) GetOwnSubmission(ctx context.Context, actorID, assignmentID int) (Submission, []Attachment, error) {
	if _, err := svc.publishedAssignment(ctx, actorID, assignmentID); err != nil {
		return Submission{}, nil, err
	}
	sub, err := svc.repo.GetSubmission(ctx, assignmentID, actorID)
	if err != nil {
		return Submission{}, nil, err
	}
	atts, err := svc.repo.QueryAttachments(ctx, ParentSubmission, sub.ID)
	if err != nil {
		return Submission{}, nil, err
	}
	return sub, atts, nil
}

// ListSubmissions lists an assignment's submissions. Teachers see all of
// them; a Student sees only their own.
func (svc *Service) ListSubmissions(ctx context.Context, actorID, assignmentID int) ([]Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	role, err := svc.readRole(ctx, actorID, asg.ClassID)
	if err != nil {
		return nil, err
	}
	if role.IsTeacher() {
		return svc.repo.QueryAssignmentSubmissions(ctx, assignmentID)
	}
	sub, err := svc.repo.GetSubmission(ctx, assignmentID, actorID)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return []Submission{}, nil
		}
		return nil, err
	}
	return []Submission{sub}, nil
}

// Comments

// CreateComment posts a comment under an announcement or assignment,
// optionally scoped to a submission. Any member may post. A submission link
// that does not resolve to the named assignment is dropped silently.
func (svc *Service) CreateComment(ctx context.Context, actorID int, nc NewComment) (Comment, error) {
	if err := nc.Validate(); err != nil {
		return Comment{}, err
	}
	if _, err := svc.writeRole(ctx, actorID, nc.ClassID); err != nil {
		return Comment{}, err
	}

	if nc.AnnouncementID != nil {
		ann, err := svc.repo.GetAnnouncement(ctx, *nc.AnnouncementID)
		if err != nil {
			return Comment{}, err
		}
		if ann.ClassID != nc.ClassID {
			return Comment{}, ErrAnnouncementNotFound
		}
	} else {
		asg, err := svc.repo.GetAssignment(ctx, *nc.AssignmentID)
		if err != nil {
			return Comment{}, err
		}
		if asg.ClassID != nc.ClassID {
			return Comment{}, ErrAssignmentNotFound
		}
		if nc.SubmissionID != nil {
			sub, err := svc.repo.GetSubmissionByID(ctx, *nc.SubmissionID)
			if err != nil || sub.AssignmentID != asg.ID {
				nc.SubmissionID = nil
			}
		}
	}

	return svc.repo.CreateComment(ctx, Comment{
		ClassID:        nc.ClassID,
		AuthorID:       actorID,
		AnnouncementID: nc.AnnouncementID,
		AssignmentID:   nc.AssignmentID,
		SubmissionID:   nc.SubmissionID,
		TargetUserID:   nc.TargetUserID,
		Content:        nc.Content,
		IsPrivate:      nc.IsPrivate,
		CreatedAt:      timeNow().UTC(),
	})
}

// UpdateComment edits a comment's text. Only a Teacher editing their own
// comment may do this; Students cannot edit at all.
func (svc *Service) UpdateComment(ctx context.Context, actorID, commentID int, text string) (Comment, error) {
	cmt, err := svc.repo.GetComment(ctx, commentID)
	if err != nil {
		return Comment{}, err
	}
	role, err := svc.writeRole(ctx, actorID, cmt.ClassID)
	if err != nil {
		return Comment{}, err
	}
	if !role.IsTeacher() || cmt.AuthorID != actorID {
		return Comment{}, ErrPermissionDenied
	}

	text = core.CleanString(text)
	if text == "" {
		return Comment{}, core.NewValidationError(fmt.Errorf("content is required"),
			core.FieldError{Field: "content", Error: "this field is required"})
	}
	cmt.Content = text
	return svc.repo.UpdateComment(ctx, cmt)
}

// DeleteComment removes a comment. The author may always delete their own; a
// Teacher may additionally moderate any comment not written by another
// Teacher. A comment whose author left the class counts as moderatable.
func (svc *Service) DeleteComment(ctx context.Context, actorID, commentID int) error {
	cmt, err := svc.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	role, err := svc.writeRole(ctx, actorID, cmt.ClassID)
	if err != nil {
		return err
	}

	allowed := cmt.AuthorID == actorID
	if !allowed && role.IsTeacher() {
		authorRole, err := svc.classes.RoleOf(ctx, cmt.AuthorID, cmt.ClassID)
		if err != nil {
			return err
		}
		allowed = !authorRole.IsTeacher()
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return svc.repo.DeleteComment(ctx, cmt.ID)
}

// ListComments lists the public comments on one parent entity. Members only;
// private comments never show up in listings.
func (svc *Service) ListComments(ctx context.Context, actorID int, filter CommentFilter) ([]Comment, error) {
	if _, err := svc.readRole(ctx, actorID, filter.ClassID); err != nil {
		return nil, err
	}
	filter.IncludePrivate = false
	return svc.repo.QueryComments(ctx, filter)
}

// Notifications

func (svc *Service) notifyAnnouncement(ctx context.Context, ann Announcement) {
	if svc.users == nil || svc.mailSvc == nil {
		return
	}
	memberIDs, err := svc.classes.MemberIDs(ctx, ann.ClassID)
	if err != nil {
		svc.logger.Error("content: resolving announcement recipients: "+err.Error(), err)
		return
	}
	others := make([]int, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != ann.AuthorID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return
	}
	recipients, err := svc.users.Emails(ctx, others...)
	if err != nil {
		svc.logger.Error("content: resolving announcement recipients: "+err.Error(), err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	msg := &core.EmailMessage{
		Bcc:     recipients,
		Subject: fmt.Sprintf("%s - New announcement", core.Conf.AppName),
		BodyStr: ann.Content,
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) notifyGraded(ctx context.Context, asg Assignment, sub Submission) {
	if svc.users == nil || svc.mailSvc == nil {
		return
	}
	recipients, err := svc.users.Emails(ctx, sub.StudentID)
	if err != nil || len(recipients) == 0 {
		if err != nil {
			svc.logger.Error("content: resolving grade recipient: "+err.Error(), err)
		}
		return
	}

	body := fmt.Sprintf("Your submission for %q has been graded.", asg.Title)
	if sub.Score != nil {
		body = fmt.Sprintf("Your submission for %q has been graded: %d/100.", asg.Title, *sub.Score)
	}
	if sub.TeacherFeedback != "" {
		body += "\n\n" + sub.TeacherFeedback
	}
	msg := &core.EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("%s - Submission graded", core.Conf.AppName),
		BodyStr: body,
	}
	svc.mailSvc.SendMessages(msg)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
