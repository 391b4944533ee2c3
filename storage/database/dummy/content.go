package dummydb

import (
	"context"
	"sort"

	"github.com/mawazo/darasa/core/content"
)

type contentRepository struct {
	announce   *announcementTable
	assignment *assignmentTable
	submission *submissionTable
	comment    *commentTable
	attachment *attachmentTable
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{
		announce:   db.announce,
		assignment: db.assignment,
		submission: db.submission,
		comment:    db.comment,
		attachment: db.attachment,
	}
}

// Atomic is plain sequencing: the in-memory store has no rollback.
func (repo *contentRepository) Atomic(ctx context.Context, fn func(repo content.Repository) error) error {
	return fn(repo)
}

// Announcements

func (repo *contentRepository) CreateAnnouncement(ctx context.Context, ann content.Announcement) (content.Announcement, error) {
	repo.announce.Lock()
	defer repo.announce.Unlock()

	repo.announce.pkCount++
	ann.ID = repo.announce.pkCount
	repo.announce.table[ann.ID] = &ann
	return ann, nil
}

func (repo *contentRepository) GetAnnouncement(ctx context.Context, id int) (content.Announcement, error) {
	repo.announce.RLock()
	defer repo.announce.RUnlock()

	if ann, ok := repo.announce.table[id]; ok {
		return *ann, nil
	}
	return content.Announcement{}, content.ErrAnnouncementNotFound
}

func (repo *contentRepository) UpdateAnnouncement(ctx context.Context, ann content.Announcement) (content.Announcement, error) {
	repo.announce.Lock()
	defer repo.announce.Unlock()

	orig, ok := repo.announce.table[ann.ID]
	if !ok {
		return content.Announcement{}, content.ErrAnnouncementNotFound
	}
	orig.Content = ann.Content
	return *orig, nil
}

func (repo *contentRepository) DeleteAnnouncement(ctx context.Context, id int) error {
	repo.announce.Lock()
	defer repo.announce.Unlock()
	delete(repo.announce.table, id)
	return nil
}

func (repo *contentRepository) QueryClassAnnouncements(ctx context.Context, classID int) ([]content.Announcement, error) {
	repo.announce.RLock()
	defer repo.announce.RUnlock()

	var anns []content.Announcement
	for _, ann := range repo.announce.table {
		if ann.ClassID == classID {
			anns = append(anns, *ann)
		}
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].ID > anns[j].ID }) // newest first
	return anns, nil
}

func (repo *contentRepository) QueryAnnouncementsByAuthor(ctx context.Context, userIDs ...int) ([]content.Announcement, error) {
	repo.announce.RLock()
	defer repo.announce.RUnlock()

	var anns []content.Announcement
	for _, ann := range repo.announce.table {
		if containsInt(userIDs, ann.AuthorID) {
			anns = append(anns, *ann)
		}
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].ID < anns[j].ID })
	return anns, nil
}

// Assignments

func (repo *contentRepository) CreateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	repo.assignment.Lock()
	defer repo.assignment.Unlock()

	repo.assignment.pkCount++
	asg.ID = repo.assignment.pkCount
	repo.assignment.table[asg.ID] = &asg
	return asg, nil
}

func (repo *contentRepository) GetAssignment(ctx context.Context, id int) (content.Assignment, error) {
	repo.assignment.RLock()
	defer repo.assignment.RUnlock()

	if asg, ok := repo.assignment.table[id]; ok {
		return *asg, nil
	}
	return content.Assignment{}, content.ErrAssignmentNotFound
}

func (repo *contentRepository) UpdateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	repo.assignment.Lock()
	defer repo.assignment.Unlock()

	orig, ok := repo.assignment.table[asg.ID]
	if !ok {
		return content.Assignment{}, content.ErrAssignmentNotFound
	}
	orig.Title = asg.Title
	orig.Description = asg.Description
	orig.PublishAt = asg.PublishAt
	orig.DueDate = asg.DueDate
	return *orig, nil
}

func (repo *contentRepository) DeleteAssignment(ctx context.Context, id int) error {
	repo.assignment.Lock()
	defer repo.assignment.Unlock()
	delete(repo.assignment.table, id)
	return nil
}

func (repo *contentRepository) QueryClassAssignments(ctx context.Context, classID int) ([]content.Assignment, error) {
	repo.assignment.RLock()
	defer repo.assignment.RUnlock()

	var asgs []content.Assignment
	for _, asg := range repo.assignment.table {
		if asg.ClassID == classID {
			asgs = append(asgs, *asg)
		}
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].ID > asgs[j].ID }) // newest first
	return asgs, nil
}

func (repo *contentRepository) QueryAssignmentsByCreator(ctx context.Context, userIDs ...int) ([]content.Assignment, error) {
	repo.assignment.RLock()
	defer repo.assignment.RUnlock()

	var asgs []content.Assignment
	for _, asg := range repo.assignment.table {
		if containsInt(userIDs, asg.CreatedBy) {
			asgs = append(asgs, *asg)
		}
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].ID < asgs[j].ID })
	return asgs, nil
}

// Submissions

func (repo *contentRepository) CreateSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	repo.submission.Lock()
	defer repo.submission.Unlock()

	for _, s := range repo.submission.table {
		if s.AssignmentID == sub.AssignmentID && s.StudentID == sub.StudentID {
			return content.Submission{}, content.ErrSubmissionExists
		}
	}

	repo.submission.pkCount++
	sub.ID = repo.submission.pkCount
	repo.submission.table[sub.ID] = &sub
	return sub, nil
}

func (repo *contentRepository) GetSubmissionByID(ctx context.Context, id int) (content.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	if sub, ok := repo.submission.table[id]; ok {
		return *sub, nil
	}
	return content.Submission{}, content.ErrSubmissionNotFound
}

func (repo *contentRepository) GetSubmission(ctx context.Context, assignmentID, studentID int) (content.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	for _, sub := range repo.submission.table {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return *sub, nil
		}
	}
	return content.Submission{}, content.ErrSubmissionNotFound
}

func (repo *contentRepository) UpdateSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	repo.submission.Lock()
	defer repo.submission.Unlock()

	orig, ok := repo.submission.table[sub.ID]
	if !ok {
		return content.Submission{}, content.ErrSubmissionNotFound
	}
	orig.SubmittedAt = sub.SubmittedAt
	orig.Score = sub.Score
	orig.TeacherFeedback = sub.TeacherFeedback
	return *orig, nil
}

func (repo *contentRepository) DeleteSubmission(ctx context.Context, id int) error {
	repo.submission.Lock()
	defer repo.submission.Unlock()
	delete(repo.submission.table, id)
	return nil
}

func (repo *contentRepository) QueryAssignmentSubmissions(ctx context.Context, assignmentID int) ([]content.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	var subs []content.Submission
	for _, sub := range repo.submission.table {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *contentRepository) QuerySubmissionsByStudent(ctx context.Context, userIDs ...int) ([]content.Submission, error) {
	repo.submission.RLock()
	defer repo.submission.RUnlock()

	var subs []content.Submission
	for _, sub := range repo.submission.table {
		if containsInt(userIDs, sub.StudentID) {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// Comments

func (repo *contentRepository) CreateComment(ctx context.Context, cmt content.Comment) (content.Comment, error) {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	repo.comment.pkCount++
	cmt.ID = repo.comment.pkCount
	repo.comment.table[cmt.ID] = &cmt
	return cmt, nil
}

func (repo *contentRepository) GetComment(ctx context.Context, id int) (content.Comment, error) {
	repo.comment.RLock()
	defer repo.comment.RUnlock()

	if cmt, ok := repo.comment.table[id]; ok {
		return *cmt, nil
	}
	return content.Comment{}, content.ErrCommentNotFound
}

func (repo *contentRepository) UpdateComment(ctx context.Context, cmt content.Comment) (content.Comment, error) {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	orig, ok := repo.comment.table[cmt.ID]
	if !ok {
		return content.Comment{}, content.ErrCommentNotFound
	}
	orig.Content = cmt.Content
	return *orig, nil
}

func (repo *contentRepository) DeleteComment(ctx context.Context, id int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()
	delete(repo.comment.table, id)
	return nil
}

func (repo *contentRepository) QueryComments(ctx context.Context, filter content.CommentFilter) ([]content.Comment, error) {
	repo.comment.RLock()
	defer repo.comment.RUnlock()

	var cmts []content.Comment
	for _, cmt := range repo.comment.table {
		if filter.ClassID != 0 && cmt.ClassID != filter.ClassID {
			continue
		}
		if filter.AnnouncementID != nil && !intPtrEq(cmt.AnnouncementID, *filter.AnnouncementID) {
			continue
		}
		if filter.AssignmentID != nil && !intPtrEq(cmt.AssignmentID, *filter.AssignmentID) {
			continue
		}
		if filter.SubmissionID != nil && !intPtrEq(cmt.SubmissionID, *filter.SubmissionID) {
			continue
		}
		if cmt.IsPrivate && !filter.IncludePrivate {
			continue
		}
		cmts = append(cmts, *cmt)
	}
	sort.Slice(cmts, func(i, j int) bool { return cmts[i].ID < cmts[j].ID })
	return cmts, nil
}

func (repo *contentRepository) DeleteCommentsByAnnouncement(ctx context.Context, announcementID int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for id, cmt := range repo.comment.table {
		if intPtrEq(cmt.AnnouncementID, announcementID) {
			delete(repo.comment.table, id)
		}
	}
	return nil
}

func (repo *contentRepository) DeleteCommentsByAssignment(ctx context.Context, assignmentID int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for id, cmt := range repo.comment.table {
		if intPtrEq(cmt.AssignmentID, assignmentID) {
			delete(repo.comment.table, id)
		}
	}
	return nil
}

func (repo *contentRepository) DeleteCommentsBySubmission(ctx context.Context, submissionID int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for id, cmt := range repo.comment.table {
		if intPtrEq(cmt.SubmissionID, submissionID) {
			delete(repo.comment.table, id)
		}
	}
	return nil
}

func (repo *contentRepository) ClearCommentSubmission(ctx context.Context, submissionID int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for _, cmt := range repo.comment.table {
		if intPtrEq(cmt.SubmissionID, submissionID) {
			cmt.SubmissionID = nil
		}
	}
	return nil
}

func (repo *contentRepository) DeleteCommentsByAuthor(ctx context.Context, userIDs ...int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for id, cmt := range repo.comment.table {
		if containsInt(userIDs, cmt.AuthorID) {
			delete(repo.comment.table, id)
		}
	}
	return nil
}

func (repo *contentRepository) ClearCommentTargets(ctx context.Context, userIDs ...int) error {
	repo.comment.Lock()
	defer repo.comment.Unlock()

	for _, cmt := range repo.comment.table {
		if cmt.TargetUserID != nil && containsInt(userIDs, *cmt.TargetUserID) {
			cmt.TargetUserID = nil
		}
	}
	return nil
}

// Attachments

func (repo *contentRepository) CreateAttachment(ctx context.Context, att content.Attachment) (content.Attachment, error) {
	repo.attachment.Lock()
	defer repo.attachment.Unlock()

	repo.attachment.pkCount++
	att.ID = repo.attachment.pkCount
	repo.attachment.table[att.ID] = &att
	return att, nil
}

func (repo *contentRepository) GetAttachment(ctx context.Context, id int) (content.Attachment, error) {
	repo.attachment.RLock()
	defer repo.attachment.RUnlock()

	if att, ok := repo.attachment.table[id]; ok {
		return *att, nil
	}
	return content.Attachment{}, content.ErrAttachmentNotFound
}

func (repo *contentRepository) DeleteAttachment(ctx context.Context, id int) error {
	repo.attachment.Lock()
	defer repo.attachment.Unlock()
	delete(repo.attachment.table, id)
	return nil
}

func (repo *contentRepository) QueryAttachments(ctx context.Context, parent content.ParentKind, parentID int) ([]content.Attachment, error) {
	repo.attachment.RLock()
	defer repo.attachment.RUnlock()

	var atts []content.Attachment
	for _, att := range repo.attachment.table {
		if att.Parent == parent && att.ParentID == parentID {
			atts = append(atts, *att)
		}
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].ID < atts[j].ID })
	return atts, nil
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func intPtrEq(p *int, v int) bool { return p != nil && *p == v }
