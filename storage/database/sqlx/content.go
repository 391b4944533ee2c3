package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mawazo/darasa/core/content"
)

type announcementRow struct {
	ID        int       `db:"id"`
	ClassID   int       `db:"class_id"`
	AuthorID  int       `db:"author_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r announcementRow) toAnnouncement() content.Announcement {
	return content.Announcement{
		ID:        r.ID,
		ClassID:   r.ClassID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

type assignmentRow struct {
	ID          int         `db:"id"`
	ClassID     int         `db:"class_id"`
	CreatedBy   int         `db:"created_by"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	PublishAt   time.Time   `db:"publish_at"`
	DueDate     null.Time   `db:"due_date"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r assignmentRow) toAssignment() content.Assignment {
	asg := content.Assignment{
		ID:          r.ID,
		ClassID:     r.ClassID,
		CreatedBy:   r.CreatedBy,
		Title:       r.Title,
		Description: r.Description.String,
		PublishAt:   r.PublishAt,
		CreatedAt:   r.CreatedAt,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		asg.DueDate = &due
	}
	return asg
}

type submissionRow struct {
	ID              int         `db:"id"`
	AssignmentID    int         `db:"assignment_id"`
	StudentID       int         `db:"student_id"`
	SubmittedAt     time.Time   `db:"submitted_at"`
	Score           null.Int    `db:"score"`
	TeacherFeedback null.String `db:"teacher_feedback"`
}

func (r submissionRow) toSubmission() content.Submission {
	sub := content.Submission{
		ID:              r.ID,
		AssignmentID:    r.AssignmentID,
		StudentID:       r.StudentID,
		SubmittedAt:     r.SubmittedAt,
		TeacherFeedback: r.TeacherFeedback.String,
	}
	if r.Score.Valid {
		score := r.Score.Int
		sub.Score = &score
	}
	return sub
}

type commentRow struct {
	ID             int       `db:"id"`
	ClassID        int       `db:"class_id"`
	AuthorID       int       `db:"author_id"`
	AnnouncementID null.Int  `db:"announcement_id"`
	AssignmentID   null.Int  `db:"assignment_id"`
	SubmissionID   null.Int  `db:"submission_id"`
	TargetUserID   null.Int  `db:"target_user_id"`
	Content        string    `db:"content"`
	IsPrivate      bool      `db:"is_private"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r commentRow) toComment() content.Comment {
	return content.Comment{
		ID:             r.ID,
		ClassID:        r.ClassID,
		AuthorID:       r.AuthorID,
		AnnouncementID: nullIntPtr(r.AnnouncementID),
		AssignmentID:   nullIntPtr(r.AssignmentID),
		SubmissionID:   nullIntPtr(r.SubmissionID),
		TargetUserID:   nullIntPtr(r.TargetUserID),
		Content:        r.Content,
		IsPrivate:      r.IsPrivate,
		CreatedAt:      r.CreatedAt,
	}
}

type attachmentRow struct {
	ID       int         `db:"id"`
	Parent   string      `db:"parent"`
	ParentID int         `db:"parent_id"`
	Type     string      `db:"type"`
	Title    string      `db:"title"`
	URL      null.String `db:"url"`
	VideoID  null.String `db:"video_id"`
	FileName null.String `db:"file_name"`
}

func (r attachmentRow) toAttachment() content.Attachment {
	return content.Attachment{
		ID:       r.ID,
		Parent:   content.ParentKind(r.Parent),
		ParentID: r.ParentID,
		Type:     content.AttachmentType(r.Type),
		Title:    r.Title,
		URL:      r.URL.String,
		VideoID:  r.VideoID.String,
		FileName: r.FileName.String,
	}
}

func nullIntPtr(v null.Int) *int {
	if !v.Valid {
		return nil
	}
	i := v.Int
	return &i
}

func intFromPtr(p *int) null.Int {
	if p == nil {
		return null.Int{}
	}
	return null.IntFrom(*p)
}

type contentRepository struct {
	db *sqlx.DB // nil inside a transaction
	q  queryer
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) content.Repository {
	return &contentRepository{db: db, q: db}
}

func (repo *contentRepository) Atomic(ctx context.Context, fn func(repo content.Repository) error) error {
	if repo.db == nil {
		// already inside a transaction; nested Atomic joins it
		return fn(repo)
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&contentRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Announcements

const selectAnnouncement = `SELECT id, class_id, author_id, content, created_at FROM announcement`

func (repo *contentRepository) CreateAnnouncement(ctx context.Context, ann content.Announcement) (content.Announcement, error) {
	const q = `
INSERT INTO announcement (class_id, author_id, content, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	if err := repo.q.GetContext(ctx, &ann.ID, q, ann.ClassID, ann.AuthorID, ann.Content, ann.CreatedAt); err != nil {
		return content.Announcement{}, err
	}
	return ann, nil
}

func (repo *contentRepository) GetAnnouncement(ctx context.Context, id int) (content.Announcement, error) {
	var row announcementRow
	if err := repo.q.GetContext(ctx, &row, selectAnnouncement+` WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return content.Announcement{}, content.ErrAnnouncementNotFound
		}
		return content.Announcement{}, err
	}
	return row.toAnnouncement(), nil
}

func (repo *contentRepository) UpdateAnnouncement(ctx context.Context, ann content.Announcement) (content.Announcement, error) {
	const q = `
UPDATE announcement SET content = $2
WHERE id = $1
RETURNING id, class_id, author_id, content, created_at`
	var row announcementRow
	if err := repo.q.GetContext(ctx, &row, q, ann.ID, ann.Content); err != nil {
		if isNoRows(err) {
			return content.Announcement{}, content.ErrAnnouncementNotFound
		}
		return content.Announcement{}, err
	}
	return row.toAnnouncement(), nil
}

func (repo *contentRepository) DeleteAnnouncement(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM announcement WHERE id = $1`, id)
	return err
}

func (repo *contentRepository) QueryClassAnnouncements(ctx context.Context, classID int) ([]content.Announcement, error) {
	var rows []announcementRow
	if err := repo.q.SelectContext(ctx, &rows, selectAnnouncement+` WHERE class_id = $1 ORDER BY id DESC`, classID); err != nil {
		return nil, err
	}
	anns := make([]content.Announcement, len(rows))
	for i, r := range rows {
		anns[i] = r.toAnnouncement()
	}
	return anns, nil
}

func (repo *contentRepository) QueryAnnouncementsByAuthor(ctx context.Context, userIDs ...int) ([]content.Announcement, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	q, args, err := inQuery(repo.q, selectAnnouncement+` WHERE author_id IN (?) ORDER BY id`, userIDs)
	if err != nil {
		return nil, err
	}
	var rows []announcementRow
	if err := repo.q.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	anns := make([]content.Announcement, len(rows))
	for i, r := range rows {
		anns[i] = r.toAnnouncement()
	}
	return anns, nil
}

// Assignments

const selectAssignment = `SELECT id, class_id, created_by, title, description, publish_at, due_date, created_at FROM assignment`

func (repo *contentRepository) CreateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	const q = `
INSERT INTO assignment (class_id, created_by, title, description, publish_at, due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.q.GetContext(ctx, &asg.ID, q,
		asg.ClassID, asg.CreatedBy, asg.Title,
		null.NewString(asg.Description, asg.Description != ""),
		asg.PublishAt, null.TimeFromPtr(asg.DueDate), asg.CreatedAt)
	if err != nil {
		return content.Assignment{}, err
	}
	return asg, nil
}

func (repo *contentRepository) GetAssignment(ctx context.Context, id int) (content.Assignment, error) {
	var row assignmentRow
	if err := repo.q.GetContext(ctx, &row, selectAssignment+` WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return content.Assignment{}, content.ErrAssignmentNotFound
		}
		return content.Assignment{}, err
	}
	return row.toAssignment(), nil
}

func (repo *contentRepository) UpdateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	const q = `
UPDATE assignment SET title = $2, description = $3, publish_at = $4, due_date = $5
WHERE id = $1
RETURNING id, class_id, created_by, title, description, publish_at, due_date, created_at`
	var row assignmentRow
	err := repo.q.GetContext(ctx, &row, q, asg.ID,
		asg.Title, null.NewString(asg.Description, asg.Description != ""),
		asg.PublishAt, null.TimeFromPtr(asg.DueDate))
	if err != nil {
		if isNoRows(err) {
			return content.Assignment{}, content.ErrAssignmentNotFound
		}
		return content.Assignment{}, err
	}
	return row.toAssignment(), nil
}

func (repo *contentRepository) DeleteAssignment(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	return err
}

func (repo *contentRepository) QueryClassAssignments(ctx context.Context, classID int) ([]content.Assignment, error) {
	var rows []assignmentRow
	if err := repo.q.SelectContext(ctx, &rows, selectAssignment+` WHERE class_id = $1 ORDER BY id DESC`, classID); err != nil {
		return nil, err
	}
	asgs := make([]content.Assignment, len(rows))
	for i, r := range rows {
		asgs[i] = r.toAssignment()
	}
	return asgs, nil
}

func (repo *contentRepository) QueryAssignmentsByCreator(ctx context.Context, userIDs ...int) ([]content.Assignment, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	q, args, err := inQuery(repo.q, selectAssignment+` WHERE created_by IN (?) ORDER BY id`, userIDs)
	if err != nil {
		return nil, err
	}
	var rows []assignmentRow
	if err := repo.q.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	asgs := make([]content.Assignment, len(rows))
	for i, r := range rows {
		asgs[i] = r.toAssignment()
	}
	return asgs, nil
}

// Submissions

const selectSubmission = `SELECT id, assignment_id, student_id, submitted_at, score, teacher_feedback FROM submission`

func (repo *contentRepository) CreateSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	const q = `
INSERT INTO submission (assignment_id, student_id, submitted_at)
VALUES ($1, $2, $3)
RETURNING id`
	if err := repo.q.GetContext(ctx, &sub.ID, q, sub.AssignmentID, sub.StudentID, sub.SubmittedAt); err != nil {
		if isUniqueViolation(err, "submission_assignment_id_student_id_key") {
			return content.Submission{}, content.ErrSubmissionExists
		}
		return content.Submission{}, err
	}
	return sub, nil
}

func (repo *contentRepository) getSubmission(ctx context.Context, query string, args ...interface{}) (content.Submission, error) {
	var row submissionRow
	if err := repo.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return content.Submission{}, content.ErrSubmissionNotFound
		}
		return content.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *contentRepository) GetSubmissionByID(ctx context.Context, id int) (content.Submission, error) {
	return repo.getSubmission(ctx, selectSubmission+` WHERE id = $1`, id)
}

func (repo *contentRepository) GetSubmission(ctx context.Context, assignmentID, studentID int) (content.Submission, error) {
	return repo.getSubmission(ctx, selectSubmission+` WHERE assignment_id = $1 AND student_id = $2`, assignmentID, studentID)
}

func (repo *contentRepository) UpdateSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	const q = `
UPDATE submission SET submitted_at = $2, score = $3, teacher_feedback = $4
WHERE id = $1
RETURNING id, assignment_id, student_id, submitted_at, score, teacher_feedback`
	var row submissionRow
	err := repo.q.GetContext(ctx, &row, q, sub.ID, sub.SubmittedAt,
		intFromPtr(sub.Score), null.NewString(sub.TeacherFeedback, sub.TeacherFeedback != ""))
	if err != nil {
		if isNoRows(err) {
			return content.Submission{}, content.ErrSubmissionNotFound
		}
		return content.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *contentRepository) DeleteSubmission(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM submission WHERE id = $1`, id)
	return err
}

func (repo *contentRepository) QueryAssignmentSubmissions(ctx context.Context, assignmentID int) ([]content.Submission, error) {
	var rows []submissionRow
	if err := repo.q.SelectContext(ctx, &rows, selectSubmission+` WHERE assignment_id = $1 ORDER BY id`, assignmentID); err != nil {
		return nil, err
	}
	subs := make([]content.Submission, len(rows))
	for i, r := range rows {
		subs[i] = r.toSubmission()
	}
	return subs, nil
}

func (repo *contentRepository) QuerySubmissionsByStudent(ctx context.Context, userIDs ...int) ([]content.Submission, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	q, args, err := inQuery(repo.q, selectSubmission+` WHERE student_id IN (?) ORDER BY id`, userIDs)
	if err != nil {
		return nil, err
	}
	var rows []submissionRow
	if err := repo.q.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	subs := make([]content.Submission, len(rows))
	for i, r := range rows {
		subs[i] = r.toSubmission()
	}
	return subs, nil
}

// Comments

const selectComment = `SELECT id, class_id, author_id, announcement_id, assignment_id, submission_id, target_user_id, content, is_private, created_at FROM comment`

func (repo *contentRepository) CreateComment(ctx context.Context, cmt content.Comment) (content.Comment, error) {
	const q = `
INSERT INTO comment (class_id, author_id, announcement_id, assignment_id, submission_id, target_user_id, content, is_private, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := repo.q.GetContext(ctx, &cmt.ID, q,
		cmt.ClassID, cmt.AuthorID,
		intFromPtr(cmt.AnnouncementID), intFromPtr(cmt.AssignmentID),
		intFromPtr(cmt.SubmissionID), intFromPtr(cmt.TargetUserID),
		cmt.Content, cmt.IsPrivate, cmt.CreatedAt)
	if err != nil {
		return content.Comment{}, err
	}
	return cmt, nil
}

func (repo *contentRepository) GetComment(ctx context.Context, id int) (content.Comment, error) {
	var row commentRow
	if err := repo.q.GetContext(ctx, &row, selectComment+` WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return content.Comment{}, content.ErrCommentNotFound
		}
		return content.Comment{}, err
	}
	return row.toComment(), nil
}

func (repo *contentRepository) UpdateComment(ctx context.Context, cmt content.Comment) (content.Comment, error) {
	const q = `
UPDATE comment SET content = $2
WHERE id = $1
RETURNING id, class_id, author_id, announcement_id, assignment_id, submission_id, target_user_id, content, is_private, created_at`
	var row commentRow
	if err := repo.q.GetContext(ctx, &row, q, cmt.ID, cmt.Content); err != nil {
		if isNoRows(err) {
			return content.Comment{}, content.ErrCommentNotFound
		}
		return content.Comment{}, err
	}
	return row.toComment(), nil
}

func (repo *contentRepository) DeleteComment(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM comment WHERE id = $1`, id)
	return err
}

func (repo *contentRepository) QueryComments(ctx context.Context, filter content.CommentFilter) ([]content.Comment, error) {
	q := selectComment + ` WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "?"
	}

	if filter.ClassID != 0 {
		q += ` AND class_id = ` + arg(filter.ClassID)
	}
	if filter.AnnouncementID != nil {
		q += ` AND announcement_id = ` + arg(*filter.AnnouncementID)
	}
	if filter.AssignmentID != nil {
		q += ` AND assignment_id = ` + arg(*filter.AssignmentID)
	}
	if filter.SubmissionID != nil {
		q += ` AND submission_id = ` + arg(*filter.SubmissionID)
	}
	if !filter.IncludePrivate {
		q += ` AND is_private = false`
	}
	q += ` ORDER BY id`

	var rows []commentRow
	if err := repo.q.SelectContext(ctx, &rows, repo.q.Rebind(q), args...); err != nil {
		return nil, err
	}
	cmts := make([]content.Comment, len(rows))
	for i, r := range rows {
		cmts[i] = r.toComment()
	}
	return cmts, nil
}

func (repo *contentRepository) DeleteCommentsByAnnouncement(ctx context.Context, announcementID int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM comment WHERE announcement_id = $1`, announcementID)
	return err
}

func (repo *contentRepository) DeleteCommentsByAssignment(ctx context.Context, assignmentID int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM comment WHERE assignment_id = $1`, assignmentID)
	return err
}

func (repo *contentRepository) DeleteCommentsBySubmission(ctx context.Context, submissionID int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM comment WHERE submission_id = $1`, submissionID)
	return err
}

func (repo *contentRepository) ClearCommentSubmission(ctx context.Context, submissionID int) error {
	_, err := repo.q.ExecContext(ctx, `UPDATE comment SET submission_id = NULL WHERE submission_id = $1`, submissionID)
	return err
}

func (repo *contentRepository) DeleteCommentsByAuthor(ctx context.Context, userIDs ...int) error {
	if len(userIDs) == 0 {
		return nil
	}
	q, args, err := inQuery(repo.q, `DELETE FROM comment WHERE author_id IN (?)`, userIDs)
	if err != nil {
		return err
	}
	_, err = repo.q.ExecContext(ctx, q, args...)
	return err
}

func (repo *contentRepository) ClearCommentTargets(ctx context.Context, userIDs ...int) error {
	if len(userIDs) == 0 {
		return nil
	}
	q, args, err := inQuery(repo.q, `UPDATE comment SET target_user_id = NULL WHERE target_user_id IN (?)`, userIDs)
	if err != nil {
		return err
	}
	_, err = repo.q.ExecContext(ctx, q, args...)
	return err
}

// Attachments

const selectAttachment = `SELECT id, parent, parent_id, type, title, url, video_id, file_name FROM attachment`

func (repo *contentRepository) CreateAttachment(ctx context.Context, att content.Attachment) (content.Attachment, error) {
	const q = `
INSERT INTO attachment (parent, parent_id, type, title, url, video_id, file_name)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.q.GetContext(ctx, &att.ID, q,
		string(att.Parent), att.ParentID, string(att.Type), att.Title,
		null.NewString(att.URL, att.URL != ""),
		null.NewString(att.VideoID, att.VideoID != ""),
		null.NewString(att.FileName, att.FileName != ""))
	if err != nil {
		return content.Attachment{}, err
	}
	return att, nil
}

func (repo *contentRepository) GetAttachment(ctx context.Context, id int) (content.Attachment, error) {
	var row attachmentRow
	if err := repo.q.GetContext(ctx, &row, selectAttachment+` WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return content.Attachment{}, content.ErrAttachmentNotFound
		}
		return content.Attachment{}, err
	}
	return row.toAttachment(), nil
}

func (repo *contentRepository) DeleteAttachment(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	return err
}

func (repo *contentRepository) QueryAttachments(ctx context.Context, parent content.ParentKind, parentID int) ([]content.Attachment, error) {
	var rows []attachmentRow
	const q = selectAttachment + ` WHERE parent = $1 AND parent_id = $2 ORDER BY id`
	if err := repo.q.SelectContext(ctx, &rows, q, string(parent), parentID); err != nil {
		return nil, err
	}
	atts := make([]content.Attachment, len(rows))
	for i, r := range rows {
		atts[i] = r.toAttachment()
	}
	return atts, nil
}
