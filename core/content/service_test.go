package content_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/classroom"
	"github.com/mawazo/darasa/core/content"
	emailsvc "github.com/mawazo/darasa/services/email"
	dummydb "github.com/mawazo/darasa/storage/database/dummy"
	"github.com/mawazo/darasa/storage/files"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	svc       *content.Service
	repo      content.Repository
	classSvc  *classroom.Service
	classRepo classroom.Repository
	store     *files.DummyStorage

	teacher  int
	student  int
	student2 int
	outsider int
	class    classroom.Class
}

func setup(t *testing.T) *fixture {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	classRepo := dummydb.NewClassroomRepository(db)
	classSvc := classroom.NewService(classRepo)
	repo := dummydb.NewContentRepository(db)
	store := files.NewDummyStorage()
	svc := content.NewService(repo, classSvc, store, emailsvc.NewConsoleServiceMock(), nopLogger{})

	f := &fixture{
		svc:       svc,
		repo:      repo,
		classSvc:  classSvc,
		classRepo: classRepo,
		store:     store,
		teacher:   1,
		student:   2,
		student2:  3,
		outsider:  9,
	}

	ctx := context.Background()
	f.class, err = classSvc.Create(ctx, f.teacher, classroom.NewClass{Name: "Go 101"})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	for _, id := range []int{f.student, f.student2} {
		_, err = classRepo.CreateEnrollment(ctx, classroom.Enrollment{
			UserID:   id,
			ClassID:  f.class.ID,
			Role:     classroom.RoleStudent,
			JoinedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("setup() failed: %v", err)
		}
	}
	return f
}

func (f *fixture) announce(t *testing.T, authorID int, text string) content.Announcement {
	ann, err := f.svc.CreateAnnouncement(context.Background(), authorID, f.class.ID, content.NewAnnouncement{Content: text})
	if err != nil {
		t.Fatalf("announce() failed: %v", err)
	}
	return ann
}

func (f *fixture) assign(t *testing.T, na content.NewAssignment) content.Assignment {
	asg, err := f.svc.CreateAssignment(context.Background(), f.teacher, f.class.ID, na)
	if err != nil {
		t.Fatalf("assign() failed: %v", err)
	}
	return asg
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(i int) *int              { return &i }

func TestService_blockedClassRejectsWrites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asg := f.assign(t, content.NewAssignment{Title: "hw1"})
	ann := f.announce(t, f.teacher, "before the freeze")

	require.NoError(t, f.classSvc.SetBlocked(ctx, f.teacher, f.class.ID, true))

	_, err := f.svc.CreateAnnouncement(ctx, f.teacher, f.class.ID, content.NewAnnouncement{Content: "hi"})
	assert.ErrorIs(t, err, classroom.ErrClassBlocked)

	_, err = f.svc.CreateAssignment(ctx, f.teacher, f.class.ID, content.NewAssignment{Title: "hw2"})
	assert.ErrorIs(t, err, classroom.ErrClassBlocked)

	_, err = f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
	assert.ErrorIs(t, err, classroom.ErrClassBlocked)

	_, err = f.svc.CreateComment(ctx, f.student, content.NewComment{
		ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "hey",
	})
	assert.ErrorIs(t, err, classroom.ErrClassBlocked)

	err = f.svc.DeleteAnnouncement(ctx, f.teacher, ann.ID)
	assert.ErrorIs(t, err, classroom.ErrClassBlocked)

	// reads keep working
	anns, err := f.svc.ListAnnouncements(ctx, f.student, f.class.ID)
	require.NoError(t, err)
	assert.Len(t, anns, 1)
	_, _, err = f.svc.GetAssignment(ctx, f.student, asg.ID)
	assert.NoError(t, err)
}

func TestService_announcements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("any member may post", func(t *testing.T) {
		f.announce(t, f.teacher, "welcome")
		f.announce(t, f.student, "hello all")

		_, err := f.svc.CreateAnnouncement(ctx, f.outsider, f.class.ID, content.NewAnnouncement{Content: "spam"})
		assert.ErrorIs(t, err, classroom.ErrNotMember)
	})

	t.Run("content required", func(t *testing.T) {
		_, err := f.svc.CreateAnnouncement(ctx, f.teacher, f.class.ID, content.NewAnnouncement{Content: "  "})
		assert.Error(t, err)
	})

	t.Run("attachments stored with the announcement", func(t *testing.T) {
		ann, err := f.svc.CreateAnnouncement(ctx, f.teacher, f.class.ID, content.NewAnnouncement{
			Content: "read this",
			Attachments: []content.NewAttachment{
				{Type: content.AttachmentLink, URL: "https://go.dev"},
				{Type: content.AttachmentYouTube, Title: "intro", VideoID: "dQw4w9WgXcQ"},
			},
		})
		require.NoError(t, err)

		got, atts, err := f.svc.GetAnnouncement(ctx, f.student, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, ann.ID, got.ID)
		require.Len(t, atts, 2)
		// a link with no title takes its URL as title
		assert.Equal(t, "https://go.dev", atts[0].Title)
	})

	t.Run("update is teacher only", func(t *testing.T) {
		ann := f.announce(t, f.student, "typo herre")

		_, err := f.svc.UpdateAnnouncement(ctx, f.student, ann.ID, content.UpdateAnnouncement{Content: "typo here"})
		assert.ErrorIs(t, err, content.ErrPermissionDenied)

		updated, err := f.svc.UpdateAnnouncement(ctx, f.teacher, ann.ID, content.UpdateAnnouncement{Content: "typo here"})
		require.NoError(t, err)
		assert.Equal(t, "typo here", updated.Content)
	})

	t.Run("delete allowed for author or teacher", func(t *testing.T) {
		ann := f.announce(t, f.student, "mine")
		assert.ErrorIs(t, f.svc.DeleteAnnouncement(ctx, f.student2, ann.ID), content.ErrPermissionDenied)
		require.NoError(t, f.svc.DeleteAnnouncement(ctx, f.student, ann.ID))

		ann = f.announce(t, f.student, "moderated")
		require.NoError(t, f.svc.DeleteAnnouncement(ctx, f.teacher, ann.ID))

		_, _, err := f.svc.GetAnnouncement(ctx, f.teacher, ann.ID)
		assert.ErrorIs(t, err, content.ErrAnnouncementNotFound)
	})

	t.Run("listing needs membership", func(t *testing.T) {
		_, err := f.svc.ListAnnouncements(ctx, f.outsider, f.class.ID)
		assert.ErrorIs(t, err, classroom.ErrNotMember)
	})
}

func TestService_assignmentScheduling(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	restore := content.MockTimeNow(func() time.Time { return now })
	defer restore()

	t.Run("student cannot create", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, f.student, f.class.ID, content.NewAssignment{Title: "hw"})
		assert.ErrorIs(t, err, content.ErrPermissionDenied)
	})

	t.Run("publish defaults to now", func(t *testing.T) {
		asg := f.assign(t, content.NewAssignment{Title: "hw1"})
		assert.Equal(t, now, asg.PublishAt)
		assert.True(t, asg.PublishedAt(now))
	})

	t.Run("publish in the past rejected", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, f.teacher, f.class.ID, content.NewAssignment{
			Title:     "hw",
			PublishAt: timePtr(now.Add(-time.Hour)),
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("slight clock skew tolerated", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, f.teacher, f.class.ID, content.NewAssignment{
			Title:     "hw skew",
			PublishAt: timePtr(now.Add(-30 * time.Second)),
		})
		assert.NoError(t, err)
	})

	t.Run("due date must follow publish", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, f.teacher, f.class.ID, content.NewAssignment{
			Title:     "hw",
			PublishAt: timePtr(now.Add(time.Hour)),
			DueDate:   timePtr(now.Add(30 * time.Minute)),
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("students cannot see unpublished", func(t *testing.T) {
		hidden := f.assign(t, content.NewAssignment{Title: "surprise quiz", PublishAt: timePtr(now.Add(24 * time.Hour))})

		_, _, err := f.svc.GetAssignment(ctx, f.student, hidden.ID)
		assert.ErrorIs(t, err, content.ErrAssignmentNotPublished)

		_, _, err = f.svc.GetAssignment(ctx, f.teacher, hidden.ID)
		assert.NoError(t, err)

		forStudent, err := f.svc.ListAssignments(ctx, f.student, f.class.ID)
		require.NoError(t, err)
		for _, asg := range forStudent {
			assert.NotEqual(t, hidden.ID, asg.ID)
		}

		forTeacher, err := f.svc.ListAssignments(ctx, f.teacher, f.class.ID)
		require.NoError(t, err)
		assert.Greater(t, len(forTeacher), len(forStudent))
	})

	t.Run("update keeps title when blank", func(t *testing.T) {
		asg := f.assign(t, content.NewAssignment{Title: "keep me"})
		updated, err := f.svc.UpdateAssignment(ctx, f.teacher, asg.ID, content.UpdateAssignment{Description: "more detail"})
		require.NoError(t, err)
		assert.Equal(t, "keep me", updated.Title)
		assert.Equal(t, "more detail", updated.Description)
	})

	t.Run("update keeps due date when omitted, clears it when asked", func(t *testing.T) {
		asg := f.assign(t, content.NewAssignment{Title: "deadline", DueDate: timePtr(now.Add(24 * time.Hour))})

		updated, err := f.svc.UpdateAssignment(ctx, f.teacher, asg.ID, content.UpdateAssignment{Description: "detail"})
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, now.Add(24*time.Hour), *updated.DueDate)

		updated, err = f.svc.UpdateAssignment(ctx, f.teacher, asg.ID, content.UpdateAssignment{ClearDueDate: true})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
	})
}

func TestService_submissions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	restore := content.MockTimeNow(func() time.Time { return now })
	defer restore()

	asg := f.assign(t, content.NewAssignment{Title: "essay", DueDate: timePtr(now.Add(48 * time.Hour))})

	t.Run("teacher cannot submit", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, f.teacher, asg.ID, content.NewSubmission{})
		assert.ErrorIs(t, err, content.ErrPermissionDenied)
	})

	t.Run("unpublished assignment rejects submissions", func(t *testing.T) {
		hidden := f.assign(t, content.NewAssignment{Title: "later", PublishAt: timePtr(now.Add(time.Hour))})
		_, err := f.svc.Submit(ctx, f.student, hidden.ID, content.NewSubmission{})
		assert.ErrorIs(t, err, content.ErrAssignmentNotPublished)
	})

	t.Run("submit then resubmit upserts", func(t *testing.T) {
		sub, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{
			Attachments: []content.NewAttachment{{Type: content.AttachmentLink, URL: "https://example.com/v1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, now, sub.SubmittedAt)

		now = now.Add(time.Hour)
		again, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{
			Attachments: []content.NewAttachment{{Type: content.AttachmentLink, URL: "https://example.com/v2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, sub.ID, again.ID)
		assert.Equal(t, now, again.SubmittedAt)

		_, atts, err := f.svc.GetOwnSubmission(ctx, f.student, asg.ID)
		require.NoError(t, err)
		assert.Len(t, atts, 2)
	})

	t.Run("listing is scoped by role", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, f.student2, asg.ID, content.NewSubmission{})
		require.NoError(t, err)

		all, err := f.svc.ListSubmissions(ctx, f.teacher, asg.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		own, err := f.svc.ListSubmissions(ctx, f.student, asg.ID)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, f.student, own[0].StudentID)
	})

	t.Run("past due rejects submit and unsubmit", func(t *testing.T) {
		now = now.Add(72 * time.Hour)

		_, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.ErrorIs(t, vErr.Err, content.ErrPastDue)

		err = f.svc.Unsubmit(ctx, f.student, asg.ID)
		require.ErrorAs(t, err, &vErr)

		now = now.Add(-72 * time.Hour)
	})

}

// racingRepo simulates a concurrent submit: the first lookup misses even
// though the row lands before the insert, so the create path hits the
// duplicate key.
type racingRepo struct {
	content.Repository
	misses int
}

func (r *racingRepo) Atomic(ctx context.Context, fn func(repo content.Repository) error) error {
	return r.Repository.Atomic(ctx, func(content.Repository) error { return fn(r) })
}

func (r *racingRepo) GetSubmission(ctx context.Context, assignmentID, studentID int) (content.Submission, error) {
	if r.misses > 0 {
		r.misses--
		return content.Submission{}, content.ErrSubmissionNotFound
	}
	return r.Repository.GetSubmission(ctx, assignmentID, studentID)
}

func TestService_submitLostRaceFallsBackToUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asg := f.assign(t, content.NewAssignment{Title: "hw"})

	first, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
	require.NoError(t, err)

	racing := &racingRepo{Repository: f.repo, misses: 1}
	svc := content.NewService(racing, f.classSvc, f.store, emailsvc.NewConsoleServiceMock(), nopLogger{})

	second, err := svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	subs, err := f.repo.QueryAssignmentSubmissions(ctx, asg.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestService_unsubmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	restore := content.MockTimeNow(func() time.Time { return now })
	defer restore()

	asg := f.assign(t, content.NewAssignment{Title: "lab", DueDate: timePtr(now.Add(24 * time.Hour))})

	url, err := f.store.Save(ctx, strings.NewReader("file content"), "report.pdf")
	require.NoError(t, err)

	sub, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{
		Attachments: []content.NewAttachment{{Type: content.AttachmentFile, Title: "report", URL: url, FileName: "report.pdf"}},
	})
	require.NoError(t, err)

	cmt, err := f.svc.CreateComment(ctx, f.teacher, content.NewComment{
		ClassID:      f.class.ID,
		AssignmentID: intPtr(asg.ID),
		SubmissionID: intPtr(sub.ID),
		Content:      "looks short",
	})
	require.NoError(t, err)
	require.NotNil(t, cmt.SubmissionID)

	require.NoError(t, f.svc.Unsubmit(ctx, f.student, asg.ID))

	_, _, err = f.svc.GetOwnSubmission(ctx, f.student, asg.ID)
	assert.ErrorIs(t, err, content.ErrSubmissionNotFound)

	// the stored file went with it
	assert.Contains(t, f.store.Deleted, url)

	// the comment survives on the assignment
	kept, err := f.repo.GetComment(ctx, cmt.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.SubmissionID)
	require.NotNil(t, kept.AssignmentID)
	assert.Equal(t, asg.ID, *kept.AssignmentID)
}

func TestService_grading(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asg := f.assign(t, content.NewAssignment{Title: "quiz"})
	sub, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
	require.NoError(t, err)

	t.Run("students cannot grade", func(t *testing.T) {
		_, err := f.svc.Grade(ctx, f.student, sub.ID, content.GradeSubmission{Score: intPtr(100)})
		assert.ErrorIs(t, err, content.ErrPermissionDenied)
	})

	t.Run("score range enforced", func(t *testing.T) {
		var vErr *core.ValidationError
		_, err := f.svc.Grade(ctx, f.teacher, sub.ID, content.GradeSubmission{Score: intPtr(101)})
		require.ErrorAs(t, err, &vErr)
		_, err = f.svc.Grade(ctx, f.teacher, sub.ID, content.GradeSubmission{Score: intPtr(-1)})
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("grade sticks", func(t *testing.T) {
		graded, err := f.svc.Grade(ctx, f.teacher, sub.ID, content.GradeSubmission{Score: intPtr(85), Feedback: "solid"})
		require.NoError(t, err)
		require.NotNil(t, graded.Score)
		assert.Equal(t, 85, *graded.Score)
		assert.Equal(t, "solid", graded.TeacherFeedback)
	})
}

func TestService_comments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ann := f.announce(t, f.teacher, "discuss below")
	asg := f.assign(t, content.NewAssignment{Title: "hw"})

	t.Run("scope must be exactly one parent", func(t *testing.T) {
		var vErr *core.ValidationError
		_, err := f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, Content: "orphan",
		})
		require.ErrorAs(t, err, &vErr)

		_, err = f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), AssignmentID: intPtr(asg.ID), Content: "both",
		})
		require.ErrorAs(t, err, &vErr)

		_, err = f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), SubmissionID: intPtr(1), Content: "nope",
		})
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("parent must live in the class", func(t *testing.T) {
		other, err := f.classSvc.Create(ctx, f.teacher, classroom.NewClass{Name: "Other"})
		require.NoError(t, err)
		otherAnn, err := f.svc.CreateAnnouncement(ctx, f.teacher, other.ID, content.NewAnnouncement{Content: "elsewhere"})
		require.NoError(t, err)

		_, err = f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(otherAnn.ID), Content: "cross-class",
		})
		assert.ErrorIs(t, err, content.ErrAnnouncementNotFound)
	})

	t.Run("dangling submission link is dropped", func(t *testing.T) {
		cmt, err := f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID:      f.class.ID,
			AssignmentID: intPtr(asg.ID),
			SubmissionID: intPtr(424242),
			Content:      "where is it",
		})
		require.NoError(t, err)
		assert.Nil(t, cmt.SubmissionID)
	})

	t.Run("only a teacher may edit, and only their own", func(t *testing.T) {
		studentCmt, err := f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "my coment",
		})
		require.NoError(t, err)
		teacherCmt, err := f.svc.CreateComment(ctx, f.teacher, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "note",
		})
		require.NoError(t, err)

		_, err = f.svc.UpdateComment(ctx, f.student, studentCmt.ID, "my comment")
		assert.ErrorIs(t, err, content.ErrPermissionDenied)

		_, err = f.svc.UpdateComment(ctx, f.teacher, studentCmt.ID, "fixed for you")
		assert.ErrorIs(t, err, content.ErrPermissionDenied)

		updated, err := f.svc.UpdateComment(ctx, f.teacher, teacherCmt.ID, "amended note")
		require.NoError(t, err)
		assert.Equal(t, "amended note", updated.Content)
	})

	t.Run("delete rules", func(t *testing.T) {
		studentCmt, err := f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "delete me",
		})
		require.NoError(t, err)

		// another student cannot
		assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.student2, studentCmt.ID), content.ErrPermissionDenied)
		// the author can
		require.NoError(t, f.svc.DeleteComment(ctx, f.student, studentCmt.ID))

		// a teacher can moderate a student's comment
		studentCmt, err = f.svc.CreateComment(ctx, f.student, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "rude",
		})
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteComment(ctx, f.teacher, studentCmt.ID))

		// but not another teacher's
		_, err = f.classRepo.CreateEnrollment(ctx, classroom.Enrollment{
			UserID: 5, ClassID: f.class.ID, Role: classroom.RoleTeacher, JoinedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		otherTeacherCmt, err := f.svc.CreateComment(ctx, 5, content.NewComment{
			ClassID: f.class.ID, AnnouncementID: intPtr(ann.ID), Content: "colleague's",
		})
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.teacher, otherTeacherCmt.ID), content.ErrPermissionDenied)
	})

	t.Run("listings hide private comments", func(t *testing.T) {
		hw2 := f.assign(t, content.NewAssignment{Title: "hw2"})

		_, err := f.svc.CreateComment(ctx, f.teacher, content.NewComment{
			ClassID: f.class.ID, AssignmentID: intPtr(hw2.ID), Content: "public remark",
		})
		require.NoError(t, err)
		_, err = f.svc.CreateComment(ctx, f.teacher, content.NewComment{
			ClassID:      f.class.ID,
			AssignmentID: intPtr(hw2.ID),
			TargetUserID: intPtr(f.student),
			Content:      "private nudge",
			IsPrivate:    true,
		})
		require.NoError(t, err)

		cmts, err := f.svc.ListComments(ctx, f.student, content.CommentFilter{
			ClassID:      f.class.ID,
			AssignmentID: intPtr(hw2.ID),
		})
		require.NoError(t, err)
		require.Len(t, cmts, 1)
		assert.Equal(t, "public remark", cmts[0].Content)
	})
}

func TestService_deleteAssignmentCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	url, err := f.store.Save(ctx, strings.NewReader("file content"), "handout.pdf")
	require.NoError(t, err)
	subURL, err := f.store.Save(ctx, strings.NewReader("file content"), "answer.pdf")
	require.NoError(t, err)

	asg := f.assign(t, content.NewAssignment{
		Title:       "big project",
		Attachments: []content.NewAttachment{{Type: content.AttachmentFile, Title: "handout", URL: url, FileName: "handout.pdf"}},
	})
	sub, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{
		Attachments: []content.NewAttachment{{Type: content.AttachmentFile, Title: "answer", URL: subURL, FileName: "answer.pdf"}},
	})
	require.NoError(t, err)
	cmt, err := f.svc.CreateComment(ctx, f.teacher, content.NewComment{
		ClassID: f.class.ID, AssignmentID: intPtr(asg.ID), SubmissionID: intPtr(sub.ID), Content: "checking",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteAssignment(ctx, f.student, asg.ID), content.ErrPermissionDenied)
	require.NoError(t, f.svc.DeleteAssignment(ctx, f.teacher, asg.ID))

	_, err = f.repo.GetAssignment(ctx, asg.ID)
	assert.ErrorIs(t, err, content.ErrAssignmentNotFound)
	_, err = f.repo.GetSubmissionByID(ctx, sub.ID)
	assert.ErrorIs(t, err, content.ErrSubmissionNotFound)
	_, err = f.repo.GetComment(ctx, cmt.ID)
	assert.ErrorIs(t, err, content.ErrCommentNotFound)
	assert.Contains(t, f.store.Deleted, url)
	assert.Contains(t, f.store.Deleted, subURL)
}

func TestService_storageFailureDoesNotBlockDeletes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	url, err := f.store.Save(ctx, strings.NewReader("file content"), "notes.pdf")
	require.NoError(t, err)
	ann, err := f.svc.CreateAnnouncement(ctx, f.teacher, f.class.ID, content.NewAnnouncement{
		Content:     "with file",
		Attachments: []content.NewAttachment{{Type: content.AttachmentFile, Title: "notes", URL: url, FileName: "notes.pdf"}},
	})
	require.NoError(t, err)

	f.store.FailDeletes = true
	require.NoError(t, f.svc.DeleteAnnouncement(ctx, f.teacher, ann.ID))

	_, err = f.repo.GetAnnouncement(ctx, ann.ID)
	assert.ErrorIs(t, err, content.ErrAnnouncementNotFound)
	atts, err := f.repo.QueryAttachments(ctx, content.ParentAnnouncement, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestService_PurgeUserContent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ann := f.announce(t, f.student, "leaving soon")
	asg := f.assign(t, content.NewAssignment{Title: "hw"})
	sub, err := f.svc.Submit(ctx, f.student, asg.ID, content.NewSubmission{})
	require.NoError(t, err)

	cmt, err := f.svc.CreateComment(ctx, f.student, content.NewComment{
		ClassID: f.class.ID, AssignmentID: intPtr(asg.ID), Content: "my question",
	})
	require.NoError(t, err)
	targeted, err := f.svc.CreateComment(ctx, f.teacher, content.NewComment{
		ClassID:      f.class.ID,
		AssignmentID: intPtr(asg.ID),
		TargetUserID: intPtr(f.student),
		Content:      "about your work",
		IsPrivate:    true,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.PurgeUserContent(ctx, f.student))

	_, err = f.repo.GetAnnouncement(ctx, ann.ID)
	assert.ErrorIs(t, err, content.ErrAnnouncementNotFound)
	_, err = f.repo.GetSubmissionByID(ctx, sub.ID)
	assert.ErrorIs(t, err, content.ErrSubmissionNotFound)
	_, err = f.repo.GetComment(ctx, cmt.ID)
	assert.ErrorIs(t, err, content.ErrCommentNotFound)

	// comments aimed at the purged user survive, untargeted
	kept, err := f.repo.GetComment(ctx, targeted.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.TargetUserID)

	// the teacher's assignment is untouched
	_, err = f.repo.GetAssignment(ctx, asg.ID)
	assert.NoError(t, err)
}

