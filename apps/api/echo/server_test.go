package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/classroom"
	"github.com/mawazo/darasa/core/content"
	"github.com/mawazo/darasa/core/user"
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

type testApp struct {
	app        Server
	usrSvc     *user.Service
	classSvc   *classroom.Service
	contentSvc *content.Service
	store      *files.DummyStorage
}

func newTestApp(t *testing.T) *testApp {
	db, err := dummydb.Open()
	require.NoError(t, err)

	store := files.NewDummyStorage()
	classSvc := classroom.NewService(dummydb.NewClassroomRepository(db))
	contentSvc := content.NewService(
		dummydb.NewContentRepository(db), classSvc,
		store, emailsvc.NewConsoleServiceMock(), nopLogger{},
	)
	usrSvc := user.NewService(dummydb.NewUserRepository(db), classSvc, contentSvc)
	contentSvc.SetUserDirectory(usrSvc)

	app := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         nopLogger{},
		Files:          store,
		UserSvc:        usrSvc,
		ClassSvc:       classSvc,
		ContentSvc:     contentSvc,
	})
	return &testApp{app: app, usrSvc: usrSvc, classSvc: classSvc, contentSvc: contentSvc, store: store}
}

func (ta *testApp) createUser(t *testing.T, name, uname, email string, isAdmin bool) user.User {
	usr, err := ta.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        "LePassword",
		PasswordConfirm: "LePassword",
		IsAdmin:         isAdmin,
	})
	require.NoError(t, err)
	return usr
}

func (ta *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestServer_home(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.request(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_authRequired(t *testing.T) {
	ta := newTestApp(t)

	for _, path := range []string{"/v1/users/me", "/v1/classes", "/v1/announcements?class_id=1"} {
		rec := ta.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestServer_login(t *testing.T) {
	ta := newTestApp(t)
	usr := ta.createUser(t, "Login User", "loginusr", "login@test.cd", false)

	t.Run("bad credentials", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "loginusr", Password: "wrong"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "loginusr"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		deactivated := ta.createUser(t, "Ghost", "ghostly", "ghost@test.cd", false)
		f := false
		_, err := ta.usrSvc.Update(context.Background(), deactivated.ID, user.UpdateUser{IsActive: &f})
		require.NoError(t, err)

		rec := ta.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "ghostly", Password: "LePassword"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ok, token works", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "loginusr", Password: "LePassword"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		decodeBody(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		rec = ta.request(t, http.MethodGet, "/v1/users/me", resp.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me user.User
		decodeBody(t, rec, &me)
		assert.Equal(t, usr.ID, me.ID)
	})
}

func TestServer_adminEndpoints(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.createUser(t, "Admin", "admin1", "admin@test.cd", true)
	pleb := ta.createUser(t, "Pleb", "plebby", "pleb@test.cd", false)

	t.Run("admin required", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/v1/users", getToken(t, pleb), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/v1/users", getToken(t, admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var usrs []user.User
		decodeBody(t, rec, &usrs)
		assert.Len(t, usrs, 2)
	})

	t.Run("admin cannot delete self", func(t *testing.T) {
		path := fmt.Sprintf("/v1/users?id=%d&id=%d", admin.ID, pleb.ID)
		rec := ta.request(t, http.MethodDelete, path, getToken(t, admin), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("register validates payload", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/users/register", getToken(t, admin), user.NewUser{Name: "No Email"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric id is a 404", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/v1/users/lol", getToken(t, admin), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_classLifecycle(t *testing.T) {
	ta := newTestApp(t)
	teacher := ta.createUser(t, "Teacher", "teache", "teacher@test.cd", false)
	student := ta.createUser(t, "Student", "studen", "student@test.cd", false)
	teacherTok := getToken(t, teacher)
	studentTok := getToken(t, student)

	var class classroom.Class
	t.Run("create", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/classes", teacherTok, classroom.NewClass{Name: "Go 101"})
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeBody(t, rec, &class)
		assert.NotEmpty(t, class.JoinCode)
	})

	t.Run("outsider cannot read", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, fmt.Sprintf("/v1/classes/%d", class.ID), studentTok, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("join", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/classes/join", studentTok, JoinRequest{JoinCode: class.JoinCode})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/classes/%d", class.ID), studentTok, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad join code is a 400", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/classes/join", studentTok, JoinRequest{JoinCode: "NOPE42"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed join code rejected before lookup", func(t *testing.T) {
		for _, code := range []string{"abc", "TOOLONG1", "AB-CDE", ""} {
			rec := ta.request(t, http.MethodPost, "/v1/classes/join", studentTok, JoinRequest{JoinCode: code})
			assert.Equal(t, http.StatusBadRequest, rec.Code, code)
		}
	})

	t.Run("members", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, fmt.Sprintf("/v1/classes/%d/members", class.ID), studentTok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var members []classroom.Enrollment
		decodeBody(t, rec, &members)
		assert.Len(t, members, 2)
	})

	t.Run("blocked class returns 423 on writes", func(t *testing.T) {
		rec := ta.request(t, http.MethodPut, fmt.Sprintf("/v1/classes/%d/blocked", class.ID), teacherTok, BlockRequest{Blocked: true})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = ta.request(t, http.MethodPost, "/v1/announcements", studentTok, NewAnnouncementRequest{
			ClassID:         class.ID,
			NewAnnouncement: content.NewAnnouncement{Content: "hello?"},
		})
		assert.Equal(t, http.StatusLocked, rec.Code)

		// reads still fine
		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/announcements?class_id=%d", class.ID), studentTok, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = ta.request(t, http.MethodPut, fmt.Sprintf("/v1/classes/%d/blocked", class.ID), teacherTok, BlockRequest{Blocked: false})
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("student leaves, teacher cannot", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, fmt.Sprintf("/v1/classes/%d/leave", class.ID), teacherTok, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ta.request(t, http.MethodPost, fmt.Sprintf("/v1/classes/%d/leave", class.ID), studentTok, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("soft delete hides the class", func(t *testing.T) {
		rec := ta.request(t, http.MethodDelete, fmt.Sprintf("/v1/classes/%d", class.ID), teacherTok, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/classes/%d", class.ID), teacherTok, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_contentFlow(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	teacher := ta.createUser(t, "Teacher", "teache", "teacher@test.cd", false)
	student := ta.createUser(t, "Student", "studen", "student@test.cd", false)
	teacherTok := getToken(t, teacher)
	studentTok := getToken(t, student)

	class, err := ta.classSvc.Create(ctx, teacher.ID, classroom.NewClass{Name: "Go 102"})
	require.NoError(t, err)
	_, err = ta.classSvc.Join(ctx, student.ID, class.JoinCode)
	require.NoError(t, err)

	var asg content.Assignment
	t.Run("teacher creates assignment", func(t *testing.T) {
		due := time.Now().UTC().Add(48 * time.Hour)
		rec := ta.request(t, http.MethodPost, "/v1/assignments", teacherTok, NewAssignmentRequest{
			ClassID:       class.ID,
			NewAssignment: content.NewAssignment{Title: "hw1", DueDate: &due},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeBody(t, rec, &asg)
	})

	t.Run("student cannot create assignment", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/assignments", studentTok, NewAssignmentRequest{
			ClassID:       class.ID,
			NewAssignment: content.NewAssignment{Title: "rogue hw"},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unpublished assignment hidden from students", func(t *testing.T) {
		publishAt := time.Now().UTC().Add(24 * time.Hour)
		rec := ta.request(t, http.MethodPost, "/v1/assignments", teacherTok, NewAssignmentRequest{
			ClassID:       class.ID,
			NewAssignment: content.NewAssignment{Title: "surprise", PublishAt: &publishAt},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var hidden content.Assignment
		decodeBody(t, rec, &hidden)

		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/assignments/%d", hidden.ID), studentTok, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/assignments/%d", hidden.ID), teacherTok, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid schedule is a 400", func(t *testing.T) {
		past := time.Now().UTC().Add(-2 * time.Hour)
		rec := ta.request(t, http.MethodPost, "/v1/assignments", teacherTok, NewAssignmentRequest{
			ClassID:       class.ID,
			NewAssignment: content.NewAssignment{Title: "hw", PublishAt: &past},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var sub content.Submission
	t.Run("student submits, teacher cannot", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, fmt.Sprintf("/v1/assignments/%d/submission", asg.ID), teacherTok, content.NewSubmission{})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ta.request(t, http.MethodPost, fmt.Sprintf("/v1/assignments/%d/submission", asg.ID), studentTok, content.NewSubmission{})
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeBody(t, rec, &sub)
	})

	t.Run("grade", func(t *testing.T) {
		score := 90
		rec := ta.request(t, http.MethodPut, fmt.Sprintf("/v1/submissions/%d/grade", sub.ID), studentTok, content.GradeSubmission{Score: &score})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		bad := 150
		rec = ta.request(t, http.MethodPut, fmt.Sprintf("/v1/submissions/%d/grade", sub.ID), teacherTok, content.GradeSubmission{Score: &bad})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ta.request(t, http.MethodPut, fmt.Sprintf("/v1/submissions/%d/grade", sub.ID), teacherTok, content.GradeSubmission{Score: &score, Feedback: "nice"})
		require.Equal(t, http.StatusOK, rec.Code)
		var graded content.Submission
		decodeBody(t, rec, &graded)
		require.NotNil(t, graded.Score)
		assert.Equal(t, 90, *graded.Score)
	})

	t.Run("comments", func(t *testing.T) {
		asgID := asg.ID
		rec := ta.request(t, http.MethodPost, "/v1/comments", studentTok, content.NewComment{
			ClassID:      class.ID,
			AssignmentID: &asgID,
			Content:      "when is this due?",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var cmt content.Comment
		decodeBody(t, rec, &cmt)

		// no parent at all
		rec = ta.request(t, http.MethodPost, "/v1/comments", studentTok, content.NewComment{
			ClassID: class.ID,
			Content: "floating",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ta.request(t, http.MethodGet, fmt.Sprintf("/v1/comments?class_id=%d&assignment_id=%d", class.ID, asg.ID), teacherTok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var cmts []content.Comment
		decodeBody(t, rec, &cmts)
		assert.Len(t, cmts, 1)

		// students cannot edit comments
		rec = ta.request(t, http.MethodPut, fmt.Sprintf("/v1/comments/%d", cmt.ID), studentTok, UpdateCommentRequest{Content: "edited"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		// the author deletes their own
		rec = ta.request(t, http.MethodDelete, fmt.Sprintf("/v1/comments/%d", cmt.ID), studentTok, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown assignment is a 404", func(t *testing.T) {
		rec := ta.request(t, http.MethodGet, "/v1/assignments/424242", teacherTok, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_shutdownOnIntegrityError(t *testing.T) {
	var signaled bool
	handler := newAppHTTPErrorHandler(nopLogger{}, func() { signaled = true })

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(core.NewShutdownError("database integrity issue"), e.NewContext(req, rec))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, signaled)

	t.Run("signal reaches the shutdown channel", func(t *testing.T) {
		ta := newTestApp(t)
		srv := ta.app.(*server)

		srv.signalShutdown()
		srv.signalShutdown() // a second signal must not block

		select {
		case sig := <-ta.app.ShutdownSignal():
			assert.Equal(t, syscall.SIGTERM, sig)
		default:
			t.Fatal("no shutdown signal delivered")
		}
	})
}

func TestServer_uploads(t *testing.T) {
	ta := newTestApp(t)
	usr := ta.createUser(t, "Uploader", "upload1", "upload@test.cd", false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("file content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+getToken(t, usr))
	rec := httptest.NewRecorder()
	ta.app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp UploadResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "report.pdf", resp.FileName)
	assert.Contains(t, ta.store.Objects, resp.URL)

	t.Run("missing file part", func(t *testing.T) {
		rec := ta.request(t, http.MethodPost, "/v1/uploads", getToken(t, usr), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
