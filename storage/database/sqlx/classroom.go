package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/mawazo/darasa/core/classroom"
)

type classRow struct {
	ID          int         `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	ImageURL    null.String `db:"image_url"`
	Blocked     bool        `db:"blocked"`
	Status      string      `db:"status"`
	JoinCode    string      `db:"join_code"`
	OwnerID     int         `db:"owner_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r classRow) toClass() classroom.Class {
	return classroom.Class{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description.String,
		ImageURL:    r.ImageURL.String,
		Blocked:     r.Blocked,
		Status:      classroom.Status(r.Status),
		JoinCode:    r.JoinCode,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
	}
}

type enrollmentRow struct {
	ID       int       `db:"id"`
	UserID   int       `db:"user_id"`
	ClassID  int       `db:"class_id"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

func (r enrollmentRow) toEnrollment() classroom.Enrollment {
	return classroom.Enrollment{
		ID:       r.ID,
		UserID:   r.UserID,
		ClassID:  r.ClassID,
		Role:     classroom.Role(r.Role),
		JoinedAt: r.JoinedAt,
	}
}

type classroomRepository struct {
	db *sqlx.DB // nil inside a transaction
	q  queryer
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *sqlx.DB) classroom.Repository {
	return &classroomRepository{db: db, q: db}
}

func (repo *classroomRepository) Atomic(ctx context.Context, fn func(repo classroom.Repository) error) error {
	if repo.db == nil {
		// already inside a transaction; nested Atomic joins it
		return fn(repo)
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&classroomRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const selectClass = `SELECT id, name, description, image_url, blocked, status, join_code, owner_id, created_at FROM class`

func (repo *classroomRepository) CreateClass(ctx context.Context, class classroom.Class) (classroom.Class, error) {
	const q = `
INSERT INTO class (name, description, image_url, blocked, status, join_code, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.q.GetContext(ctx, &class.ID, q,
		class.Name, null.NewString(class.Description, class.Description != ""),
		null.NewString(class.ImageURL, class.ImageURL != ""),
		class.Blocked, string(class.Status), class.JoinCode, class.OwnerID, class.CreatedAt)
	if err != nil {
		return classroom.Class{}, err
	}
	return class, nil
}

func (repo *classroomRepository) getClass(ctx context.Context, query string, args ...interface{}) (classroom.Class, error) {
	var row classRow
	if err := repo.q.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return classroom.Class{}, classroom.ErrNotFound
		}
		return classroom.Class{}, err
	}
	return row.toClass(), nil
}

func (repo *classroomRepository) GetClassByID(ctx context.Context, id int) (classroom.Class, error) {
	return repo.getClass(ctx, selectClass+` WHERE id = $1`, id)
}

func (repo *classroomRepository) GetClassByJoinCode(ctx context.Context, code string) (classroom.Class, error) {
	return repo.getClass(ctx, selectClass+` WHERE join_code = $1`, code)
}

func (repo *classroomRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := repo.q.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM class WHERE join_code = $1)`, code)
	return exists, err
}

func (repo *classroomRepository) UpdateClass(ctx context.Context, class classroom.Class) (classroom.Class, error) {
	const q = `
UPDATE class SET name = $2, description = $3, image_url = $4
WHERE id = $1
RETURNING id, name, description, image_url, blocked, status, join_code, owner_id, created_at`
	var row classRow
	err := repo.q.GetContext(ctx, &row, q, class.ID,
		class.Name, null.NewString(class.Description, class.Description != ""),
		null.NewString(class.ImageURL, class.ImageURL != ""))
	if err != nil {
		if isNoRows(err) {
			return classroom.Class{}, classroom.ErrNotFound
		}
		return classroom.Class{}, err
	}
	return row.toClass(), nil
}

func (repo *classroomRepository) SetClassBlocked(ctx context.Context, id int, blocked bool) error {
	res, err := repo.q.ExecContext(ctx, `UPDATE class SET blocked = $2 WHERE id = $1`, id, blocked)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

func (repo *classroomRepository) SetClassStatus(ctx context.Context, id int, status classroom.Status) error {
	res, err := repo.q.ExecContext(ctx, `UPDATE class SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

func (repo *classroomRepository) CreateEnrollment(ctx context.Context, enr classroom.Enrollment) (classroom.Enrollment, error) {
	const q = `
INSERT INTO enrollment (user_id, class_id, role, joined_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.q.GetContext(ctx, &enr.ID, q, enr.UserID, enr.ClassID, string(enr.Role), enr.JoinedAt)
	if err != nil {
		if isUniqueViolation(err, "enrollment_user_id_class_id_key") {
			return classroom.Enrollment{}, classroom.ErrAlreadyEnrolled
		}
		return classroom.Enrollment{}, err
	}
	return enr, nil
}

func (repo *classroomRepository) GetEnrollment(ctx context.Context, userID, classID int) (classroom.Enrollment, error) {
	var row enrollmentRow
	const q = `SELECT id, user_id, class_id, role, joined_at FROM enrollment WHERE user_id = $1 AND class_id = $2`
	if err := repo.q.GetContext(ctx, &row, q, userID, classID); err != nil {
		if isNoRows(err) {
			return classroom.Enrollment{}, classroom.ErrNotMember
		}
		return classroom.Enrollment{}, err
	}
	return row.toEnrollment(), nil
}

func (repo *classroomRepository) DeleteEnrollment(ctx context.Context, id int) error {
	_, err := repo.q.ExecContext(ctx, `DELETE FROM enrollment WHERE id = $1`, id)
	return err
}

func (repo *classroomRepository) QueryClassEnrollments(ctx context.Context, classID int) ([]classroom.Enrollment, error) {
	var rows []enrollmentRow
	const q = `SELECT id, user_id, class_id, role, joined_at FROM enrollment WHERE class_id = $1 ORDER BY id`
	if err := repo.q.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, err
	}
	enrs := make([]classroom.Enrollment, len(rows))
	for i, r := range rows {
		enrs[i] = r.toEnrollment()
	}
	return enrs, nil
}

func (repo *classroomRepository) QueryUserClasses(ctx context.Context, userID int) ([]classroom.Class, error) {
	var rows []classRow
	const q = `
SELECT c.id, c.name, c.description, c.image_url, c.blocked, c.status, c.join_code, c.owner_id, c.created_at
FROM class c
JOIN enrollment e ON e.class_id = c.id
WHERE e.user_id = $1
ORDER BY c.id`
	if err := repo.q.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	classes := make([]classroom.Class, len(rows))
	for i, r := range rows {
		classes[i] = r.toClass()
	}
	return classes, nil
}

func (repo *classroomRepository) ClassesOwnedBy(ctx context.Context, userIDs ...int) (map[int][]classroom.Class, error) {
	if len(userIDs) == 0 {
		return map[int][]classroom.Class{}, nil
	}
	q, args, err := inQuery(repo.q, selectClass+` WHERE owner_id IN (?) ORDER BY id`, userIDs)
	if err != nil {
		return nil, err
	}
	var rows []classRow
	if err := repo.q.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	owned := make(map[int][]classroom.Class)
	for _, r := range rows {
		owned[r.OwnerID] = append(owned[r.OwnerID], r.toClass())
	}
	return owned, nil
}

func (repo *classroomRepository) DeleteEnrollmentsByUser(ctx context.Context, userIDs ...int) error {
	if len(userIDs) == 0 {
		return nil
	}
	q, args, err := inQuery(repo.q, `DELETE FROM enrollment WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return err
	}
	_, err = repo.q.ExecContext(ctx, q, args...)
	return err
}
