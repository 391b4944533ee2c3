package dummydb

import (
	"context"
	"sort"

	"github.com/mawazo/darasa/core/classroom"
)

type classroomRepository struct {
	class      *classTable
	enrollment *enrollmentTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{class: db.class, enrollment: db.enrollment}
}

func (repo *classroomRepository) Atomic(ctx context.Context, fn func(repo classroom.Repository) error) error {
	return fn(repo)
}

func (repo *classroomRepository) CreateClass(ctx context.Context, class classroom.Class) (classroom.Class, error) {
	repo.class.Lock()
	defer repo.class.Unlock()

	repo.class.pkCount++
	class.ID = repo.class.pkCount
	repo.class.table[class.ID] = &class
	return class, nil
}

func (repo *classroomRepository) GetClassByID(ctx context.Context, id int) (classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	if class, ok := repo.class.table[id]; ok {
		return *class, nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classroomRepository) GetClassByJoinCode(ctx context.Context, code string) (classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	for _, class := range repo.class.table {
		if class.JoinCode == code {
			return *class, nil
		}
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classroomRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	for _, class := range repo.class.table {
		if class.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *classroomRepository) UpdateClass(ctx context.Context, class classroom.Class) (classroom.Class, error) {
	repo.class.Lock()
	defer repo.class.Unlock()

	orig, ok := repo.class.table[class.ID]
	if !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	orig.Name = class.Name
	orig.Description = class.Description
	orig.ImageURL = class.ImageURL
	return *orig, nil
}

func (repo *classroomRepository) SetClassBlocked(ctx context.Context, id int, blocked bool) error {
	repo.class.Lock()
	defer repo.class.Unlock()

	class, ok := repo.class.table[id]
	if !ok {
		return classroom.ErrNotFound
	}
	class.Blocked = blocked
	return nil
}

func (repo *classroomRepository) SetClassStatus(ctx context.Context, id int, status classroom.Status) error {
	repo.class.Lock()
	defer repo.class.Unlock()

	class, ok := repo.class.table[id]
	if !ok {
		return classroom.ErrNotFound
	}
	class.Status = status
	return nil
}

func (repo *classroomRepository) CreateEnrollment(ctx context.Context, enr classroom.Enrollment) (classroom.Enrollment, error) {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	for _, e := range repo.enrollment.table {
		if e.UserID == enr.UserID && e.ClassID == enr.ClassID {
			return classroom.Enrollment{}, classroom.ErrAlreadyEnrolled
		}
	}

	repo.enrollment.pkCount++
	enr.ID = repo.enrollment.pkCount
	repo.enrollment.table[enr.ID] = &enr
	return enr, nil
}

func (repo *classroomRepository) GetEnrollment(ctx context.Context, userID, classID int) (classroom.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	for _, enr := range repo.enrollment.table {
		if enr.UserID == userID && enr.ClassID == classID {
			return *enr, nil
		}
	}
	return classroom.Enrollment{}, classroom.ErrNotMember
}

func (repo *classroomRepository) DeleteEnrollment(ctx context.Context, id int) error {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()
	delete(repo.enrollment.table, id)
	return nil
}

func (repo *classroomRepository) QueryClassEnrollments(ctx context.Context, classID int) ([]classroom.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	var enrs []classroom.Enrollment
	for _, enr := range repo.enrollment.table {
		if enr.ClassID == classID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].ID < enrs[j].ID })
	return enrs, nil
}

func (repo *classroomRepository) QueryUserClasses(ctx context.Context, userID int) ([]classroom.Class, error) {
	repo.enrollment.RLock()
	var classIDs []int
	for _, enr := range repo.enrollment.table {
		if enr.UserID == userID {
			classIDs = append(classIDs, enr.ClassID)
		}
	}
	repo.enrollment.RUnlock()
	sort.Ints(classIDs)

	repo.class.RLock()
	defer repo.class.RUnlock()
	classes := make([]classroom.Class, 0, len(classIDs))
	for _, id := range classIDs {
		if class, ok := repo.class.table[id]; ok {
			classes = append(classes, *class)
		}
	}
	return classes, nil
}

func (repo *classroomRepository) ClassesOwnedBy(ctx context.Context, userIDs ...int) (map[int][]classroom.Class, error) {
	repo.class.RLock()
	defer repo.class.RUnlock()

	owned := make(map[int][]classroom.Class)
	for _, userID := range userIDs {
		for _, class := range repo.class.table {
			if class.OwnerID == userID {
				owned[userID] = append(owned[userID], *class)
			}
		}
	}
	return owned, nil
}

func (repo *classroomRepository) DeleteEnrollmentsByUser(ctx context.Context, userIDs ...int) error {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	for id, enr := range repo.enrollment.table {
		for _, userID := range userIDs {
			if enr.UserID == userID {
				delete(repo.enrollment.table, id)
				break
			}
		}
	}
	return nil
}
