package dummydb

import (
	"sync"

	"github.com/mawazo/darasa/core/classroom"
	"github.com/mawazo/darasa/core/content"
	"github.com/mawazo/darasa/core/user"
)

// DB is an in-memory store for tests and local hacking. Each table carries
// its own lock and pk counter; there is no rollback, so Atomic on the content
// repository is plain sequencing.
type (
	DB struct {
		user       *userTable
		class      *classTable
		enrollment *enrollmentTable
		announce   *announcementTable
		assignment *assignmentTable
		submission *submissionTable
		comment    *commentTable
		attachment *attachmentTable
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}

	classTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*classroom.Class
	}

	enrollmentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*classroom.Enrollment
	}

	announcementTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*content.Announcement
	}

	assignmentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*content.Assignment
	}

	submissionTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*content.Submission
	}

	commentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*content.Comment
	}

	attachmentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*content.Attachment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		class:      &classTable{table: make(map[int]*classroom.Class)},
		enrollment: &enrollmentTable{table: make(map[int]*classroom.Enrollment)},
		announce:   &announcementTable{table: make(map[int]*content.Announcement)},
		assignment: &assignmentTable{table: make(map[int]*content.Assignment)},
		submission: &submissionTable{table: make(map[int]*content.Submission)},
		comment:    &commentTable{table: make(map[int]*content.Comment)},
		attachment: &attachmentTable{table: make(map[int]*content.Attachment)},
	}
	return db, nil
}
