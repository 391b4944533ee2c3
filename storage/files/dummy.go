package files

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core"
)

// DummyStorage keeps objects in memory and records every call. Tests use it
// to assert that detaching content cleans up stored files, and FailDeletes
// simulates a flaky backend.
type DummyStorage struct {
	sync.Mutex
	Objects     map[string][]byte
	Deleted     []string
	FailDeletes bool
}

var _ core.FileStorage = (*DummyStorage)(nil) // interface compliance check

func NewDummyStorage() *DummyStorage {
	return &DummyStorage{Objects: make(map[string][]byte)}
}

func (st *DummyStorage) Save(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}

	st.Lock()
	defer st.Unlock()
	url := "/uploads/" + uuid.New().String()
	st.Objects[url] = data
	return url, nil
}

func (st *DummyStorage) Delete(ctx context.Context, url string) error {
	st.Lock()
	defer st.Unlock()
	if st.FailDeletes {
		return errors.New("storage unavailable")
	}
	delete(st.Objects, url)
	st.Deleted = append(st.Deleted, url)
	return nil
}
