package files

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core"
)

type localStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*localStorage)(nil) // interface compliance check

// NewLocalStorage stores uploads on the local disk under conf.Uploads.Dir and
// serves them under conf.Uploads.BaseURL. Object names are random; the
// original filename only survives as an extension hint.
func NewLocalStorage(conf *core.Config) (core.FileStorage, error) {
	if err := os.MkdirAll(conf.Uploads.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &localStorage{dir: conf.Uploads.Dir, baseURL: strings.TrimSuffix(conf.Uploads.BaseURL, "/")}, nil
}

func (st *localStorage) Save(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(suggestedName))

	f, err := os.Create(filepath.Join(st.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing upload")
	}
	return st.baseURL + "/" + name, nil
}

func (st *localStorage) Delete(ctx context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(st.dir, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing upload")
	}
	return nil
}
