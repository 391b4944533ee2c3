package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core"
)

type uploadApi struct {
	files core.FileStorage
}

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc, files core.FileStorage) {
	api := uploadApi{files: files}

	g.POST("/uploads", api.create, jwt)
}

type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// create stores one multipart file and returns where it landed. Attaching the
// upload to an announcement, assignment or submission is a separate call.
func (api *uploadApi) create(ctx echo.Context) error {
	if _, err := ctxUserID(ctx); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	url, err := api.files.Save(ctx.Request().Context(), src, fh.Filename)
	if err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}

	return ctx.JSON(http.StatusCreated, UploadResponse{URL: url, FileName: fh.Filename})
}
