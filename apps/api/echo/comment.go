package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/content"
)

type commentApi struct {
	svc *content.Service
}

func registerCommentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service) {
	api := commentApi{svc: svc}

	cg := g.Group("/comments", jwt)
	cg.POST("", api.create)
	cg.GET("", api.list)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

func (ucr *UpdateCommentRequest) Validate() error {
	ucr.Content = core.CleanString(ucr.Content)
	return core.Validate.Struct(ucr)
}

func (api *commentApi) create(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var data content.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}

	cmt, err := api.svc.CreateComment(ctx.Request().Context(), actorID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cmt)
}

func (api *commentApi) list(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var filter content.CommentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to CommentFilter")
	}

	cmts, err := api.svc.ListComments(ctx.Request().Context(), actorID, filter)
	if err != nil {
		return err
	}
	if cmts == nil {
		cmts = []content.Comment{}
	}
	return ctx.JSON(http.StatusOK, cmts)
}

func (api *commentApi) update(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data UpdateCommentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCommentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cmt, err := api.svc.UpdateComment(ctx.Request().Context(), actorID, id, data.Content)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cmt)
}

func (api *commentApi) destroy(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.DeleteComment(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
