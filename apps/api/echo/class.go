package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/classroom"
)

type classApi struct {
	svc *classroom.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *classroom.Service) {
	api := classApi{svc: svc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create)
	cg.GET("", api.list)
	cg.POST("/join", api.join)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.POST("/:id/leave", api.leave)
	cg.PUT("/:id/blocked", api.setBlocked)
	cg.PUT("/:id/image", api.setImage)
	cg.GET("/:id/members", api.members)
}

func (api *classApi) create(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var data classroom.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	class, err := api.svc.Create(ctx.Request().Context(), actorID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *classApi) list(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	classes, err := api.svc.ListForUser(ctx.Request().Context(), actorID)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) join(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var data JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	class, err := api.svc.Join(ctx.Request().Context(), actorID, data.JoinCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	class, err := api.svc.Get(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) update(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data classroom.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}

	class, err := api.svc.Update(ctx.Request().Context(), actorID, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) destroy(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.SoftDelete(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) leave(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.Leave(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) setBlocked(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data BlockRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BlockRequest")
	}

	if err := api.svc.SetBlocked(ctx.Request().Context(), actorID, id, data.Blocked); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) setImage(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data ImageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImageRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	class, err := api.svc.SetImageURL(ctx.Request().Context(), actorID, id, data.ImageURL)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) members(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	members, err := api.svc.Members(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	if members == nil {
		members = []classroom.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, members)
}

type (
	JoinRequest struct {
		JoinCode string `json:"join_code" validate:"required,joincode"`
	}

	BlockRequest struct {
		Blocked bool `json:"blocked"`
	}

	ImageRequest struct {
		ImageURL string `json:"image_url" validate:"required"`
	}
)

func (jr *JoinRequest) Validate() error {
	jr.JoinCode = core.CleanString(jr.JoinCode)
	return core.Validate.Struct(jr)
}

func (ir *ImageRequest) Validate() error {
	ir.ImageURL = core.CleanString(ir.ImageURL)
	return core.Validate.Struct(ir)
}
