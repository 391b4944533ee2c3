package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core/content"
)

type announcementApi struct {
	svc *content.Service
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service) {
	api := announcementApi{svc: svc}

	ag := g.Group("/announcements", jwt)
	ag.POST("", api.create)
	ag.GET("", api.list)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

type (
	NewAnnouncementRequest struct {
		ClassID int `json:"class_id"`
		content.NewAnnouncement
	}

	AnnouncementResponse struct {
		content.Announcement
		Attachments []content.Attachment `json:"attachments"`
	}
)

func (api *announcementApi) create(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var data NewAnnouncementRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncementRequest")
	}

	ann, err := api.svc.CreateAnnouncement(ctx.Request().Context(), actorID, data.ClassID, data.NewAnnouncement)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) list(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	classID, err := queryInt(ctx, "class_id")
	if err != nil {
		return err
	}

	anns, err := api.svc.ListAnnouncements(ctx.Request().Context(), actorID, classID)
	if err != nil {
		return err
	}
	if anns == nil {
		anns = []content.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	ann, atts, err := api.svc.GetAnnouncement(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	if atts == nil {
		atts = []content.Attachment{}
	}
	return ctx.JSON(http.StatusOK, AnnouncementResponse{Announcement: ann, Attachments: atts})
}

func (api *announcementApi) update(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data content.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}

	ann, err := api.svc.UpdateAnnouncement(ctx.Request().Context(), actorID, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAnnouncement(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
