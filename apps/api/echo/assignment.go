package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mawazo/darasa/core/content"
)

type assignmentApi struct {
	svc *content.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create)
	ag.GET("", api.list)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)

	// a Student's own submission hangs off the assignment; graders address
	// submissions by their own id
	ag.POST("/:id/submission", api.submit)
	ag.DELETE("/:id/submission", api.unsubmit)
	ag.GET("/:id/submission", api.ownSubmission)
	ag.GET("/:id/submissions", api.listSubmissions)

	sg := g.Group("/submissions", jwt)
	sg.PUT("/:id/grade", api.grade)
}

type (
	NewAssignmentRequest struct {
		ClassID int `json:"class_id"`
		content.NewAssignment
	}

	AssignmentResponse struct {
		content.Assignment
		Attachments []content.Attachment `json:"attachments"`
	}

	SubmissionResponse struct {
		content.Submission
		Attachments []content.Attachment `json:"attachments"`
	}
)

func (api *assignmentApi) create(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}

	var data NewAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignmentRequest")
	}

	asg, err := api.svc.CreateAssignment(ctx.Request().Context(), actorID, data.ClassID, data.NewAssignment)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) list(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	classID, err := queryInt(ctx, "class_id")
	if err != nil {
		return err
	}

	asgs, err := api.svc.ListAssignments(ctx.Request().Context(), actorID, classID)
	if err != nil {
		return err
	}
	if asgs == nil {
		asgs = []content.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	asg, atts, err := api.svc.GetAssignment(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	if atts == nil {
		atts = []content.Attachment{}
	}
	return ctx.JSON(http.StatusOK, AssignmentResponse{Assignment: asg, Attachments: atts})
}

func (api *assignmentApi) update(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data content.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}

	asg, err := api.svc.UpdateAssignment(ctx.Request().Context(), actorID, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAssignment(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data content.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), actorID, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) unsubmit(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	if err := api.svc.Unsubmit(ctx.Request().Context(), actorID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) ownSubmission(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	sub, atts, err := api.svc.GetOwnSubmission(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	if atts == nil {
		atts = []content.Attachment{}
	}
	return ctx.JSON(http.StatusOK, SubmissionResponse{Submission: sub, Attachments: atts})
}

func (api *assignmentApi) listSubmissions(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []content.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	actorID, err := ctxUserID(ctx)
	if err != nil {
		return err
	}
	id, err := paramInt(ctx, "id")
	if err != nil {
		return err
	}

	var data content.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), actorID, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
