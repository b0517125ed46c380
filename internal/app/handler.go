package app

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stolasapp/taskapi/internal/app/component"
	"github.com/stolasapp/taskapi/internal/sec"
	"github.com/stolasapp/taskapi/internal/tasks"
)

type handler struct {
	svc tasks.Handler
	// links is fixed when a public URL is configured; otherwise links are
	// derived from each request.
	links *component.Links
}

func (h handler) register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/tasks", h.listTasks, auth)
	e.POST("/tasks", h.createTask, auth)
	e.GET("/tasks/:id", h.getTask, auth)
	e.PUT("/tasks/:id", h.updateTask, auth)
	e.DELETE("/tasks/:id", h.deleteTask, auth)

	e.POST("/users", h.createUser)
	e.GET(component.CurrentUserPath, h.getCurrentUser, auth)
	e.DELETE(component.CurrentUserPath, h.deleteCurrentUser, auth)
	e.GET("/users/:id/tasks", h.listUserTasks, auth)
}

func (h handler) listTasks(c echo.Context) error {
	list, err := h.svc.ListTasks(c.Request().Context())
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, component.TaskListEnvelope{Tasks: links.Tasks(list, nil)})
}

func (h handler) createTask(c echo.Context) error {
	var req taskRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	task, err := h.svc.CreateTask(c.Request().Context(), req.Title.Value, req.Description.Value)
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, links.Resolve(task.Path()))
	return c.JSON(http.StatusCreated, component.TaskEnvelope{Task: links.Task(task)})
}

func (h handler) getTask(c echo.Context) error {
	task, err := h.svc.GetTask(c.Request().Context(), taskID(c))
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, component.TaskEnvelope{Task: links.Task(task)})
}

func (h handler) updateTask(c echo.Context) error {
	var req taskRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	task, err := h.svc.UpdateTask(c.Request().Context(), taskID(c), req.patch())
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, component.TaskEnvelope{Task: links.Task(task)})
}

func (h handler) deleteTask(c echo.Context) error {
	if err := h.svc.DeleteTask(c.Request().Context(), taskID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handler) createUser(c echo.Context) error {
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	user, err := h.svc.RegisterUser(c.Request().Context(), req.Username.Value, req.Password.Value)
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, links.Resolve(component.CurrentUserPath))
	return c.JSON(http.StatusCreated, component.UserEnvelope{User: links.User(user)})
}

func (h handler) getCurrentUser(c echo.Context) error {
	user, err := h.svc.GetCurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, component.UserEnvelope{User: links.User(user)})
}

func (h handler) deleteCurrentUser(c echo.Context) error {
	if err := h.svc.DeleteCurrentUser(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handler) listUserTasks(c echo.Context) error {
	ctx := c.Request().Context()
	var ownerID uint64
	if param := c.Param("id"); param == "me" {
		ownerID = sec.GetAuthenticatedUser(ctx).ID
	} else {
		// an unparseable id falls through to the service as one that
		// matches no user
		ownerID, _ = strconv.ParseUint(param, 10, 64)
	}

	owner, list, err := h.svc.ListUserTasks(ctx, ownerID)
	if err != nil {
		return err
	}
	links, err := h.linksFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, component.TaskListEnvelope{Tasks: links.Tasks(list, &owner)})
}

// taskID parses the task id path parameter. An unparseable id yields a value
// that matches no task, so it is reported as not found after the request
// body is validated.
func taskID(c echo.Context) int64 {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return id
}

// linksFor returns the configured links, or links rooted at the scheme and
// host the request was made to.
func (h handler) linksFor(c echo.Context) (component.Links, error) {
	if h.links != nil {
		return *h.links, nil
	}
	return component.NewLinks(c.Scheme() + "://" + c.Request().Host)
}
