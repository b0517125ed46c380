package app

import (
	"encoding/json"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/stolasapp/taskapi/internal/storage/db"
)

// Optional is a JSON field that records whether it was present in the
// request body. An explicit null is rejected as a type error.
type Optional[T any] struct {
	Value T
	Set   bool
}

// UnmarshalJSON satisfies [json.Unmarshaler].
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return &json.UnmarshalTypeError{Value: "null", Type: reflect.TypeFor[T]()}
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// Ptr returns a pointer to the value, or nil if it was not set.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

type taskRequest struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Done        Optional[bool]   `json:"done"`
}

func (r taskRequest) patch() db.TaskPatch {
	return db.TaskPatch{
		Title:       r.Title.Ptr(),
		Description: r.Description.Ptr(),
		Done:        r.Done.Ptr(),
	}
}

type userRequest struct {
	Username Optional[string] `json:"username"`
	Password Optional[string] `json:"password"`
}

// bindBody decodes the JSON request body into req. Unlike [echo.Context.Bind],
// path and query parameters are never bound. An empty body leaves req
// untouched; a malformed or mistyped one is a 400.
func bindBody(c echo.Context, req any) error {
	return (&echo.DefaultBinder{}).BindBody(c, req)
}
