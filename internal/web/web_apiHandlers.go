package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/go-while/go-portfolio/internal/database"
	"github.com/go-while/go-portfolio/internal/models"
)

func detail(msg string) models.ErrorResponse {
	return models.ErrorResponse{Detail: msg}
}

func (s *WebServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy"})
}

func (s *WebServer) listItems(c *gin.Context) {
	items, err := s.Store.ListItems(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *WebServer) createItem(c *gin.Context) {
	var input models.ItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationError(c, err)
		return
	}

	item, err := s.Store.CreateItem(c.Request.Context(), *input.Title, *input.Description)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if s.Config.Debug {
		log.Printf("[WEB]: Created item %d", item.ID)
	}
	c.JSON(http.StatusOK, item)
}

func (s *WebServer) getItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := s.Store.GetItem(c.Request.Context(), id)
	if errors.Is(err, database.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, detail("Item not found"))
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// deleteItem answers the same confirmation whether or not the id existed.
func (s *WebServer) deleteItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	removed, err := s.Store.DeleteItemReport(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if s.Config.Debug {
		log.Printf("[WEB]: Delete item %d removed=%t", id, removed)
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Item deleted"})
}

// itemIDParam parses :item_id, writing a 422 response when it is not an integer.
func itemIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("item_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.ValidationErrorResponse{
			Detail: []models.ValidationError{{
				Loc:  []any{"path", "item_id"},
				Msg:  "value is not a valid integer",
				Type: "type_error.integer",
			}},
		})
		return 0, false
	}
	return id, true
}

// validationError renders a bind error as a 422 with one entry per problem.
func validationError(c *gin.Context, err error) {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		details   []models.ValidationError
	)

	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			details = append(details, models.ValidationError{
				Loc:  []any{"body", fe.Field()},
				Msg:  "field required",
				Type: "value_error.missing",
			})
		}
	case errors.As(err, &typeErr):
		loc := []any{"body"}
		if typeErr.Field != "" {
			loc = append(loc, typeErr.Field)
		}
		details = append(details, models.ValidationError{
			Loc:  loc,
			Msg:  "value is not a valid " + typeName(typeErr.Type),
			Type: "type_error." + typeName(typeErr.Type),
		})
	case errors.As(err, &syntaxErr):
		details = append(details, models.ValidationError{
			Loc:  []any{"body", syntaxErr.Offset},
			Msg:  "invalid JSON: " + syntaxErr.Error(),
			Type: "value_error.jsondecode",
		})
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		details = append(details, models.ValidationError{
			Loc:  []any{"body"},
			Msg:  "field required",
			Type: "value_error.missing",
		})
	default:
		details = append(details, models.ValidationError{
			Loc:  []any{"body"},
			Msg:  err.Error(),
			Type: "value_error",
		})
	}
	c.JSON(http.StatusUnprocessableEntity, models.ValidationErrorResponse{Detail: details})
}

func typeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "str"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Struct, reflect.Map:
		return "dict"
	default:
		return t.Kind().String()
	}
}

// jsonFieldName reports validation errors under the json key instead of the Go field name.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func (s *WebServer) internalError(c *gin.Context, err error) {
	log.Printf("[WEB]: Error serving %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, detail("Internal Server Error"))
}
