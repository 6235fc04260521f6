// Package respond builds the response envelope every endpoint uses:
// success flag, human-readable message, payload, and pagination metadata for
// list endpoints. Domain failures come back as success=false with a 4xx
// status; transport failures stay outside the envelope contract.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/budingricky/Books-Management-System-BMS/service/fault"
)

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Reason     string      `json:"reason,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func Page(c echo.Context, message string, data any, total int64, page, limit int) error {
	return c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &Pagination{Total: total, Page: page, Limit: limit},
	})
}

func Invalid(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: message})
}

var statusByKind = map[fault.Kind]int{
	fault.NotFound:        http.StatusNotFound,
	fault.InvalidArgument: http.StatusBadRequest,
	fault.Conflict:        http.StatusConflict,
	fault.Internal:        http.StatusInternalServerError,
}

var messageByReason = map[string]string{
	"item_not_found":     "item not found",
	"loan_not_found":     "loan not found",
	"category_not_found": "category not found",
	"parent_not_found":   "parent category not found",
	"item_not_available": "item is not available for borrowing",
	"item_borrowed":      "item is currently borrowed",
	"already_returned":   "loan is already returned",
	"empty_borrower":     "borrower must not be empty",
	"unknown_status":     "status must be ACTIVE, OVERDUE or RETURNED",
	"due_not_in_future":  "due date must be in the future",
	"duplicate_isbn":     "an item with this ISBN already exists",
	"duplicate_code":     "a category with this code already exists",
	"category_cycle":     "category cannot be its own ancestor",
	"has_children":       "category still has child categories",
	"has_items":          "category still has items",
}

// Error translates a service error into the envelope. Internal errors are
// logged with the operation name; domain errors carry their reason through.
func Error(c echo.Context, log *slog.Logger, op string, err error) error {
	kind := fault.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok || kind == fault.Internal {
		log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "internal error",
		})
	}
	reason := fault.ReasonOf(err)
	msg, ok := messageByReason[reason]
	if !ok {
		msg = string(kind)
	}
	return c.JSON(status, Envelope{Success: false, Message: msg, Reason: reason})
}
