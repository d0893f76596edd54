package account

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// UserLocalsKey is the fiber Locals key holding the authenticated *User
const UserLocalsKey = "account.user"

const hydraTitle = "An error occurred"

// ProtectedRoute returns a fiber handler that authenticates the bearer
// token and stores the user in Locals. Failures are passed to the app
// ErrorHandler.
func ProtectedRoute(accounts *Accounts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := accounts.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		c.Locals(UserLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by ProtectedRoute
func CurrentUser(c *fiber.Ctx) (*User, error) {
	user, ok := c.Locals(UserLocalsKey).(*User)
	if !ok || user == nil {
		return nil, NewError(KindMissingCredential)
	}
	return user, nil
}

// HydraError is the JSON-LD error envelope returned to clients
type HydraError struct {
	Context     string           `json:"@context"`
	Type        string           `json:"@type"`
	Title       string           `json:"hydra:title"`
	Description string           `json:"hydra:description"`
	Violations  []HydraViolation `json:"violations,omitempty"`
}

// HydraViolation names the offending field of a validation error
type HydraViolation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
}

// NewErrorHandler renders errors as hydra envelopes using their public
// projection. Internal reasons are logged, never returned.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(HydraError{
				Context:     "/api/contexts/Error",
				Type:        "hydra:Error",
				Title:       hydraTitle,
				Description: fiberErr.Message,
			})
		}

		public := PublicError(err)

		var richErr *goerrors.Error
		if errors.As(err, &richErr) {
			logger.Info(
				"request error",
				"path", c.Path(),
				"error", richErr.Message,
				"text_code", richErr.TextCode,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Error("unexpected request error", "path", c.Path(), "error", err)
		}

		body := HydraError{
			Context:     "/api/contexts/Error",
			Type:        "hydra:Error",
			Title:       hydraTitle,
			Description: public.Message,
		}

		if KindOf(public) == KindValidationFailed {
			field := FieldOf(public)
			body.Context = "/api/contexts/ConstraintViolationList"
			body.Type = "ConstraintViolationList"
			body.Description = strings.TrimPrefix(field+": "+public.Message, ": ")
			body.Violations = []HydraViolation{{PropertyPath: field, Message: public.Message}}
		}

		return c.Status(public.Code).JSON(body)
	}
}
