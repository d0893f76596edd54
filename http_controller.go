package account

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-print"
)

// HTTPControllerRoutes holds the route paths
type HTTPControllerRoutes struct {
	Token          string
	Users          string
	CurrentUser    string
	ChangePassword string
	Activate       string
	Metrics        string
}

// HTTPController exposes Accounts over a JSON API
type HTTPController struct {
	Debug          bool
	Logger         Logger
	Accounts       *Accounts
	Routes         *HTTPControllerRoutes
	MetricsHandler http.Handler
}

// HTTPControllerOption configures the controller
type HTTPControllerOption func(*HTTPController) *HTTPController

// WithControllerAccounts sets the account service
func WithControllerAccounts(accounts *Accounts) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Accounts = accounts
		return c
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = normalizeLogger(logger)
		return c
	}
}

// WithControllerDebug enables debug dumps of responses
func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

// WithMetricsHandler serves handler on the metrics route
func WithMetricsHandler(handler http.Handler) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.MetricsHandler = handler
		return c
	}
}

// NewHTTPController builds the controller, it panics without Accounts
func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		Routes: &HTTPControllerRoutes{
			Token:          "/api/token",
			Users:          "/api/users",
			CurrentUser:    "/api/users/current",
			ChangePassword: "/api/users/current/password",
			Activate:       "/api/users/activate/:token",
			Metrics:        "/metrics",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts in account controller...")
	}

	return c
}

// RegisterRoutes mounts the API on app
func (h *HTTPController) RegisterRoutes(app fiber.Router) {
	protected := ProtectedRoute(h.Accounts)

	app.Post(h.Routes.Token, h.CreateToken)
	app.Post(h.Routes.Users, h.Register)
	app.Get(h.Routes.CurrentUser, protected, h.ShowCurrent)
	app.Patch(h.Routes.CurrentUser, protected, h.UpdateCurrent)
	app.Patch(h.Routes.ChangePassword, protected, h.ChangePassword)
	app.Patch(h.Routes.Activate, h.Activate)

	if h.MetricsHandler != nil {
		app.Get(h.Routes.Metrics, adaptor.HTTPHandler(h.MetricsHandler))
	}
}

// NewApp returns a fiber app with the hydra error handler and the
// controller routes mounted
func NewApp(controller *HTTPController) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          NewErrorHandler(controller.Logger),
		DisableStartupMessage: true,
	})
	controller.RegisterRoutes(app)
	return app
}

// UserView is the public representation of a user
type UserView struct {
	ID           string     `json:"@id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Roles        []Role     `json:"roles"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	RegisterDate time.Time  `json:"registerDate"`
}

// NewUserView projects user onto its public fields
func NewUserView(user *User) UserView {
	return UserView{
		ID:           user.ResourcePath(),
		Username:     user.Username,
		Email:        user.Email,
		Roles:        user.rolesSnapshot(),
		LastLogin:    user.LastLogin,
		RegisterDate: user.RegisterDate,
	}
}

// TokenResponse is returned by the token route
type TokenResponse struct {
	Token string `json:"token"`
}

func (h *HTTPController) CreateToken(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return fiber.ErrBadRequest
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := h.Accounts.Login(c.UserContext(), payload.Login, payload.Password, payload.RememberMe)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token})
}

func (h *HTTPController) Register(c *fiber.Ctx) error {
	payload := new(RegistrationRequest)
	if err := c.BodyParser(payload); err != nil {
		return fiber.ErrBadRequest
	}

	user, err := h.Accounts.Register(c.UserContext(), *payload)
	payload.Erase()
	if err != nil {
		return err
	}

	return h.respond(c, fiber.StatusCreated, NewUserView(user))
}

func (h *HTTPController) ShowCurrent(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	return h.respond(c, fiber.StatusOK, NewUserView(user))
}

func (h *HTTPController) UpdateCurrent(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	payload := new(ProfileChangeRequest)
	if err := c.BodyParser(payload); err != nil {
		return fiber.ErrBadRequest
	}

	updated, err := h.Accounts.ChangeProfile(c.UserContext(), user, payload)
	if err != nil {
		return err
	}

	return h.respond(c, fiber.StatusOK, NewUserView(updated))
}

func (h *HTTPController) ChangePassword(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	payload := new(PasswordChangeRequest)
	if err := c.BodyParser(payload); err != nil {
		return fiber.ErrBadRequest
	}

	updated, err := h.Accounts.ChangePassword(c.UserContext(), user, payload)
	if err != nil {
		return err
	}

	return h.respond(c, fiber.StatusOK, NewUserView(updated))
}

func (h *HTTPController) Activate(c *fiber.Ctx) error {
	if err := h.Accounts.Activate(c.UserContext(), c.Params("token")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPController) respond(c *fiber.Ctx, status int, view UserView) error {
	if h.Debug {
		h.Logger.Debug("user response", "path", c.Path(), "body", print.MaybePrettyJSON(view))
	}
	return c.Status(status).JSON(view)
}
