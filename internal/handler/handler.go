package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/oggyb/matchmaker/internal/app"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/service/dating"
	"github.com/oggyb/matchmaker/internal/service/discovery"
	"github.com/oggyb/matchmaker/internal/service/profile"
	"github.com/oggyb/matchmaker/internal/service/swipe"
	"github.com/oggyb/matchmaker/internal/validator"
)

// NoMoreProfiles is returned with 200 when the feed is exhausted.
const NoMoreProfiles = "no more profiles available"

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the JSON HTTP API. Payloads share the gRPC message types.
type Handler struct {
	appCtx    *app.AppContext
	validate  *validator.Validator
	profiles  *profile.Service
	discovery *discovery.Service
	swipes    *swipe.Service
}

func NewHandler(appCtx *app.AppContext) *Handler {
	v := validator.New()
	return &Handler{
		appCtx:    appCtx,
		validate:  v,
		profiles:  profile.NewService(appCtx, v),
		discovery: discovery.NewService(appCtx),
		swipes:    swipe.NewService(appCtx),
	}
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(appCtx *app.AppContext) *fiber.App {
	h := NewHandler(appCtx)
	log := appCtx.Logger

	fapp := fiber.New(fiber.Config{
		AppName:               "matchmaker",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	fapp.Use(recover.New())
	fapp.Use(RequestLogger(log))

	fapp.Get("/health", h.Health)

	api := fapp.Group("/api")
	if cfg := appCtx.Config.RateLimit; cfg.MaxRequests > 0 {
		api.Use(NewRateLimiter(appCtx.RedisCache, cfg.MaxRequests, cfg.Window, log).Handler())
	}

	api.Post("/user", h.CreateProfile)
	api.Get("/user/:external_id", h.GetProfile)
	api.Put("/user/:external_id", h.UpdateProfile)
	api.Get("/profiles/next/:external_id", h.NextCandidate)
	api.Post("/swipe/:external_id", h.Swipe)
	api.Get("/matches/:external_id", h.ListMatches)
	api.Get("/stats/:external_id", h.GetStats)

	return fapp
}

// fail writes a domain error with the matching status. Internal details
// stay in the log.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	code := svcErr.HTTPStatus(err)
	msg := err.Error()
	if code >= fiber.StatusInternalServerError {
		h.appCtx.Logger.Error("request failed", "path", c.Path(), "err", err)
		msg = http.StatusText(code)
	}
	return c.Status(code).JSON(ErrorResponse{Error: msg})
}

func externalID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("external_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, svcErr.Invalid("external_id must be a positive integer")
	}
	return id, nil
}

// Health reports liveness of the process and its Redis dependency.
func (h *Handler) Health(c *fiber.Ctx) error {
	redisStatus := "ok"
	if err := h.appCtx.RedisCache.Ping(c.UserContext()); err != nil {
		redisStatus = "unavailable"
	}
	return c.JSON(fiber.Map{"status": "ok", "redis": redisStatus})
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	view, err := h.profiles.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dating.FromView(view))
}

func (h *Handler) CreateProfile(c *fiber.Ctx) error {
	var in profile.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, svcErr.Invalid("invalid request body"))
	}
	view, err := h.profiles.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dating.FromView(view))
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in profile.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, svcErr.Invalid("invalid request body"))
	}
	view, err := h.profiles.Update(c.UserContext(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dating.FromView(view))
}

// NextCandidate answers 200 with a message instead of a profile once the
// requester has seen everyone eligible.
func (h *Handler) NextCandidate(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	cand, err := h.discovery.NextCandidate(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if !cand.Found() {
		return c.JSON(fiber.Map{"message": NoMoreProfiles, "swipes_left": cand.SwipesLeft})
	}
	return c.JSON(dating.NextCandidateResponse{
		Found:      true,
		Profile:    dating.FromProfile(cand.Profile),
		SwipesLeft: cand.SwipesLeft,
	})
}

func (h *Handler) Swipe(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dating.SwipeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, svcErr.Invalid("invalid request body"))
	}
	req.TelegramID = id
	if err := h.validate.Validate(req); err != nil {
		return h.fail(c, err)
	}

	res, err := h.swipes.Submit(c.UserContext(), id, req.TargetID, req.IsLike)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dating.SwipeResponse{IsMatch: res.IsMatch, SwipesLeft: res.SwipesLeft})
}

func (h *Handler) ListMatches(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}

	var token *string
	if t := c.Query("page_token"); t != "" {
		token = &t
	}
	views, next, err := h.profiles.ListMatches(c.UserContext(), id, token, c.QueryInt("page_size", profile.DefaultPageSize))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dating.FromMatches(views, next))
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	id, err := externalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	st, err := h.profiles.Stats(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dating.FromStats(st))
}
