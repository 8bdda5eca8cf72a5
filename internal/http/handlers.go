package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/velomarket/rental-api/internal/domain"
	"github.com/velomarket/rental-api/internal/log"
	"github.com/velomarket/rental-api/internal/metrics"
	"github.com/velomarket/rental-api/internal/queue"
	"github.com/velomarket/rental-api/internal/security"
	"github.com/velomarket/rental-api/internal/session"
)

// Store is the slice of the document store the user routes consume.
// *repo.Store satisfies it; tests inject an in-memory double.
type Store interface {
	Ping(ctx context.Context) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User, password string) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	SaveUser(ctx context.Context, u *domain.User) error
	SetUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	DeleteBike(ctx context.Context, id primitive.ObjectID) (*domain.Bike, error)
}

type Handler struct {
	Store        Store
	Sessions     session.Store
	Events       queue.Publisher
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

func NewHandler(store Store, sessions session.Store, pub queue.Publisher, cookieName string, cookieSecure bool, ttl time.Duration) *Handler {
	return &Handler{
		Store:        store,
		Sessions:     sessions,
		Events:       pub,
		CookieName:   cookieName,
		CookieSecure: cookieSecure,
		SessionTTL:   ttl,
	}
}

// storeError translates a failed store call: connectivity problems are
// 500, anything else the store rejects is a plain 400.
func (h *Handler) storeError(c *gin.Context, err error) {
	log.Errorf("store error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
}

func (h *Handler) bindSession(c *gin.Context, u *domain.User) error {
	sid := session.NewID()
	if err := h.Sessions.Save(c.Request.Context(), sid, session.Session{
		User:  u.ID.Hex(),
		Email: u.Email,
	}); err != nil {
		return err
	}
	c.SetCookie(h.CookieName, sid, int(h.SessionTTL.Seconds()), "/", "", h.CookieSecure, true)
	return nil
}

// CheckSession godoc
// @Summary Report the logged-in account, if any
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401
// @Router /api/users/check-session [get]
func (h *Handler) CheckSession(c *gin.Context) {
	sid, err := c.Cookie(h.CookieName)
	if err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	s, err := h.Sessions.Load(c.Request.Context(), sid)
	if err != nil || s == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentUser": s.Email})
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {array} domain.User
// @Failure 400 {object} map[string]string
// @Router /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Log in with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginReq true "credentials"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Store.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to login"})
		return
	}
	if !security.CheckPassword(u.PasswordHash, in.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is incorrect"})
		return
	}
	if err := h.bindSession(c, u); err != nil {
		log.Errorf("session save: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	reqID := c.GetString(requestIDKey)
	go func() {
		_ = h.Events.Publish(context.Background(), queue.Exchange, queue.KeyLoggedIn,
			queue.UserLoggedIn{UserID: u.ID, Email: u.Email}, reqID)
	}()

	c.JSON(http.StatusOK, gin.H{"currentUser": u.ID})
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register godoc
// @Summary Create an account
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerReq true "new account"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/users [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u := &domain.User{
		Email:    in.Email,
		Name:     in.Name,
		Location: "",
		Rating:   domain.NoRatingYet,
		Reviews:  []string{},
		RentedTo: 0,
		Bikes:    []primitive.ObjectID{},
	}
	if err := h.Store.CreateUser(c.Request.Context(), u, in.Password); err != nil {
		h.storeError(c, err)
		return
	}
	// auto-login on signup
	if err := h.bindSession(c, u); err != nil {
		log.Errorf("session save: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	reqID := c.GetString(requestIDKey)
	go func() {
		_ = h.Events.Publish(context.Background(), queue.Exchange, queue.KeyRegistered,
			queue.UserRegistered{UserID: u.ID, Email: u.Email, Name: u.Name}, reqID)
	}()

	c.JSON(http.StatusOK, u)
}

// GetUser godoc
// @Summary Fetch one user
// @Tags users
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} domain.User
// @Failure 404 {object} map[string]string
// @Router /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id := pathID(c)
	u, err := h.Store.FindUserByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// AddReview appends a review to a user and folds its rating into the
// running average. The count used for the mean is read before the
// append; two concurrent reviews on the same user race and the later
// save wins.
func (h *Handler) AddReview(c *gin.Context) {
	var in domain.Review
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	id := pathID(c)
	u, err := h.Store.FindUserByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	u.Rating = domain.NextRating(u.Rating, len(u.Reviews), in.Rating)
	u.Reviews = append(u.Reviews, in.Review)
	if err := h.Store.SaveUser(c.Request.Context(), u); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": in, "user": u})
}

// UpdateImage merges the supplied image fields into the user record
// and echoes both back.
func (h *Handler) UpdateImage(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	id := pathID(c)
	u, err := h.Store.SetUserFields(c.Request.Context(), id, fields)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": fields, "user": u})
}

// DeleteUser removes the account and then each of its bikes, one at a
// time in listing order. Bikes already gone from the store stay in the
// response as nulls. A failed bike delete aborts the loop; earlier
// deletes are not rolled back.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := pathID(c)
	u, err := h.Store.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}

	deletedBikes := make([]*domain.Bike, 0, len(u.Bikes))
	for _, bikeID := range u.Bikes {
		b, err := h.Store.DeleteBike(c.Request.Context(), bikeID)
		if err != nil {
			h.storeError(c, err)
			return
		}
		if b != nil {
			metrics.BikesCascadeDeleted.Inc()
		}
		deletedBikes = append(deletedBikes, b)
	}

	reqID := c.GetString(requestIDKey)
	go func() {
		_ = h.Events.Publish(context.Background(), queue.Exchange, queue.KeyUserDeleted,
			queue.UserDeleted{UserID: u.ID, Email: u.Email, BikesDeleted: len(deletedBikes)}, reqID)
	}()

	c.JSON(http.StatusOK, gin.H{"user": u, "deletedBikes": deletedBikes})
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
