package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
	"github.com/pixelatedseraph/safebank/internal/validation"
)

// UserRegistry is an in-memory directory of registered users. User identity
// is owned by an external authentication service in production; this registry
// exists so the API is self-contained in demo deployments.
type UserRegistry struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*bank.UserProfile
}

// NewUserRegistry creates an empty registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{users: make(map[uuid.UUID]*bank.UserProfile)}
}

// Register stores a new user profile and returns it. The behavioral profile
// is optional collaborator input; when absent the user starts with an empty
// one and earns a real profile through rebuilds.
func (r *UserRegistry) Register(phoneNumber string, device bank.DeviceInfo, behavioral *bank.BehavioralProfile) *bank.UserProfile {
	user := &bank.UserProfile{
		UserID:      uuid.New(),
		PhoneNumber: phoneNumber,
		Device:      device,
		CreatedAt:   time.Now().UTC(),
	}
	if behavioral != nil {
		user.Behavioral = *behavioral
	}
	r.mu.Lock()
	r.users[user.UserID] = user
	r.mu.Unlock()
	return user
}

// Get returns a registered user, or nil.
func (r *UserRegistry) Get(id uuid.UUID) *bank.UserProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *user
	return &cp
}

// RegisterUserRequest is the body of POST /v1/users.
type RegisterUserRequest struct {
	PhoneNumber string                  `json:"phoneNumber"`
	Device      bank.DeviceInfo         `json:"deviceInfo"`
	Behavioral  *bank.BehavioralProfile `json:"behavioralProfile,omitempty"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}

	if errs := validation.Validate(
		validation.Required("phoneNumber", req.PhoneNumber),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	if req.Device.RegisteredAt.IsZero() {
		req.Device.RegisteredAt = time.Now().UTC()
	}
	user := s.users.Register(req.PhoneNumber, req.Device, req.Behavioral)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (s *Server) getUser(c *gin.Context) {
	id, _ := uuid.Parse(c.Param("userId"))

	user := s.users.Get(id)
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "User not found"})
		return
	}
	// Attach the engine's current view of the user's behavior
	if profile := s.engine.Profile(id); profile != nil {
		user.Behavioral = *profile
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
