package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/avelichko/task-tracker/internal/auth"
	"github.com/avelichko/task-tracker/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

func requestUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}

// requireUser verifies the bearer access token, resolves the identity from
// storage and stores it in the request context. A refresh token presented
// here fails the type check and is rejected like any invalid token.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.sendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			h.sendError(w, "Invalid Authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := h.Tokens.Verify(parts[1], auth.TokenTypeAccess)
		if err != nil {
			h.sendError(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		user, err := h.Users.GetByEmail(r.Context(), claims.Subject)
		if err != nil {
			h.Log.WithError(err).Error("failed to load user for token")
			h.sendError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			h.sendError(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			h.sendError(w, "Inactive user", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin gates the user and report surfaces. Admin privilege is scoped
// to exactly these; it grants no ownership override elsewhere.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if requestUser(r).Role != models.RoleAdmin {
			h.sendError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, c := range rl.clients {
			if time.Since(c.lastSeen) >= 3*time.Minute {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (h *Handler) limitByIP(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !h.Limiter.Allow(ip) {
			h.sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
