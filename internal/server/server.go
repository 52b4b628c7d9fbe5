package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/kidpoints/internal/backup"
	"github.com/dukerupert/kidpoints/internal/handler"
	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/middleware"
	"github.com/dukerupert/kidpoints/internal/push"
	ws "github.com/dukerupert/kidpoints/internal/websocket"
)

var (
	_ household.Notifier = (*ws.Hub)(nil)
	_ household.Notifier = (*push.Notifier)(nil)
)

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

type Server struct {
	hh             *household.Household
	hub            *ws.Hub
	memberH        *handler.MemberHandler
	taskH          *handler.TaskHandler
	rewardH        *handler.RewardHandler
	achievementH   *handler.AchievementHandler
	settingsH      *handler.SettingsHandler
	backupH        *handler.BackupHandler
	pushH          *handler.PushHandler
	rateLimiter    *middleware.RateLimiter
	originPatterns []string
	logger         *slog.Logger
}

// Push is the optional Web Push wiring. A nil Service disables the push
// routes.
type Push struct {
	Service       *push.Service
	Subscriptions *push.Subscriptions
}

// New wires the handlers. The household's change events go to hub and, when
// push is configured, to subscribed devices.
func New(hh *household.Household, hub *ws.Hub, backupMgr *backup.Manager, pushDeps Push, originPatterns []string, logger *slog.Logger) *Server {
	var notifier *push.Notifier
	if pushDeps.Service != nil {
		notifier = push.NewNotifier(pushDeps.Service, pushDeps.Subscriptions, push.Lookup{
			Enabled:     func() bool { return hh.Settings.Get().NotificationsEnabled },
			Achievement: hh.Achievements.Get,
			Reward:      hh.Rewards.Get,
		}, logger.With("component", "push"))
		hh.SetNotifier(household.Notifiers{hub, notifier})
	} else {
		hh.SetNotifier(hub)
	}

	return &Server{
		hh:             hh,
		hub:            hub,
		memberH:        handler.NewMemberHandler(hh, logger.With("component", "member")),
		taskH:          handler.NewTaskHandler(hh, logger.With("component", "task")),
		rewardH:        handler.NewRewardHandler(hh, logger.With("component", "reward")),
		achievementH:   handler.NewAchievementHandler(hh, logger.With("component", "achievement")),
		settingsH:      handler.NewSettingsHandler(hh, logger.With("component", "settings")),
		backupH:        handler.NewBackupHandler(backupMgr, logger.With("component", "backup")),
		pushH:          handler.NewPushHandler(pushDeps.Service, pushDeps.Subscriptions, notifier, logger.With("component", "push")),
		rateLimiter:    middleware.NewRateLimiter(),
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// RateLimiter returns the login limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	s.registerPublicRoutes(mux)
	s.registerAdminRoutes(mux)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns...))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, loginLimit, loginWindow)(h)
}

// registerPublicRoutes covers what any family member may do from the kiosk.
func (s *Server) registerPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("GET /api/members/{id}/history", s.memberH.History)
	mux.HandleFunc("GET /api/members/{id}/stats", s.memberH.Stats)
	mux.HandleFunc("GET /api/members/{id}/redemptions", s.memberH.Redemptions)
	mux.HandleFunc("GET /api/members/{id}/achievements", s.memberH.Achievements)
	mux.HandleFunc("GET /api/leaderboard", s.memberH.Leaderboard)
	mux.HandleFunc("GET /api/current-member", s.memberH.GetCurrent)
	mux.HandleFunc("PUT /api/current-member", s.memberH.SetCurrent)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/summary", s.taskH.Summary)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/revert", s.taskH.Revert)

	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	mux.HandleFunc("GET /api/achievements", s.achievementH.List)

	mux.Handle("POST /api/login", s.rateLimited(s.settingsH.Login))
	mux.HandleFunc("POST /api/logout", s.settingsH.Logout)
	mux.HandleFunc("GET /api/session", s.settingsH.Session)

	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions", s.pushH.Unsubscribe)
	// First-run setup is allowed without a session; the handler checks.
	mux.Handle("PUT /api/settings/password", s.rateLimited(s.settingsH.SetPassword))
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	requireAdmin := middleware.RequireAdmin(s.hh.Settings)
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(h))
	}

	admin("POST /api/members", s.memberH.Create)
	admin("PUT /api/members/{id}", s.memberH.Update)
	admin("DELETE /api/members/{id}", s.memberH.Delete)
	admin("POST /api/members/{id}/points", s.memberH.AdjustPoints)
	admin("POST /api/members/{id}/achievements/check", s.achievementH.Check)

	admin("POST /api/tasks", s.taskH.Create)
	admin("PUT /api/tasks/{id}", s.taskH.Update)
	admin("DELETE /api/tasks/{id}", s.taskH.Delete)
	admin("POST /api/tasks/reset/daily", s.taskH.Reset("daily"))
	admin("POST /api/tasks/reset/weekly", s.taskH.Reset("weekly"))
	admin("POST /api/tasks/reset/all", s.taskH.Reset("all"))

	admin("POST /api/rewards", s.rewardH.Create)
	admin("PUT /api/rewards/{id}", s.rewardH.Update)
	admin("DELETE /api/rewards/{id}", s.rewardH.Delete)

	admin("POST /api/achievements", s.achievementH.Create)
	admin("PUT /api/achievements/{id}", s.achievementH.Update)
	admin("DELETE /api/achievements/{id}", s.achievementH.Delete)
	admin("POST /api/achievements/{id}/award", s.achievementH.Award)

	admin("GET /api/settings", s.settingsH.Get)
	admin("PUT /api/settings", s.settingsH.Update)
	admin("POST /api/reset", s.settingsH.ResetData)

	admin("GET /api/backups", s.backupH.List)
	admin("GET /api/backups/status", s.backupH.Status)
	admin("POST /api/backups", s.backupH.Run)
	admin("POST /api/backups/restore", s.backupH.Restore)

	admin("GET /api/push/subscriptions", s.pushH.List)
	admin("POST /api/push/test", s.pushH.Test)
}
