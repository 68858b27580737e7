package handlers

import (
	"net/http"
	"time"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Identity: deps.Identity, Users: deps.Users}
	friends := FriendHandler{Identity: deps.Identity, Social: deps.Social}
	goals := GoalHandler{Identity: deps.Identity, Goals: deps.Goals, NowFunc: deps.NowFunc}
	commitments := CommitmentHandler{Identity: deps.Identity, Commitments: deps.Commitments, Limiter: deps.CompleteLimiter, NowFunc: deps.NowFunc}
	keys := KeyHandler{Identity: deps.Identity, Keys: deps.Keys}
	exports := ExportHandler{Identity: deps.Identity, Exports: deps.Exports}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users", users.Register)
	mux.HandleFunc("/api/v1/users/me", users.Me)
	mux.HandleFunc("/api/v1/users/name", users.ChangeName)
	mux.HandleFunc("/api/v1/friends", friends.Handle)
	mux.HandleFunc("/api/v1/friends/remove", friends.Remove)
	mux.HandleFunc("/api/v1/friends/goals", friends.Goals)
	mux.HandleFunc("/api/v1/goals", goals.Handle)
	mux.HandleFunc("/api/v1/goals/update", goals.Update)
	mux.HandleFunc("/api/v1/goals/view", goals.View)
	mux.HandleFunc("/api/v1/commitments", commitments.Create)
	mux.HandleFunc("/api/v1/commitments/cancel", commitments.Cancel)
	mux.HandleFunc("/api/v1/commitments/undo", commitments.Undo)
	mux.HandleFunc("/api/v1/commitments/complete", commitments.Complete)
	mux.HandleFunc("/api/v1/commitments/comment", commitments.Comment)
	mux.HandleFunc("/api/v1/commitments/scold", commitments.Scold)
	mux.HandleFunc("/api/v1/commitments/pending", commitments.Pending)
	mux.HandleFunc("/api/v1/commitments/recent", commitments.Recent)
	mux.HandleFunc("/api/v1/commitments/undo-period", commitments.UndoPeriod)
	mux.HandleFunc("/api/v1/scolds", commitments.Scolds)
	mux.HandleFunc("/api/v1/scolds/acknowledge", commitments.AcknowledgeScold)
	mux.HandleFunc("/api/v1/keys/rotate", keys.Rotate)
	mux.HandleFunc("/api/v1/keys/rename", keys.Rename)
	mux.HandleFunc("/api/v1/keys", keys.Get)
	mux.HandleFunc("/api/v1/export", exports.Handle)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Identity        IdentityResolver
	Users           UserStore
	Social          SocialGraph
	Goals           GoalService
	Commitments     CommitmentService
	Keys            KeyService
	Exports         ExportService
	CompleteLimiter RateLimiter
	NowFunc         func() time.Time
}
