// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/cliparse"
	"github.com/danielhkuo/messvote/handlers"
	"github.com/danielhkuo/messvote/middleware"
)

func NewRouter(svc *Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Students, cfg, svc.Clock)
	itemHandler := handlers.NewItemHandler(svc.Catalog)
	planHandler := handlers.NewPlanHandler(svc.Plans)
	votingHandler := handlers.NewVotingHandler(svc.Engine, svc.Plans, svc.Settings, svc.Clock)
	complaintHandler := handlers.NewComplaintHandler(svc.Complaints, svc.Clock)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Broadcaster)
	studentHandler := handlers.NewStudentHandler(svc.Students)
	realtimeHandler := handlers.NewRealtimeHandler(svc.Hub, svc.Broadcaster)
	dashboardHandler := handlers.NewDashboardHandler(svc.Students, svc.Catalog, svc.Engine, svc.Clock)

	student := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireStudent(cfg.TokenSecret, svc.Clock, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.TokenSecret, svc.Clock, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("POST /admin/login", middleware.WithLogging(authHandler.AdminLogin))
	mux.HandleFunc("GET /window", middleware.WithLogging(votingHandler.GetWindow))
	mux.Handle("GET "+blob.URLPrefix, http.StripPrefix(blob.URLPrefix, noListing(http.FileServer(http.Dir(svc.Blobs.Dir())))))

	// Students
	mux.HandleFunc("GET /menu/today", student(votingHandler.MenuToday))
	mux.HandleFunc("GET /plans", student(planHandler.ListPlans))
	mux.HandleFunc("GET /plans/{date}", student(planHandler.GetPlan))
	mux.HandleFunc("POST /votes", student(votingHandler.SubmitVote))
	mux.HandleFunc("GET /votes/me", student(votingHandler.MyVotes))
	mux.HandleFunc("GET /results", student(votingHandler.GetResults))
	mux.HandleFunc("POST /complaints", student(complaintHandler.SubmitComplaint))
	mux.HandleFunc("GET /complaints/mine", student(complaintHandler.MyComplaints))
	mux.HandleFunc("GET /ws", middleware.WithLogging(middleware.RequireSession(cfg.TokenSecret, svc.Clock, realtimeHandler.Subscribe)))

	// Admin: catalog
	mux.HandleFunc("GET /admin/items", admin(itemHandler.ListItems))
	mux.HandleFunc("POST /admin/items", admin(itemHandler.CreateItem))
	mux.HandleFunc("POST /admin/items/recount", admin(itemHandler.RecountVotes))
	mux.HandleFunc("PUT /admin/items/{id}", admin(itemHandler.UpdateItem))
	mux.HandleFunc("DELETE /admin/items/{id}", admin(itemHandler.DeleteItem))
	mux.HandleFunc("POST /admin/items/{id}/deactivate", admin(itemHandler.DeactivateItem))
	mux.HandleFunc("POST /admin/items/{id}/image", admin(itemHandler.UploadImage))

	// Admin: plans
	mux.HandleFunc("GET /admin/plans", admin(planHandler.ListPlans))
	mux.HandleFunc("GET /admin/plans/{date}", admin(planHandler.GetPlan))
	mux.HandleFunc("PUT /admin/plans/{date}", admin(planHandler.SavePlan))
	mux.HandleFunc("DELETE /admin/plans/{date}", admin(planHandler.ClearPlan))
	mux.HandleFunc("POST /admin/plans/{date}/{meal}/items", admin(planHandler.AddItem))
	mux.HandleFunc("DELETE /admin/plans/{date}/{meal}/items/{itemID}", admin(planHandler.RemoveItem))

	// Admin: settings, students, results
	mux.HandleFunc("GET /admin/settings", admin(settingsHandler.GetSettings))
	mux.HandleFunc("PUT /admin/settings", admin(settingsHandler.SaveSettings))
	mux.HandleFunc("GET /admin/students", admin(studentHandler.ListStudents))
	mux.HandleFunc("POST /admin/students", admin(studentHandler.RegisterStudent))
	mux.HandleFunc("DELETE /admin/students/{id}", admin(studentHandler.DeleteStudent))
	mux.HandleFunc("GET /admin/results", admin(votingHandler.GetResults))
	mux.HandleFunc("GET /admin/stats", admin(dashboardHandler.GetStats))

	// Admin: complaints
	mux.HandleFunc("GET /admin/complaints", admin(complaintHandler.ListComplaints))
	mux.HandleFunc("GET /admin/complaints/stats", admin(complaintHandler.GetStats))
	mux.HandleFunc("GET /admin/complaints/export", admin(complaintHandler.ExportComplaints))
	mux.HandleFunc("POST /admin/complaints/resolve-all", admin(complaintHandler.ResolveAll))
	mux.HandleFunc("PATCH /admin/complaints/{id}", admin(complaintHandler.UpdateComplaint))
	mux.HandleFunc("DELETE /admin/complaints/{id}", admin(complaintHandler.DeleteComplaint))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("messvote API v1"))
	})

	return mux
}

// noListing hides directory indexes of the upload dir.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
