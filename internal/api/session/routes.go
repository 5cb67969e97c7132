package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/interview-sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/", h.ListSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/introduction/ack", h.AcknowledgeIntroduction)
			r.Patch("/user-info", h.CollectUserInfo)
			r.Post("/rounds", h.GenerateRounds)
			r.Post("/start", h.StartInterview)
			r.Post("/questions/next", h.NextQuestion)
			r.Post("/responses", h.SubmitTextResponse)
			r.Post("/responses/audio", h.SubmitAudioResponse)
			r.Post("/rounds/current/skip", h.SkipRound)
			r.Post("/complete", h.CompleteInterview)
			r.Post("/abort", h.AbortSession)
			r.Get("/summary", h.GetSummary)
			r.Get("/report", h.GetReport)
		})
	})
}
