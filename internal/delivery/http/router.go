package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventcatalog/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController, compilationController *controllers.CompilationController) *http.ServeMux {
	mux := http.NewServeMux()

	// Public catalog
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events/{eventID}/like", eventController.LikeEvent)
	mux.HandleFunc("GET /compilations", compilationController.ListCompilations)
	mux.HandleFunc("GET /compilations/{compID}", compilationController.GetCompilation)

	// Initiator
	mux.HandleFunc("GET /users/{userID}/events", eventController.ListOwnEvents)
	mux.HandleFunc("POST /users/{userID}/events", eventController.CreateEvent)
	mux.HandleFunc("GET /users/{userID}/events/{eventID}", eventController.GetOwnEvent)
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}", eventController.UpdateEvent)
	mux.HandleFunc("GET /users/{userID}/recommendations", eventController.GetRecommendations)

	// Admin
	mux.HandleFunc("PATCH /admin/events/{eventID}", eventController.ModerateEvent)
	mux.HandleFunc("POST /admin/compilations", compilationController.CreateCompilation)
	mux.HandleFunc("PATCH /admin/compilations/{compID}", compilationController.UpdateCompilation)
	mux.HandleFunc("DELETE /admin/compilations/{compID}", compilationController.DeleteCompilation)

	// Service-to-service
	mux.HandleFunc("GET /internal/events/{eventID}/owner/{userID}", eventController.CheckOwnership)
	mux.HandleFunc("PUT /internal/events", eventController.SyncEvent)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
