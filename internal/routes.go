package internal

import (
	"net/http"

	"deckd/internal/controllers"
	"deckd/internal/providers"
)

func InitRoutes(api *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/recordings", http.HandlerFunc(api.LoadRecording))
	routers.Get("/recordings", http.HandlerFunc(api.ListRecordings))
	routers.Get("/recording", http.HandlerFunc(api.ExportRecording))
	routers.Post("/recording/delete", http.HandlerFunc(api.DeleteRecording))

	routers.Get("/state", http.HandlerFunc(api.GetState))
	routers.Post("/navigate", http.HandlerFunc(api.Navigate))
	routers.Post("/display", http.HandlerFunc(api.SetDisplay))
	routers.Post("/annotation", http.HandlerFunc(api.UpdateAnnotation))
	routers.Post("/annotation/edit", http.HandlerFunc(api.EditAnnotation))
	routers.Post("/zoom", http.HandlerFunc(api.Zoom))
	routers.Post("/zoompan", http.HandlerFunc(api.UpdateZoomPan))
	routers.Post("/bookend", http.HandlerFunc(api.UpdateBookend))
	routers.Post("/slide/delete", http.HandlerFunc(api.DeleteSlide))

	routers.Get("/render", http.HandlerFunc(api.Render))
	routers.Get("/thumbnail", http.HandlerFunc(api.Thumbnail))
	routers.Get("/export/guide", http.HandlerFunc(api.ExportGuide))
	routers.Get("/export/scenario", http.HandlerFunc(api.ExportScenario))
	return routers
}
