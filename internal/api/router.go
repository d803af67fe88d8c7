package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datallboy/gospool/internal/api/controllers"
	"github.com/datallboy/gospool/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {
	log := app.Logger.Named("http")

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	articleCtrl := &controllers.ArticleController{App: app}
	groupCtrl := &controllers.GroupController{App: app}

	e.GET("/articles/:id", articleCtrl.HandleContent)
	e.GET("/articles/:id/head", articleCtrl.HandleHead)
	e.GET("/articles/:id/body", articleCtrl.HandleBody)
	e.POST("/articles", articleCtrl.HandlePost)

	e.GET("/groups", groupCtrl.HandleList)
	e.GET("/groups/:group/overview", groupCtrl.HandleOverview)

	e.GET("/newnews", articleCtrl.HandleNewNews)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
