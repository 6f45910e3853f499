package server

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
	"github.com/acarli/itemstore/internal/server/middlewares"
	"github.com/acarli/itemstore/internal/server/session"
)

// A Controller is an Inversion Of Control pattern used to init the server package.
type Controller struct {
	Version  string
	Database database.Client
	// JWT params
	SigningKey                []byte
	AccessTokenExpirationTime time.Duration
	// Items params
	RequireAuthOnRead  bool
	RequireAuthOnWrite bool
	ListLimit          int
	ListLimitMax       int
}

// EchoEngine instantiates the web server.
func EchoEngine(ctrl Controller) *echo.Echo {
	engine := echo.New()
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler

	////////////
	// Router //
	////////////

	sessions := session.NewManager(
		ctrl.Database,
		ctrl.SigningKey,
		ctrl.AccessTokenExpirationTime,
	)

	router := engine.Group("")

	// guard wraps protected routes when the matching policy flag is set.
	guard := func(enabled bool) []echo.MiddlewareFunc {
		if !enabled {
			return nil
		}
		return []echo.MiddlewareFunc{middlewares.Bearer(sessions)}
	}

	//
	// generic handlers
	//
	router.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "itemstore up and running",
			"status":  "ok",
			"version": ctrl.Version,
		})
	})
	router.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status": "healthy",
		})
	})
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})
	router.GET("/sysinfo", sysinfo)

	//
	// auth handlers
	//
	auth := &auth{
		db:       ctrl.Database,
		sessions: sessions,
	}
	router.POST("/login", auth.Login)

	//
	// item handlers
	//
	item := &item{
		db:           ctrl.Database,
		listLimit:    ctrl.ListLimit,
		listLimitMax: ctrl.ListLimitMax,
	}
	router.POST("/items", item.Create, guard(ctrl.RequireAuthOnWrite)...)
	router.GET("/items", item.List, guard(ctrl.RequireAuthOnRead)...)
	router.GET("/items/:id", item.Get, guard(ctrl.RequireAuthOnRead)...)
	router.PUT("/items/:id", item.Update, guard(ctrl.RequireAuthOnWrite)...)
	router.DELETE("/items/:id", item.Delete, guard(ctrl.RequireAuthOnWrite)...)

	return engine
}

// PrintRoutes prints the Echo engine exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

// sysinfo renders a few host and runtime facts for diagnostics.
func sysinfo(c echo.Context) error {
	hostname, _ := os.Hostname()
	return c.JSON(http.StatusOK, echo.Map{
		"hostname":   hostname,
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
		"pid":        os.Getpid(),
	})
}

func currentUser(c echo.Context) *model.User {
	user, ok := c.Get(middlewares.CurrentUserContextKey).(*model.User)
	if ok {
		return user
	}
	return nil
}
