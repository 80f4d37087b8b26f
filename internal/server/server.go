/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
patient handlers onto the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"chroniccare/internal/database"
	"chroniccare/internal/patient"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the database service and connection pool.
	db database.Service

	// handlers holds the patient and care-plan endpoints.
	handlers *patient.Handlers

	startTime time.Time
}

// NewServer builds a configured *http.Server with production network
// timeouts around the application router.
func NewServer(port int, db database.Service, handlers *patient.Handlers) *http.Server {
	app := &Server{
		port:      port,
		db:        db,
		handlers:  handlers,
		startTime: time.Now(),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,      // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second, // Maximum duration for reading the entire request.
		WriteTimeout: 30 * time.Second, // Maximum duration before timing out writes of the response.
	}
}
