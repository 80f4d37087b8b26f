package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/", s.rootHandler)
	e.GET("/health", s.healthHandler)

	// Patient records
	e.POST("/patient", s.handlers.AddPatient)
	e.GET("/patient/:patient_id", s.handlers.GetPatient)

	// Test results
	e.POST("/test", s.handlers.AddTest)
	e.GET("/test/latest/:patient_id", s.handlers.GetLatestTest)

	// Stored plans and logs
	e.POST("/diet", s.handlers.SaveDiet)
	e.GET("/diet/:patient_id/:day", s.handlers.GetDiet)
	e.POST("/activity", s.handlers.LogActivity)
	e.GET("/activity/:patient_id/:date", s.handlers.GetActivity)
	e.POST("/medication", s.handlers.SaveMedication)
	e.GET("/medication/:patient_id", s.handlers.GetMedication)

	// Trend analysis and alerts
	e.GET("/trend/:patient_id", s.handlers.GetTrend)
	e.GET("/alert/:patient_id", s.handlers.GetAlert)

	// Care-plan generation
	e.POST("/plan", s.handlers.CreatePlan)
	e.POST("/plan/text", s.handlers.CreatePlanFromText)
	e.POST("/plan/weekly", s.handlers.UpdateWeeklyPlan)
	e.POST("/plan/feedback", s.handlers.UpdatePlanWithFeedback)
	e.POST("/plan/explain", s.handlers.ExplainPlan)

	// Direct LLM access
	e.POST("/ask", s.handlers.Ask)

	return e
}

func (s *Server) rootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "Backend connected"})
}

// healthHandler reports database pool stats plus system-level metrics.
func (s *Server) healthHandler(c echo.Context) error {
	system := map[string]any{
		"uptime": time.Since(s.startTime).String(),
	}
	if hInfo, err := host.Info(); err == nil {
		system["os"] = hInfo.OS
		system["platform"] = hInfo.Platform
		system["hostname"] = hInfo.Hostname
	}
	if v, err := mem.VirtualMemory(); err == nil {
		system["memory"] = map[string]string{
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
		}
	}
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		system["cpu_percent"] = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "online",
		"database": s.db.Health(c.Request().Context()),
		"system":   system,
	})
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
