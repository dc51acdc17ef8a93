package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool snapshot served by /health/db.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// Pinger is the part of the pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc returns a pool snapshot.
type StatsFunc func() PoolStats

// Stats snapshots a pgx pool.
func Stats(pool *pgxpool.Pool) StatsFunc {
	return func() PoolStats {
		stat := pool.Stat()
		return PoolStats{
			TotalConns:      stat.TotalConns(),
			IdleConns:       stat.IdleConns(),
			AcquiredConns:   stat.AcquiredConns(),
			MaxConns:        stat.MaxConns(),
			AcquireCount:    stat.AcquireCount(),
			AcquireDuration: stat.AcquireDuration().String(),
		}
	}
}

type healthResponse struct {
	Status string    `json:"status"`
	Error  *string   `json:"error"`
	Pool   PoolStats `json:"pool"`
}

// HealthHandler pings the database with a five second budget and reports the
// pool snapshot alongside the result.
func HealthHandler(p Pinger, stats StatsFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy", Pool: stats()}
		if err := p.Ping(ctx); err != nil {
			msg := err.Error()
			resp.Status = "unhealthy"
			resp.Error = &msg
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
