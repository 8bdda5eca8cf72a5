package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/velomarket/rental-api/internal/log"
	"github.com/velomarket/rental-api/internal/metrics"
)

const (
	requestIDKey = "X-Request-ID"
	pathIDKey    = "pathID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDKey)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDKey, rid)
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// MongoChecker short-circuits with 500 when the store is unreachable,
// so handlers never see a dead connection.
func MongoChecker(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			log.Errorf("mongo connectivity: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Next()
	}
}

// ObjectIDRequired rejects malformed ids with 404 before any lookup
// happens, and parks the parsed id on the context for the handler.
func ObjectIDRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Set(pathIDKey, id)
		c.Next()
	}
}

func pathID(c *gin.Context) primitive.ObjectID {
	v, _ := c.Get(pathIDKey)
	id, _ := v.(primitive.ObjectID)
	return id
}
