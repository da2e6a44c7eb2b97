package middleware

import (
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through logrus in place of gin's
// default stdout logger.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
    return func(c *gin.Context) {
        start := time.Now()
        c.Next()

        entry := log.WithFields(logrus.Fields{
            "method":  c.Request.Method,
            "path":    c.FullPath(),
            "status":  c.Writer.Status(),
            "latency": time.Since(start).String(),
        })
        if pin := c.Param("pin"); pin != "" {
            entry = entry.WithField("pin", pin)
        }
        switch {
        case len(c.Errors) > 0:
            entry.WithError(c.Errors.Last()).Error("request failed")
        case c.Writer.Status() >= 500:
            entry.Error("request failed")
        default:
            entry.Info("request")
        }
    }
}
