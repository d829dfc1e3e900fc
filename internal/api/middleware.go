// Package api contains the HTTP handlers and routing for the payment bridge.
package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/setto/setto-payments/internal/logger"
)

const maxCallbackBody = 64 << 10

// CORSMiddleware only lets listed web origins through. Requests without an
// Origin header (native hosts, top-level navigations) pass untouched;
// requests from any other origin, preflights included, get 403.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if _, ok := allowed[origin]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Success: false,
				Error:   "origin not allowed",
				Code:    "ORIGIN_NOT_ALLOWED",
			})
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Request-ID, "+SignatureHeader)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// NavigationOnlyMiddleware rejects requests a page issues from script or
// subresources (fetch, img, iframe), leaving only top-level navigations such
// as the wallet's return redirect. Clients that send no Sec-Fetch-Mode pass.
func NavigationOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode := c.GetHeader("Sec-Fetch-Mode"); mode != "" && mode != "navigate" {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Success: false,
				Error:   "callback must be a top-level navigation",
				Code:    "NAVIGATION_REQUIRED",
			})
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggerMiddleware logs each request once it completes. Query strings are
// left out since deep-link returns carry payment identifiers.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  c.GetString("request_id"),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields)
			return
		}
		log.Debug("request handled", fields)
	}
}

// CallbackSignatureMiddleware rejects requests without a valid
// X-Setto-Signature. With an empty secret every request is accepted.
func CallbackSignatureMiddleware(secret string, log logger.Logger) gin.HandlerFunc {
	validator := NewSignatureValidator(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "failed to read request body",
				Code:    "INVALID_BODY",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !validator.Validate(c.GetHeader(SignatureHeader), c.GetHeader("X-Request-ID"), body) {
			log.Warn("callback signature rejected", map[string]any{
				"request_id": c.GetString("request_id"),
				"path":       c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "invalid callback signature",
				Code:    "INVALID_SIGNATURE",
			})
			return
		}

		c.Next()
	}
}
