package middleware

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

const viewerIssuer = "feedhub-dashboard"

var ErrMissingSecret = errors.New("middleware: dashboard secret is required")

type AuthConfig struct {
    Secret string
}

// ViewerClaims scope a dashboard token to a single room.
type ViewerClaims struct {
    PIN string `json:"pin"`
    jwt.RegisteredClaims
}

// IssueViewerToken signs a token that opens the dashboard of pin for ttl.
func IssueViewerToken(secret, pin string, ttl time.Duration) (string, error) {
    if secret == "" {
        return "", ErrMissingSecret
    }
    now := time.Now()
    claims := ViewerClaims{
        PIN: pin,
        RegisteredClaims: jwt.RegisteredClaims{
            ID:        uuid.NewString(),
            Issuer:    viewerIssuer,
            Subject:   pin,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
        },
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ViewerAuth accepts a bearer token, or a ?token= query parameter for
// browsers opening the WebSocket, and requires its pin to match :pin.
func ViewerAuth(cfg AuthConfig) gin.HandlerFunc {
    return func(c *gin.Context) {
        tokenStr := c.Query("token")
        if auth := c.GetHeader("Authorization"); auth != "" {
            if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
                c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
                return
            }
            tokenStr = strings.TrimSpace(auth[len("Bearer "):])
        }
        if tokenStr == "" {
            c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing viewer token"})
            return
        }

        claims := &ViewerClaims{}
        token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
            return []byte(cfg.Secret), nil
        }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(viewerIssuer))
        if err != nil || !token.Valid {
            c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
            return
        }
        if claims.PIN != c.Param("pin") {
            c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token not valid for this room"})
            return
        }

        c.Set("viewer_pin", claims.PIN)
        c.Next()
    }
}
