package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "cart_session"
	SessionHeaderName = "X-Cart-Session"
	sessionContextKey = "session_id"
	sessionIssuer     = "crystal-shop"
)

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: ttl}
}

func (s *SessionSigner) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionSigner) Parse(tokenString string) (string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errors.New("session token has no session id")
	}
	return claims.SessionID, nil
}

// SessionMiddleware resolves the shopper session from the signed cookie (or
// the X-Cart-Session header) and starts a new one when neither is valid.
func SessionMiddleware(signer *SessionSigner, secure bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			token = c.GetHeader(SessionHeaderName)
		}

		sessionID := ""
		if token != "" {
			if sid, err := signer.Parse(token); err == nil {
				sessionID = sid
			} else {
				logger.Debug("rejecting session token", zap.Error(err))
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			signed, err := signer.Issue(sessionID)
			if err != nil {
				logger.Error("failed to sign session token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Failed to start session",
				})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, signed, int(signer.ttl.Seconds()), "/", "", secure, true)
			c.Header(SessionHeaderName, signed)
		}

		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

// EndSession expires the session cookie.
func EndSession(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
