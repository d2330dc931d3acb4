package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/pkg/logger"
)

// actorKey is the echo.Context key the authenticated caller is stored under.
const actorKey = "actor"

// Auth validates the bearer token and injects the caller as a domain.Actor.
// Only the subject is required; email and name are copied when present.
func Auth(jwtSecret, issuer string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, issuer, false)
}

// WebSocketAuth is Auth for the websocket upgrade. Browsers cannot set
// headers on the handshake, so the token may also arrive as ?token=.
func WebSocketAuth(jwtSecret, issuer string) echo.MiddlewareFunc {
	return authenticate(jwtSecret, issuer, true)
}

func authenticate(jwtSecret, issuer string, allowQuery bool) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c, allowQuery)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims.GetSubject()
			if strings.TrimSpace(sub) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			email, _ := claims["email"].(string)
			name, _ := claims["name"].(string)

			c.Set(actorKey, domain.Actor{
				ExternalID: domain.ExternalID(sub),
				Email:      email,
				Name:       name,
			})
			logger.Annotate(c.Request().Context(), "actor", sub)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if t := c.QueryParam("token"); t != "" {
				return t, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// ActorFrom returns the caller injected by Auth. The zero Actor means the
// request was not authenticated; services reject it with ErrUnauthenticated.
func ActorFrom(c echo.Context) domain.Actor {
	actor, _ := c.Get(actorKey).(domain.Actor)
	return actor
}

// WithActor stores actor on the context. Tests use it in place of Auth.
func WithActor(c echo.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}
