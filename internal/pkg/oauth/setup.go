package oauth

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/cache"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
)

// Setup initializes the Google Business Profile OAuth provider and the
// session store holding OAuth state. Safe to call multiple times; providers
// will just be re-registered.
func Setup() {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	provider := google.New(
		env.GetEnv("GOOGLE_KEY", ""),
		env.GetEnv("GOOGLE_SECRET", ""),
		base+"/api/google/auth/google/callback",
		"https://www.googleapis.com/auth/business.manage",
	)
	// Offline access with forced consent so Google hands out a refresh
	// token; automation depends on refreshing without the user present.
	provider.SetAccessType("offline")
	provider.SetPrompt("consent")
	goth.UseProviders(provider)

	// OAuth state via Redis, using same connection as the app cache
	cacheClient := cache.GetClient()
	cacheOpts := cacheClient.Options()
	host, port := "127.0.0.1", 6379
	if cacheOpts != nil && cacheOpts.Addr != "" {
		if h, p, err := net.SplitHostPort(cacheOpts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		} else {
			host = cacheOpts.Addr
		}
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Username: cacheOpts.Username,
			Password: cacheOpts.Password,
			Database: 2,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     72 * time.Hour,
	})
}
