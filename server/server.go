package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"curius/client"
	"curius/feed"
	"curius/models"
)

// Directory resolves profiles and adapts followed users into feed sources.
// *graph.Cache satisfies it.
type Directory interface {
	User(ctx context.Context, userLink string) (*models.User, error)
	Sources(users []models.FollowingUser) []feed.Source
}

type ServerConfig struct {

	// Resolves profiles and feed sources
	Directory Directory

	// Rewrite titles with saver attribution
	Attribution bool

	// How long an idle feed session survives between page requests
	SessionTTL time.Duration
}

// A feed session keeps a merge buffer alive between page requests so the
// next page continues where the previous one stopped.
type session struct {
	buffer   *feed.Buffer
	lastSeen time.Time
}

// Make it sync
type sessions struct {
	sync.Mutex
	ttl  time.Duration
	live map[string]*session
}

// Constructor
func newSessions(ttl time.Duration) *sessions {
	return &sessions{
		ttl:  ttl,
		live: make(map[string]*session),
	}
}

// checkout removes a session from the store so exactly one request drives
// its buffer at a time. Stale sessions are treated as gone.
func (s *sessions) checkout(key string) (*feed.Buffer, bool) {
	s.Lock()
	defer s.Unlock()

	sess, ok := s.live[key]
	if !ok {
		return nil, false
	}
	delete(s.live, key)
	if time.Since(sess.lastSeen) > s.ttl {
		log.WithFields(log.Fields{
			"key":   key,
			"count": len(s.live),
		}).Info("Expired feed session")
		return nil, false
	}
	return sess.buffer, true
}

// checkin stores a buffer under the given key, minting a fresh one when the
// key is empty, and sweeps out idle sessions.
func (s *sessions) checkin(key string, buffer *feed.Buffer) string {
	s.Lock()
	defer s.Unlock()

	for k, sess := range s.live {
		if time.Since(sess.lastSeen) > s.ttl {
			delete(s.live, k)
			log.WithFields(log.Fields{
				"key":   k,
				"count": len(s.live),
			}).Info("Expired feed session")
		}
	}

	if key == "" {
		key = uuid.New().String()
	}
	s.live[key] = &session{buffer: buffer, lastSeen: time.Now()}
	return key
}

// Returns a fiber.App instance to be used as an HTTP server for the curius
// merged feed
func Server(config *ServerConfig) *fiber.App {

	if config.SessionTTL <= 0 {
		config.SessionTTL = 5 * time.Minute
	}
	store := newSessions(config.SessionTTL)

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		// Diff
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	// Setup cache
	app.Use(cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {

			if c.Method() != "GET" {
				return true
			}

			// Feed pages are stateful and must never be cached
			if strings.HasPrefix(c.Path(), "/feed") {
				return true
			}

			// Only cache profile requests
			if strings.HasPrefix(c.Path(), "/profile") {
				log.WithFields(log.Fields{
					"path": c.Path(),
				}).Info("Cache request")
				return false
			}
			return true
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			// Get URL with query string to use as cache key
			url := c.Request().URI().String()
			// Include the query parameters in the cache key
			return url
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// Endpoint to fetch a curius profile
	app.Get("/profile/:user", func(c *fiber.Ctx) error {
		user, err := config.Directory.User(c.Context(), c.Params("user"))
		if err != nil {
			if errors.Is(err, client.ErrUserNotFound) {
				return c.Status(404).SendString("User not found")
			}
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error fetching profile")
			return c.Status(502).SendString("Error fetching profile")
		}
		return c.JSON(user)
	})

	// Endpoint to page through the merged feed of everyone a user follows.
	// The first request omits the cursor; every response carries the cursor
	// for the next page until the stream is exhausted.
	app.Get("/feed/:user", func(c *fiber.Ctx) error {
		cursor := c.Query("cursor", "")
		limit, err := strconv.ParseInt(c.Query("limit", "20"), 0, 32)
		if err != nil || limit < 1 || limit > 100 {
			limit = 20
		}

		log.WithFields(log.Fields{
			"user":   c.Params("user"),
			"cursor": cursor,
			"limit":  limit,
		}).Info("Generate feed page with parameters")

		var buffer *feed.Buffer
		if cursor != "" {
			live, ok := store.checkout(cursor)
			if !ok {
				return c.Status(400).SendString("Unknown or expired cursor")
			}
			buffer = live
		} else {
			user, err := config.Directory.User(c.Context(), c.Params("user"))
			if err != nil {
				if errors.Is(err, client.ErrUserNotFound) {
					return c.Status(404).SendString("User not found")
				}
				log.WithFields(log.Fields{
					"error": err,
				}).Error("Error resolving feed user")
				return c.Status(502).SendString("Error resolving feed user")
			}
			buffer = feed.New(config.Directory.Sources(user.FollowingUsers), config.Attribution)
		}

		links, err := buffer.GetNextN(c.Context(), int(limit))
		if err != nil {
			// Keep the session so the client can retry the same cursor.
			if cursor != "" {
				store.checkin(cursor, buffer)
			}
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error fetching feed page")
			return c.Status(502).SendString("Error fetching feed page")
		}

		if links == nil {
			links = []*models.Link{}
		}
		response := models.FeedResponse{Feed: links}
		if !buffer.IsExhausted() || buffer.Len() > 0 {
			next := store.checkin(cursor, buffer)
			response.Cursor = &next
		}
		return c.JSON(response)
	})

	return app
}
