package graph

import (
	"context"
	"time"

	"github.com/samber/lo"

	"curius/feed"
	"curius/models"
)

// Sources adapts a list of followed users into merge feed sources backed by
// this cache's client.
func (c *Cache) Sources(users []models.FollowingUser) []feed.Source {
	return lo.Map(users, func(user models.FollowingUser, _ int) feed.Source {
		return &userSource{cache: c, user: user}
	})
}

type userSource struct {
	cache *Cache
	user  models.FollowingUser
}

func (s *userSource) ID() int64 {
	return s.user.Id
}

func (s *userSource) Name() string {
	return s.user.Name()
}

// ActivityBound reports when the user was last online, which bounds the
// newest save they can have. A missing or malformed value falls back to the
// far-future sentinel so the user is not ruled out before their first page.
func (s *userSource) ActivityBound() time.Time {
	if ts, ok := models.ParseTime(s.user.LastOnline); ok {
		return ts
	}
	return feed.MaxTimestamp
}

func (s *userSource) FetchPage(ctx context.Context, page int) ([]*models.Link, error) {
	return s.cache.LinksPage(ctx, s.user.Id, page)
}
