// Package graph holds the session-scoped cache of curius entities and the
// traversals over them. One Cache lives for one session and everything it
// memoizes is dropped on Clear, so no state leaks between sessions.
package graph

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"curius/models"
)

// API is the part of the curius client the cache consumes.
type API interface {
	User(ctx context.Context, userLink string) (*models.User, error)
	Links(ctx context.Context, userId int64) ([]*models.Link, error)
	LinksPage(ctx context.Context, userId int64, page int) ([]*models.Link, error)
	Network(ctx context.Context, url string) (*models.Network, error)
}

// Cache memoizes curius lookups by identity. It is not safe for concurrent
// use.
type Cache struct {
	api API

	usersById        map[int64]*models.User
	usersByLink      map[string]*models.User
	linksById        map[int64]*models.Link
	linksByUrl       map[string]*models.Link
	linksByUser      map[int64][]*models.Link
	networksByUrl    map[string]*models.Network
	networksByLinkId map[int64]*models.Network
	highlightsByLink map[int64][]models.Highlight
}

func NewCache(api API) *Cache {
	c := &Cache{api: api}
	c.reset()
	return c
}

// Clear drops everything memoized so far.
func (c *Cache) Clear() {
	log.Info("Clearing session cache")
	c.reset()
}

func (c *Cache) reset() {
	c.usersById = make(map[int64]*models.User)
	c.usersByLink = make(map[string]*models.User)
	c.linksById = make(map[int64]*models.Link)
	c.linksByUrl = make(map[string]*models.Link)
	c.linksByUser = make(map[int64][]*models.Link)
	c.networksByUrl = make(map[string]*models.Network)
	c.networksByLinkId = make(map[int64]*models.Network)
	c.highlightsByLink = make(map[int64][]models.Highlight)
}

// User resolves a profile by user link, hitting the API only on a miss.
func (c *Cache) User(ctx context.Context, userLink string) (*models.User, error) {
	if user, ok := c.usersByLink[userLink]; ok {
		log.WithFields(log.Fields{"userLink": userLink}).Debug("User cache hit")
		return user, nil
	}
	user, err := c.api.User(ctx, userLink)
	if err != nil {
		return nil, err
	}
	c.cacheUser(user)
	return user, nil
}

// UserById returns an already cached profile, if any.
func (c *Cache) UserById(userId int64) (*models.User, bool) {
	user, ok := c.usersById[userId]
	return user, ok
}

// Links resolves a user's full saved-link list, memoized per user.
func (c *Cache) Links(ctx context.Context, userId int64) ([]*models.Link, error) {
	if links, ok := c.linksByUser[userId]; ok {
		log.WithFields(log.Fields{"userId": userId}).Debug("Links cache hit")
		return links, nil
	}
	links, err := c.api.Links(ctx, userId)
	if err != nil {
		return nil, err
	}
	c.linksByUser[userId] = links
	for _, link := range links {
		c.cacheLink(link)
	}
	return links, nil
}

// LinksPage streams one page of a user's links through the cache: the page
// itself is not memoized, but every link on it is.
func (c *Cache) LinksPage(ctx context.Context, userId int64, page int) ([]*models.Link, error) {
	links, err := c.api.LinksPage(ctx, userId, page)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		c.cacheLink(link)
	}
	return links, nil
}

// Network resolves the cross-user view of a URL, trying each canonical
// candidate until one answers. The result is cached under every candidate
// so later spellings of the same URL hit the cache.
func (c *Cache) Network(ctx context.Context, target string) (*models.Network, error) {
	candidates := CandidateURLs(target)
	for _, candidate := range candidates {
		if network, ok := c.networksByUrl[candidate]; ok {
			log.WithFields(log.Fields{"url": candidate}).Debug("Network cache hit")
			return network, nil
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		network, err := c.api.Network(ctx, candidate)
		if err != nil {
			lastErr = err
			log.WithFields(log.Fields{"url": candidate}).Debug("Network lookup failed, trying next candidate")
			continue
		}
		c.cacheNetwork(network, candidates)
		return network, nil
	}
	return nil, fmt.Errorf("no network for %s: %w", target, lastErr)
}

// LinkByUrl resolves a link record by URL, via the network endpoint when it
// is not already cached under any candidate spelling.
func (c *Cache) LinkByUrl(ctx context.Context, target string) (*models.Link, error) {
	for _, candidate := range CandidateURLs(target) {
		if link, ok := c.linksByUrl[candidate]; ok {
			return link, nil
		}
	}
	network, err := c.Network(ctx, target)
	if err != nil {
		return nil, err
	}
	return network.Link, nil
}

// HighlightsForLink returns the highlights gathered so far for a link. Only
// cached data is consulted; resolve the link's network first to fill it.
func (c *Cache) HighlightsForLink(linkId int64) []models.Highlight {
	if highlights, ok := c.highlightsByLink[linkId]; ok {
		return highlights
	}
	if link, ok := c.linksById[linkId]; ok && len(link.Highlights) > 0 {
		c.highlightsByLink[linkId] = link.Highlights
		return link.Highlights
	}
	return nil
}

func (c *Cache) cacheUser(user *models.User) {
	c.usersById[user.Id] = user
	c.usersByLink[user.UserLink] = user
}

func (c *Cache) cacheLink(link *models.Link) {
	c.linksById[link.Id] = link
	c.linksByUrl[link.Url] = link
	if len(link.Highlights) > 0 {
		c.highlightsByLink[link.Id] = link.Highlights
	}
}

func (c *Cache) cacheNetwork(network *models.Network, candidates []string) {
	for _, candidate := range candidates {
		c.networksByUrl[candidate] = network
	}
	c.networksByUrl[network.Link.Url] = network
	c.networksByLinkId[network.Link.Id] = network
	c.cacheLink(network.Link)

	var highlights []models.Highlight
	for _, userHighlights := range network.HighlightsByUser {
		highlights = append(highlights, userHighlights...)
	}
	if len(highlights) > 0 {
		c.highlightsByLink[network.Link.Id] = highlights
	}
}

// ExpandStats summarizes a crawl of the following graph.
type ExpandStats struct {
	Users int
	Links int
}

// Expand walks the following graph depth-first from a start user, warming
// the cache with every profile and saved-link list it passes. At most limit
// users are visited; limit <= 0 removes the bound.
func (c *Cache) Expand(ctx context.Context, startUserLink string, limit int) (ExpandStats, error) {
	var stats ExpandStats
	visited := make(map[string]struct{})
	stack := []string{startUserLink}

	for len(stack) > 0 {
		if limit > 0 && stats.Users >= limit {
			break
		}
		userLink := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[userLink]; seen {
			continue
		}
		visited[userLink] = struct{}{}

		user, err := c.User(ctx, userLink)
		if err != nil {
			return stats, fmt.Errorf("expanding %s: %w", userLink, err)
		}
		stats.Users++

		for _, following := range user.FollowingUsers {
			if _, seen := visited[following.UserLink]; !seen {
				stack = append(stack, following.UserLink)
			}
		}

		links, err := c.Links(ctx, user.Id)
		if err != nil {
			return stats, fmt.Errorf("expanding links of %s: %w", userLink, err)
		}
		stats.Links += len(links)

		log.WithFields(log.Fields{
			"user":  user.Name(),
			"links": len(links),
			"seen":  stats.Users,
		}).Info("Expanded user")
	}
	return stats, nil
}
