package tui

import (
	"context"
	"fmt"

	"curius/feed"
	"curius/graph"
	"curius/models"
)

// Config tunes the browser panes.
type Config struct {
	PageSize    int
	Attribution bool
}

// UserPane is the entry pane for one profile: their own links, who they
// follow, and the merged feed of everyone they follow.
func UserPane(cache *graph.Cache, user *models.User, cfg Config) *Pane {
	name := user.Name()
	pane := NewPane(name)

	self := []models.FollowingUser{{
		Id:         user.Id,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		UserLink:   user.UserLink,
		LastOnline: user.LastOnline,
	}}
	pane.Add("Links", &feedMarker{
		cache:    cache,
		title:    fmt.Sprintf("%s's Links", name),
		users:    self,
		pageSize: cfg.PageSize,
	})
	pane.Add("Following", &followingMarker{cache: cache, user: user, cfg: cfg})
	pane.Add("Feed", &feedMarker{
		cache:       cache,
		title:       fmt.Sprintf("%s's Feed", name),
		users:       user.FollowingUsers,
		pageSize:    cfg.PageSize,
		attribution: cfg.Attribution,
	})
	return pane
}

// linkNode opens its link in the default browser when selected.
type linkNode struct {
	link *models.Link
}

func (n *linkNode) Title() string {
	return n.link.Title
}

func (n *linkNode) Run() error {
	return openBrowser(n.link.Url)
}

// userMarker defers fetching a profile until it is entered.
type userMarker struct {
	cache *graph.Cache
	user  models.FollowingUser
	cfg   Config
}

func (m *userMarker) Title() string {
	return m.user.Name()
}

func (m *userMarker) Fetch(ctx context.Context) (*Pane, error) {
	user, err := m.cache.User(ctx, m.user.UserLink)
	if err != nil {
		return nil, err
	}
	return UserPane(m.cache, user, m.cfg), nil
}

type followingMarker struct {
	cache *graph.Cache
	user  *models.User
	cfg   Config
}

func (m *followingMarker) Title() string {
	return "Following"
}

func (m *followingMarker) Fetch(_ context.Context) (*Pane, error) {
	pane := NewPane(fmt.Sprintf("%s's Following", m.user.Name()))
	for _, following := range m.user.FollowingUsers {
		marker := &userMarker{cache: m.cache, user: following, cfg: m.cfg}
		pane.Add(marker.Title(), marker)
	}
	return pane, nil
}

type feedMarker struct {
	cache       *graph.Cache
	title       string
	users       []models.FollowingUser
	pageSize    int
	attribution bool
}

func (m *feedMarker) Title() string {
	return m.title
}

func (m *feedMarker) Fetch(ctx context.Context) (*Pane, error) {
	feedPane, err := NewFeedPane(ctx, m.title, m.cache.Sources(m.users), m.pageSize, m.attribution)
	if err != nil {
		return nil, err
	}
	return &feedPane.Pane, nil
}

// FeedPane pages through a merged feed. Pages already shown are kept, so
// Prev never refetches and Next only fetches past the newest page seen.
type FeedPane struct {
	Pane
	header   string
	buffer   *feed.Buffer
	pages    [][]*models.Link
	current  int
	pageSize int
}

func NewFeedPane(ctx context.Context, title string, sources []feed.Source, pageSize int, attribution bool) (*FeedPane, error) {
	if pageSize <= 0 {
		pageSize = 30
	}
	f := &FeedPane{
		Pane:     Pane{title: title},
		header:   title,
		buffer:   feed.New(sources, attribution),
		pageSize: pageSize,
	}
	if err := f.addPage(ctx); err != nil {
		return nil, err
	}
	f.refresh()
	return f, nil
}

func (f *FeedPane) addPage(ctx context.Context) error {
	if f.buffer.IsExhausted() && f.buffer.Len() == 0 {
		if len(f.pages) == 0 {
			f.pages = append(f.pages, nil)
		}
		return nil
	}
	links, err := f.buffer.GetNextN(ctx, f.pageSize)
	if err != nil {
		return err
	}
	if len(links) > 0 || len(f.pages) == 0 {
		f.pages = append(f.pages, links)
	}
	return nil
}

func (f *FeedPane) isLastPage() bool {
	if !f.buffer.IsExhausted() || f.buffer.Len() > 0 {
		return false
	}
	return f.current == len(f.pages)-1
}

func (f *FeedPane) refresh() {
	f.Clear()
	for _, link := range f.pages[f.current] {
		f.Add(link.Title, &linkNode{link: link})
	}
	if f.current != 0 {
		f.Add("Prev", &pageFlip{feed: f, delta: -1})
	}
	if !f.isLastPage() {
		f.Add("Next", &pageFlip{feed: f, delta: 1})
	}
	f.SetTitle(fmt.Sprintf("%s, Page %d", f.header, f.current+1))
}

func (f *FeedPane) flip(ctx context.Context, delta int) (*Pane, error) {
	next := f.current + delta
	if next < 0 {
		next = 0
	}
	if next >= len(f.pages) {
		if err := f.addPage(ctx); err != nil {
			return nil, err
		}
	}
	if next >= len(f.pages) {
		next = len(f.pages) - 1
	}
	f.current = next
	f.refresh()
	return &f.Pane, nil
}

// pageFlip turns the Prev/Next entries into markers that land back on the
// same pane, one page over.
type pageFlip struct {
	feed  *FeedPane
	delta int
}

func (p *pageFlip) Title() string {
	if p.delta < 0 {
		return "Prev"
	}
	return "Next"
}

func (p *pageFlip) Fetch(ctx context.Context) (*Pane, error) {
	return p.feed.flip(ctx, p.delta)
}
