package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curius/feed"
	"curius/graph"
	"curius/models"
)

var errNotFound = errors.New("not found")

type fakeAPI struct {
	users    map[string]*models.User
	links    map[int64][]*models.Link
	pages    map[int64][][]*models.Link
	networks map[string]*models.Network

	userCalls    int
	linksCalls   int
	pageCalls    int
	networkCalls int
}

func (f *fakeAPI) User(_ context.Context, userLink string) (*models.User, error) {
	f.userCalls++
	if user, ok := f.users[userLink]; ok {
		return user, nil
	}
	return nil, errNotFound
}

func (f *fakeAPI) Links(_ context.Context, userId int64) ([]*models.Link, error) {
	f.linksCalls++
	return f.links[userId], nil
}

func (f *fakeAPI) LinksPage(_ context.Context, userId int64, page int) ([]*models.Link, error) {
	f.pageCalls++
	pages := f.pages[userId]
	if page >= len(pages) {
		return nil, nil
	}
	return pages[page], nil
}

func (f *fakeAPI) Network(_ context.Context, url string) (*models.Network, error) {
	f.networkCalls++
	if network, ok := f.networks[url]; ok {
		return network, nil
	}
	return nil, errNotFound
}

func TestUserIsFetchedOnce(t *testing.T) {
	api := &fakeAPI{users: map[string]*models.User{
		"ada": {Id: 1, FirstName: "Ada", UserLink: "ada"},
	}}
	cache := graph.NewCache(api)

	first, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)
	second, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, api.userCalls)

	byId, ok := cache.UserById(1)
	require.True(t, ok)
	assert.Same(t, first, byId)
}

func TestClearDropsCache(t *testing.T) {
	api := &fakeAPI{users: map[string]*models.User{
		"ada": {Id: 1, FirstName: "Ada", UserLink: "ada"},
	}}
	cache := graph.NewCache(api)

	_, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)
	cache.Clear()
	_, err = cache.User(context.Background(), "ada")
	require.NoError(t, err)

	assert.Equal(t, 2, api.userCalls)
}

func TestNetworkTriesCandidateSpellings(t *testing.T) {
	network := &models.Network{
		Link:      &models.Link{Id: 42, Url: "https://example.com/paper", Title: "Paper"},
		UserLinks: []string{"ada"},
	}
	api := &fakeAPI{networks: map[string]*models.Network{
		"https://example.com/paper": network,
	}}
	cache := graph.NewCache(api)

	got, err := cache.Network(context.Background(), "HTTP://example.com/paper/")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Link.Id)
	// Raw and normalized spellings miss before the https variant answers.
	assert.Equal(t, 3, api.networkCalls)

	again, err := cache.Network(context.Background(), "https://example.com/paper")
	require.NoError(t, err)
	assert.Same(t, got, again)
	assert.Equal(t, 3, api.networkCalls)
}

func TestNetworkMissReportsLastError(t *testing.T) {
	cache := graph.NewCache(&fakeAPI{})

	_, err := cache.Network(context.Background(), "https://example.com/void")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotFound)
	assert.Contains(t, err.Error(), "https://example.com/void")
}

func TestLinkSeenOnPageSkipsNetworkLookup(t *testing.T) {
	saved := &models.Link{Id: 7, Url: "https://example.com/a", Title: "A"}
	api := &fakeAPI{pages: map[int64][][]*models.Link{
		1: {{saved}},
	}}
	cache := graph.NewCache(api)

	_, err := cache.LinksPage(context.Background(), 1, 0)
	require.NoError(t, err)

	got, err := cache.LinkByUrl(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Same(t, saved, got)
	assert.Equal(t, 0, api.networkCalls)
}

func TestHighlightsComeFromNetwork(t *testing.T) {
	network := &models.Network{
		Link: &models.Link{Id: 9, Url: "https://example.com/h"},
		HighlightsByUser: map[int64][]models.Highlight{
			1: {{Id: 100, UserId: 1, LinkId: 9, Highlight: "the good part"}},
		},
	}
	api := &fakeAPI{networks: map[string]*models.Network{
		"https://example.com/h": network,
	}}
	cache := graph.NewCache(api)

	assert.Empty(t, cache.HighlightsForLink(9))

	_, err := cache.Network(context.Background(), "https://example.com/h")
	require.NoError(t, err)

	highlights := cache.HighlightsForLink(9)
	require.Len(t, highlights, 1)
	assert.Equal(t, "the good part", highlights[0].Highlight)
}

func expandFixture() *fakeAPI {
	return &fakeAPI{
		users: map[string]*models.User{
			"alice": {Id: 1, FirstName: "Alice", UserLink: "alice", FollowingUsers: []models.FollowingUser{
				{Id: 2, UserLink: "bob"},
				{Id: 3, UserLink: "carol"},
			}},
			"bob": {Id: 2, FirstName: "Bob", UserLink: "bob"},
			"carol": {Id: 3, FirstName: "Carol", UserLink: "carol", FollowingUsers: []models.FollowingUser{
				{Id: 1, UserLink: "alice"},
			}},
		},
		links: map[int64][]*models.Link{
			1: {{Id: 10, Url: "https://a"}, {Id: 11, Url: "https://b"}},
			2: {{Id: 12, Url: "https://c"}},
		},
	}
}

func TestExpandVisitsEachUserOnce(t *testing.T) {
	api := expandFixture()
	cache := graph.NewCache(api)

	stats, err := cache.Expand(context.Background(), "alice", 0)
	require.NoError(t, err)

	assert.Equal(t, graph.ExpandStats{Users: 3, Links: 3}, stats)
	assert.Equal(t, 3, api.userCalls)
	assert.Equal(t, 3, api.linksCalls)
}

func TestExpandHonorsLimit(t *testing.T) {
	api := expandFixture()
	cache := graph.NewCache(api)

	stats, err := cache.Expand(context.Background(), "alice", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 2, api.userCalls)
}

func TestSourcesAdaptFollowedUsers(t *testing.T) {
	api := &fakeAPI{pages: map[int64][][]*models.Link{
		7: {{{Id: 70, Url: "https://x", ModifiedDate: "2024-03-01T09:00:00Z"}}},
	}}
	cache := graph.NewCache(api)

	sources := cache.Sources([]models.FollowingUser{
		{Id: 7, FirstName: "Ada", LastName: "L", UserLink: "ada", LastOnline: "2024-03-01T10:00:00Z"},
		{Id: 8, FirstName: "Bo", UserLink: "bo", LastOnline: "whenever"},
	})
	require.Len(t, sources, 2)

	assert.Equal(t, int64(7), sources[0].ID())
	assert.Equal(t, "Ada L", sources[0].Name())
	assert.True(t, sources[0].ActivityBound().Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	// A garbled lastOnline keeps the user in play until their pages say otherwise.
	assert.True(t, sources[1].ActivityBound().Equal(feed.MaxTimestamp))

	page, err := sources[0].FetchPage(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(70), page[0].Id)
	assert.Equal(t, 1, api.pageCalls)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases scheme and host", in: "HTTP://Example.COM/Path", want: "http://example.com/Path"},
		{name: "drops query and fragment", in: "https://example.com/a?q=1#top", want: "https://example.com/a"},
		{name: "strips trailing slash", in: "https://example.com/a/", want: "https://example.com/a"},
		{name: "bare domain gets https", in: "example.com/page", want: "https://example.com/page"},
		{name: "root slash", in: "https://example.com/", want: "https://example.com"},
		{name: "surrounding whitespace", in: "  https://example.com/a  ", want: "https://example.com/a"},
		{name: "empty stays empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, graph.NormalizeURL(tt.in))
		})
	}
}

func TestCandidateURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "http gains https variant",
			in:   "http://example.com/a",
			want: []string{"http://example.com/a", "https://example.com/a"},
		},
		{
			name: "raw trailing slash",
			in:   "https://example.com/a/",
			want: []string{"https://example.com/a/", "https://example.com/a"},
		},
		{
			name: "pdf suffix",
			in:   "https://example.com/doc.pdf",
			want: []string{"https://example.com/doc.pdf", "https://example.com/doc"},
		},
		{
			name: "arxiv pdf maps to abs",
			in:   "https://arxiv.org/pdf/2401.00001.pdf",
			want: []string{
				"https://arxiv.org/pdf/2401.00001.pdf",
				"https://arxiv.org/pdf/2401.00001",
				"https://arxiv.org/abs/2401.00001",
			},
		},
		{
			name: "already canonical",
			in:   "https://example.com/a",
			want: []string{"https://example.com/a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, graph.CandidateURLs(tt.in))
		})
	}
}
