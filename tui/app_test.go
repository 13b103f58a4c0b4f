package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curius/graph"
	"curius/models"
)

type fakeAPI struct {
	users map[string]*models.User
	pages map[int64][][]*models.Link
}

func (f *fakeAPI) User(_ context.Context, userLink string) (*models.User, error) {
	if user, ok := f.users[userLink]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) Links(_ context.Context, userId int64) ([]*models.Link, error) {
	return nil, nil
}

func (f *fakeAPI) LinksPage(_ context.Context, userId int64, page int) ([]*models.Link, error) {
	pages := f.pages[userId]
	if page >= len(pages) {
		return nil, nil
	}
	return pages[page], nil
}

func (f *fakeAPI) Network(_ context.Context, url string) (*models.Network, error) {
	return nil, errors.New("no network")
}

func browseFixture() *graph.Cache {
	return graph.NewCache(&fakeAPI{
		users: map[string]*models.User{
			"ada": {Id: 1, FirstName: "Ada", UserLink: "ada", FollowingUsers: []models.FollowingUser{
				{Id: 2, FirstName: "Bea", UserLink: "bea", LastOnline: "2024-05-01T00:00:00Z"},
			}},
			"bea": {Id: 2, FirstName: "Bea", UserLink: "bea"},
		},
		pages: map[int64][][]*models.Link{
			1: {{tsLink(11, "A1", "2024-03-01T00:00:00Z")}},
			2: {{tsLink(21, "B1", "2024-04-01T00:00:00Z")}},
		},
	})
}

func press(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	require.IsType(t, model{}, next)
	return next.(model)
}

func TestModelWalksPanesAndBack(t *testing.T) {
	cache := browseFixture()
	user, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)

	m := newModel(context.Background(), UserPane(cache, user, Config{PageSize: 10, Attribution: true}))
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	assert.Equal(t, "Ada", m.pane.Title())
	assert.Equal(t, []string{"Links", "Following", "Feed"}, m.pane.Keys())

	// Down to Following, enter.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Ada's Following", m.pane.Title())
	assert.Equal(t, []string{"Back", "Bea"}, m.pane.Keys())

	// Down to Bea, enter.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Bea", m.pane.Title())
	assert.Equal(t, []string{"Back", "Links", "Following", "Feed"}, m.pane.Keys())

	// Esc twice walks back up.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "Ada's Following", m.pane.Title())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "Ada", m.pane.Title())

	// At the root there is nowhere further back.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "Ada", m.pane.Title())
}

func TestModelFeedCarriesAttribution(t *testing.T) {
	cache := browseFixture()
	user, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)

	m := newModel(context.Background(), UserPane(cache, user, Config{PageSize: 10, Attribution: true}))
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})

	// Down twice to Feed, enter.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Ada's Feed, Page 1", m.pane.Title())
	assert.Equal(t, []string{"Back", "Bea | B1"}, m.pane.Keys())
}

func TestModelOwnLinksSkipAttribution(t *testing.T) {
	cache := browseFixture()
	user, err := cache.User(context.Background(), "ada")
	require.NoError(t, err)

	m := newModel(context.Background(), UserPane(cache, user, Config{PageSize: 10, Attribution: true}))
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})

	// Links is the first entry.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Ada's Links, Page 1", m.pane.Title())
	assert.Equal(t, []string{"Back", "A1"}, m.pane.Keys())
}

func TestModelKeepsPaneOnFetchError(t *testing.T) {
	pane := NewPane("root")
	pane.Add("Boom", &stubMarker{title: "Boom", err: errors.New("boom")})

	m := newModel(context.Background(), pane)
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "root", m.pane.Title())
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "boom")
}

func TestModelCancelReachesPaneFetch(t *testing.T) {
	pane := NewPane("root")
	pane.Add("Feed", &stubMarker{title: "Feed", pane: NewPane("fetched")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newModel(ctx, pane)
	m = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "root", m.pane.Title())
	assert.ErrorIs(t, m.err, context.Canceled)
}
