package models

import (
	"errors"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Epoch is substituted when a record carries no parseable timestamp.
var Epoch = time.Unix(0, 0).UTC()

// ParseTime parses the RFC 3339 timestamps used by the curius API.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// Link is a saved link as returned by the curius API.
type Link struct {
	Id           int64          `json:"id"`
	Url          string         `json:"link"`
	Title        string         `json:"title"`
	Favorite     bool           `json:"favorite,omitempty"`
	Snippet      string         `json:"snippet,omitempty"`
	ToRead       bool           `json:"toRead,omitempty"`
	CreatedBy    int64          `json:"createdBy,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedDate  string         `json:"createdDate,omitempty"`
	ModifiedDate string         `json:"modifiedDate,omitempty"`
	LastCrawled  string         `json:"lastCrawled,omitempty"`
	Highlights   []Highlight    `json:"highlights,omitempty"`
	UserIds      []int64        `json:"userIds,omitempty"`
	Trails       []any          `json:"trails,omitempty"`
	Comments     []any          `json:"comments,omitempty"`
	Mentions     []any          `json:"mentions,omitempty"`

	originalTitle string
}

// Timestamp returns the link's recency: the modified date when parseable,
// else the created date, else the epoch. It never fails.
func (l *Link) Timestamp() time.Time {
	if ts, ok := ParseTime(l.ModifiedDate); ok {
		return ts
	}
	if ts, ok := ParseTime(l.CreatedDate); ok {
		return ts
	}
	return Epoch
}

// SetTitle replaces the display title. The title as first fetched is kept
// aside so repeated rewrites stay based on it.
func (l *Link) SetTitle(title string) {
	if l.originalTitle == "" {
		l.originalTitle = l.Title
	}
	l.Title = title
}

// OriginalTitle returns the title as fetched, before any SetTitle rewrite.
func (l *Link) OriginalTitle() string {
	if l.originalTitle != "" {
		return l.originalTitle
	}
	return l.Title
}

// User is a full curius profile.
type User struct {
	Id             int64           `json:"id"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	UserLink       string          `json:"userLink"`
	School         string          `json:"school,omitempty"`
	Twitter        string          `json:"twitter,omitempty"`
	Website        string          `json:"website,omitempty"`
	CreatedDate    string          `json:"createdDate,omitempty"`
	ModifiedDate   string          `json:"modifiedDate,omitempty"`
	LastOnline     string          `json:"lastOnline,omitempty"`
	Views          int64           `json:"views,omitempty"`
	NumFollowers   int64           `json:"numFollowers,omitempty"`
	FollowingUsers []FollowingUser `json:"followingUsers,omitempty"`
	RecentUsers    []User          `json:"recentUsers,omitempty"`
}

func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// FollowingUser is the trimmed profile embedded in a user's following list.
type FollowingUser struct {
	Id         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	UserLink   string `json:"userLink"`
	LastOnline string `json:"lastOnline,omitempty"`
}

func (u *FollowingUser) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Highlight is a text selection a user made on a link.
type Highlight struct {
	Id           int64  `json:"id"`
	UserId       int64  `json:"userId"`
	LinkId       int64  `json:"linkId"`
	Highlight    string `json:"highlight"`
	CreatedDate  string `json:"createdDate,omitempty"`
	LeftContext  string `json:"leftContext,omitempty"`
	RightContext string `json:"rightContext,omitempty"`
}

// Network describes how one link spread: which users saved it, when, and
// what they highlighted.
type Network struct {
	Link             *Link
	UserLinks        []string
	SavedDates       map[int64]string
	HighlightsByUser map[int64][]Highlight
	ReadCount        int
	UserIds          []int64
}

// HighlightsFor returns the highlights a given user made on the link.
func (n *Network) HighlightsFor(userId int64) []Highlight {
	return n.HighlightsByUser[userId]
}

// FeedResponse is the page shape served over HTTP. A nil cursor means the
// merged stream is exhausted.
type FeedResponse struct {
	Feed   []*Link `json:"feed"`
	Cursor *string `json:"cursor"`
}

// ErrMalformedNetwork reports a network payload without usable link data.
var ErrMalformedNetwork = errors.New("models: network payload missing link data")

type networkUser struct {
	Id        int64  `json:"id"`
	UserLink  string `json:"userLink"`
	SavedDate string `json:"savedDate"`
}

type networkBody struct {
	Id         *int64          `json:"id"`
	Link       json.RawMessage `json:"link"`
	Users      []networkUser   `json:"users"`
	Highlights [][]Highlight   `json:"highlights"`
	ReadCount  int             `json:"readCount"`
	UserIds    []int64         `json:"userIds"`
}

// ParseNetworkPayload decodes the /links/url/network response. The endpoint
// is loose about shape: the body may be wrapped in a networkInfo object, and
// the link may be the body itself or nested under a link key.
func ParseNetworkPayload(data []byte) (*Network, error) {
	var envelope struct {
		NetworkInfo json.RawMessage `json:"networkInfo"`
		Link        json.RawMessage `json:"link"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, ErrMalformedNetwork
	}
	body := data
	if isObject(envelope.NetworkInfo) {
		body = envelope.NetworkInfo
	}
	var nb networkBody
	if err := json.Unmarshal(body, &nb); err != nil {
		return nil, ErrMalformedNetwork
	}

	link := &Link{}
	switch {
	case nb.Id != nil && len(nb.Link) > 0 && !isObject(nb.Link):
		// The body itself is the link record, its link key holding the URL.
		if err := json.Unmarshal(body, link); err != nil {
			return nil, ErrMalformedNetwork
		}
	case isObject(nb.Link):
		if err := json.Unmarshal(nb.Link, link); err != nil {
			return nil, ErrMalformedNetwork
		}
	case isObject(envelope.Link):
		if err := json.Unmarshal(envelope.Link, link); err != nil {
			return nil, ErrMalformedNetwork
		}
	default:
		return nil, ErrMalformedNetwork
	}
	if link.Id == 0 || link.Url == "" {
		return nil, ErrMalformedNetwork
	}

	network := &Network{
		Link:             link,
		SavedDates:       make(map[int64]string),
		HighlightsByUser: make(map[int64][]Highlight),
		ReadCount:        nb.ReadCount,
		UserIds:          nb.UserIds,
	}
	linked := lo.Filter(nb.Users, func(u networkUser, _ int) bool { return u.UserLink != "" })
	network.UserLinks = lo.Map(linked, func(u networkUser, _ int) string { return u.UserLink })
	// Highlights arrive as one list per user with a userLink, in order.
	for i, u := range linked {
		if i < len(nb.Highlights) {
			network.HighlightsByUser[u.Id] = nb.Highlights[i]
		}
	}
	for _, u := range nb.Users {
		if u.Id != 0 {
			network.SavedDates[u.Id] = u.SavedDate
		}
	}
	return network, nil
}

func isObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c == '{'
		}
	}
	return false
}
