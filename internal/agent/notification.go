package agent

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
)

const (
	defaultTitle = "Coach"
	defaultIcon  = "/icons/icon-192.png"
	defaultBadge = "/icons/badge-72.png"
	defaultTag   = "general"
)

// Notification is a displayable system notification with its target
// route attached.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// DecodePayload turns a delivered push payload into a Notification.
// The payload is a tagged variant at this boundary: structured JSON
// when well-formed, otherwise the raw text becomes the body under a
// default title.
func DecodePayload(raw []byte) Notification {
	var n Notification
	if err := json.Unmarshal(raw, &n); err == nil && n.Title != "" {
		applyDefaults(&n)
		return n
	}
	n = Notification{
		Title: defaultTitle,
		Body:  strings.TrimSpace(string(raw)),
	}
	applyDefaults(&n)
	return n
}

func applyDefaults(n *Notification) {
	if n.Icon == "" {
		n.Icon = defaultIcon
	}
	if n.Badge == "" {
		n.Badge = defaultBadge
	}
	if n.URL == "" {
		n.URL = "/"
	}
	if n.Tag == "" {
		n.Tag = defaultTag
	}
}

// Presenter renders a notification to the user.
type Presenter interface {
	Show(n Notification)
}

// Window is one open application view.
type Window interface {
	Location() string
	Focus()
	Navigate(url string)
}

// WindowRegistry exposes the currently open application windows and can
// open new ones.
type WindowRegistry interface {
	Windows() []Window
	Open(url string)
}

// Notifier displays inbound push payloads and routes notification
// clicks back into the app. Notifications are keyed by tag so repeated
// pushes about the same topic replace instead of stacking.
type Notifier struct {
	mu        sync.Mutex
	displayed map[string]Notification
	presenter Presenter
	windows   WindowRegistry
	scope     string
}

// NewNotifier constructs a Notifier. scope is the app origin prefix an
// open window must match to be reused on click.
func NewNotifier(presenter Presenter, windows WindowRegistry, scope string) *Notifier {
	return &Notifier{
		displayed: make(map[string]Notification),
		presenter: presenter,
		windows:   windows,
		scope:     scope,
	}
}

// HandlePush decodes and displays one delivered payload, returning the
// rendered notification.
func (n *Notifier) HandlePush(raw []byte) Notification {
	notification := DecodePayload(raw)

	n.mu.Lock()
	n.displayed[notification.Tag] = notification
	n.mu.Unlock()

	n.presenter.Show(notification)
	return notification
}

// Displayed returns the notification currently shown for a tag.
func (n *Notifier) Displayed(tag string) (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notification, ok := n.displayed[tag]
	return notification, ok
}

// RouteResult reports how a notification click was resolved.
type RouteResult struct {
	Action string `json:"action"` // "focus" or "open"
	URL    string `json:"url"`
}

// Click resolves a user interaction with a displayed notification:
// focus and navigate an open in-scope window when one exists, open a
// new one otherwise. The notification is dismissed either way.
func (n *Notifier) Click(tag string) RouteResult {
	n.mu.Lock()
	notification, ok := n.displayed[tag]
	delete(n.displayed, tag)
	n.mu.Unlock()

	url := "/"
	if ok && notification.URL != "" {
		url = notification.URL
	}

	for _, w := range n.windows.Windows() {
		if strings.HasPrefix(w.Location(), n.scope) {
			w.Focus()
			w.Navigate(url)
			return RouteResult{Action: "focus", URL: url}
		}
	}
	n.windows.Open(url)
	return RouteResult{Action: "open", URL: url}
}

// LogPresenter logs displayed notifications. The real rendering happens
// in the client shell; the server keeps the authoritative state.
type LogPresenter struct{}

func (LogPresenter) Show(n Notification) {
	log.Printf("notification displayed tag=%s title=%q url=%s", n.Tag, n.Title, n.URL)
}

// NoWindows is a registry with no open windows: every click resolves to
// opening a new one.
type NoWindows struct{}

func (NoWindows) Windows() []Window { return nil }
func (NoWindows) Open(url string)   { log.Printf("notification open window url=%s", url) }
