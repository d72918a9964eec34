package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPresenter struct {
	shown []Notification
}

func (r *recordingPresenter) Show(n Notification) { r.shown = append(r.shown, n) }

type fakeWindow struct {
	location  string
	focused   bool
	navigated string
}

func (w *fakeWindow) Location() string    { return w.location }
func (w *fakeWindow) Focus()              { w.focused = true }
func (w *fakeWindow) Navigate(url string) { w.navigated = url }

type fakeRegistry struct {
	windows []Window
	opened  []string
}

func (r *fakeRegistry) Windows() []Window { return r.windows }
func (r *fakeRegistry) Open(url string)   { r.opened = append(r.opened, url) }

func TestDecodePayloadStructured(t *testing.T) {
	n := DecodePayload([]byte(`{"title":"Nuevo mensaje","body":"hola","url":"/chat","tag":"/chat"}`))

	assert.Equal(t, "Nuevo mensaje", n.Title)
	assert.Equal(t, "hola", n.Body)
	assert.Equal(t, "/chat", n.URL)
	assert.Equal(t, "/chat", n.Tag)
	assert.Equal(t, "/icons/icon-192.png", n.Icon)
}

func TestDecodePayloadPlainText(t *testing.T) {
	n := DecodePayload([]byte("  servidor en mantenimiento \n"))

	assert.Equal(t, "Coach", n.Title)
	assert.Equal(t, "servidor en mantenimiento", n.Body)
	assert.Equal(t, "/", n.URL)
	assert.Equal(t, "general", n.Tag)
}

func TestDecodePayloadJSONWithoutTitleIsRawText(t *testing.T) {
	raw := `{"body":"sin titulo"}`
	n := DecodePayload([]byte(raw))

	assert.Equal(t, "Coach", n.Title)
	assert.Equal(t, raw, n.Body)
}

func TestHandlePushReplacesSameTag(t *testing.T) {
	presenter := &recordingPresenter{}
	notifier := NewNotifier(presenter, &fakeRegistry{}, "http://app.local")

	notifier.HandlePush([]byte(`{"title":"uno","tag":"/chat"}`))
	notifier.HandlePush([]byte(`{"title":"dos","tag":"/chat"}`))

	require.Len(t, presenter.shown, 2)
	displayed, ok := notifier.Displayed("/chat")
	require.True(t, ok)
	assert.Equal(t, "dos", displayed.Title)
}

func TestClickFocusesOpenWindow(t *testing.T) {
	window := &fakeWindow{location: "http://app.local/dashboard"}
	registry := &fakeRegistry{windows: []Window{window}}
	notifier := NewNotifier(&recordingPresenter{}, registry, "http://app.local")

	notifier.HandlePush([]byte(`{"title":"Nuevo mensaje","url":"/chat","tag":"/chat"}`))
	result := notifier.Click("/chat")

	assert.Equal(t, "focus", result.Action)
	assert.Equal(t, "/chat", result.URL)
	assert.True(t, window.focused)
	assert.Equal(t, "/chat", window.navigated)
	assert.Empty(t, registry.opened)

	_, ok := notifier.Displayed("/chat")
	assert.False(t, ok, "dismissed after click")
}

func TestClickOpensWindowWhenNoneInScope(t *testing.T) {
	window := &fakeWindow{location: "http://other.local/page"}
	registry := &fakeRegistry{windows: []Window{window}}
	notifier := NewNotifier(&recordingPresenter{}, registry, "http://app.local")

	notifier.HandlePush([]byte(`{"title":"Nuevo mensaje","url":"/chat","tag":"/chat"}`))
	result := notifier.Click("/chat")

	assert.Equal(t, "open", result.Action)
	assert.False(t, window.focused)
	assert.Equal(t, []string{"/chat"}, registry.opened)
}

func TestClickUnknownTagOpensRoot(t *testing.T) {
	registry := &fakeRegistry{}
	notifier := NewNotifier(&recordingPresenter{}, registry, "http://app.local")

	result := notifier.Click("missing")

	assert.Equal(t, "open", result.Action)
	assert.Equal(t, "/", result.URL)
}
