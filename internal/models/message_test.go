package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageKindValidation(t *testing.T) {
	assert.True(t, KindText.Valid())
	assert.True(t, KindAudio.Valid())
	assert.False(t, MessageKind("sticker").Valid())
}

func TestDisplayTextUsesPlaceholderForMedia(t *testing.T) {
	text := Message{Kind: KindText, Content: "hola"}
	assert.Equal(t, "hola", text.DisplayText())

	image := Message{Kind: KindImage}
	assert.Equal(t, KindImage.Placeholder(), image.DisplayText())
	assert.NotEmpty(t, image.DisplayText())
}

func TestDispatchRequestTitleFallback(t *testing.T) {
	assert.Equal(t, "a", DispatchRequest{Title: "a", Message: "b"}.DisplayTitle())
	assert.Equal(t, "b", DispatchRequest{Message: "b"}.DisplayTitle())
	assert.Empty(t, DispatchRequest{}.DisplayTitle())
}

func TestDispatchRequestBroadcast(t *testing.T) {
	assert.True(t, DispatchRequest{DestinatarioID: BroadcastRecipient}.Broadcast())
	assert.False(t, DispatchRequest{DestinatarioID: "7"}.Broadcast())
}

func TestConversationUnreadBySide(t *testing.T) {
	conv := Conversation{ClientUnread: 2, StaffUnread: 5}
	assert.Equal(t, 2, conv.Unread(RoleClient))
	assert.Equal(t, 5, conv.Unread(RoleStaff))
}

func TestRolePeer(t *testing.T) {
	assert.Equal(t, RoleStaff, RoleClient.Peer())
	assert.Equal(t, RoleClient, RoleStaff.Peer())
}
