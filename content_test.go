package chatsdk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	chatsdk "github.com/openlivechat/chatsdk-go"
)

func decodeContent(t *testing.T, data string) chatsdk.MessageContentItem {
	t.Helper()
	var item chatsdk.MessageContentItem
	require.NoError(t, json.Unmarshal([]byte(data), &item))
	return item
}

// TestTextContentRoundTrip verifies the plain text variant.
func TestTextContentRoundTrip(t *testing.T) {
	item := decodeContent(t, `{"type": "text", "text": "hello"}`)

	text, ok := item.Value.(*chatsdk.TextContent)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Equal(t, "text", gjson.GetBytes(out, "type").String())
	assert.Equal(t, "hello", gjson.GetBytes(out, "text").String())
}

// TestPluginSingleElementCollapses verifies a plugin message with exactly one
// element decodes to that element directly, not to a gallery.
func TestPluginSingleElementCollapses(t *testing.T) {
	item := decodeContent(t, `{
		"type": "plugin",
		"elements": [{"type": "replyButton", "text": "Yes", "postback": "yes"}]
	}`)

	button, ok := item.Value.(*chatsdk.ReplyButtonContent)
	require.True(t, ok, "single plugin element should collapse to the element, got %T", item.Value)
	assert.Equal(t, "Yes", button.Text)
	assert.Equal(t, "yes", button.Postback)
}

// TestPluginMultipleElementsBecomeGallery verifies two or more plugin
// elements decode to a gallery preserving order.
func TestPluginMultipleElementsBecomeGallery(t *testing.T) {
	item := decodeContent(t, `{
		"type": "plugin",
		"elements": [
			{"type": "title", "text": "Pick one"},
			{"type": "button", "text": "A", "postback": "a"}
		]
	}`)

	gallery, ok := item.Value.(*chatsdk.GalleryContent)
	require.True(t, ok)
	require.Len(t, gallery.Elements, 2)
	assert.IsType(t, &chatsdk.TitleContent{}, gallery.Elements[0].Value)
	assert.IsType(t, &chatsdk.ButtonContent{}, gallery.Elements[1].Value)
}

// TestPluginEmptyElements verifies an empty plugin list decodes to an empty
// gallery rather than failing.
func TestPluginEmptyElements(t *testing.T) {
	item := decodeContent(t, `{"type": "plugin", "elements": []}`)

	gallery, ok := item.Value.(*chatsdk.GalleryContent)
	require.True(t, ok)
	assert.Empty(t, gallery.Elements)
}

// TestGalleryEncodeAlwaysWrapsInList verifies encoding never applies the
// decode-side collapse: a single-element gallery still emits a plugin wrapper
// with an element list.
func TestGalleryEncodeAlwaysWrapsInList(t *testing.T) {
	item := chatsdk.MessageContentItem{Value: &chatsdk.GalleryContent{
		Elements: []chatsdk.MessageContentItem{
			{Value: &chatsdk.TitleContent{Text: "only one"}},
		},
	}}

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Equal(t, "plugin", gjson.GetBytes(out, "type").String())
	elements := gjson.GetBytes(out, "elements")
	require.True(t, elements.IsArray())
	require.Len(t, elements.Array(), 1)
	assert.Equal(t, "title", elements.Array()[0].Get("type").String())
}

// TestReplyButtonWithoutIcon verifies the optional icon sub-object may be
// entirely absent.
func TestReplyButtonWithoutIcon(t *testing.T) {
	item := decodeContent(t, `{"type": "replyButton", "text": "Ok"}`)

	button, ok := item.Value.(*chatsdk.ReplyButtonContent)
	require.True(t, ok)
	assert.Nil(t, button.Icon)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(out, "icon").Exists())
}

// TestRichLinkWithMedia verifies the rich link variant carries its media
// descriptor through a round trip.
func TestRichLinkWithMedia(t *testing.T) {
	item := decodeContent(t, `{
		"type": "richLink",
		"title": "Docs",
		"url": "https://example.com",
		"media": {"fileName": "a.png", "url": "https://example.com/a.png", "mimeType": "image/png"}
	}`)

	link, ok := item.Value.(*chatsdk.RichLinkContent)
	require.True(t, ok)
	require.NotNil(t, link.Media)
	assert.Equal(t, "a.png", link.Media.FileName)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Equal(t, "richLink", gjson.GetBytes(out, "type").String())
	assert.Equal(t, "image/png", gjson.GetBytes(out, "media.mimeType").String())
}

// TestQuickRepliesNestedButtons verifies quick replies decode with their
// nested buttons.
func TestQuickRepliesNestedButtons(t *testing.T) {
	item := decodeContent(t, `{
		"type": "quickReplies",
		"title": "Choose",
		"buttons": [
			{"type": "replyButton", "text": "One"},
			{"type": "replyButton", "text": "Two"}
		]
	}`)

	quick, ok := item.Value.(*chatsdk.QuickRepliesContent)
	require.True(t, ok)
	require.Len(t, quick.Buttons, 2)
	assert.Equal(t, "Two", quick.Buttons[1].Text)
}

// TestUnknownContentPreserved verifies unrecognized content types round-trip
// through the unknown fallback without loss.
func TestUnknownContentPreserved(t *testing.T) {
	raw := `{"type":"hologram","depth":3}`
	item := decodeContent(t, raw)

	unknown, ok := item.Value.(*chatsdk.UnknownContent)
	require.True(t, ok)
	assert.Equal(t, "hologram", unknown.Type)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
