package chatsdk

import (
	"encoding/json"
	"fmt"
)

// Content type discriminator values used on the wire.
const (
	contentTypeText         = "text"
	contentTypeRichLink     = "richLink"
	contentTypeQuickReplies = "quickReplies"
	contentTypeListPicker   = "listPicker"
	contentTypePlugin       = "plugin"
	contentTypeReplyButton  = "replyButton"
	contentTypeButton       = "button"
	contentTypeFile         = "file"
	contentTypeTitle        = "title"
)

// MessageContent is a discriminated union for message bodies, distinguished
// by the wire `type` field.
type MessageContent interface {
	messageContent()
}

// TextContent is a plain text message body.
type TextContent struct {
	Text string `json:"text"`
}

func (*TextContent) messageContent() {}

func (c *TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: contentTypeText, Text: c.Text})
}

// MediaItem is a nested media descriptor. Whole-object absence is valid and
// must not fail decoding of the parent.
type MediaItem struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// RichLinkContent is a tappable link with an optional media preview.
type RichLinkContent struct {
	Title string     `json:"title"`
	URL   string     `json:"url"`
	Media *MediaItem `json:"media,omitempty"`
}

func (*RichLinkContent) messageContent() {}

func (c *RichLinkContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string     `json:"type"`
		Title string     `json:"title"`
		URL   string     `json:"url"`
		Media *MediaItem `json:"media,omitempty"`
	}{Type: contentTypeRichLink, Title: c.Title, URL: c.URL, Media: c.Media})
}

// ReplyButtonContent is a single quick-reply button. The icon sub-object may
// be entirely absent.
type ReplyButtonContent struct {
	Text        string     `json:"text"`
	Postback    string     `json:"postback,omitempty"`
	Description string     `json:"description,omitempty"`
	Icon        *MediaItem `json:"icon,omitempty"`
}

func (*ReplyButtonContent) messageContent() {}

func (c *ReplyButtonContent) MarshalJSON() ([]byte, error) {
	type alias ReplyButtonContent
	return marshalWithType(contentTypeReplyButton, (*alias)(c))
}

// ButtonContent is a generic action button.
type ButtonContent struct {
	Text     string `json:"text"`
	Postback string `json:"postback,omitempty"`
	URL      string `json:"url,omitempty"`
}

func (*ButtonContent) messageContent() {}

func (c *ButtonContent) MarshalJSON() ([]byte, error) {
	type alias ButtonContent
	return marshalWithType(contentTypeButton, (*alias)(c))
}

// FileContent is a file element inside plugin messages.
type FileContent struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

func (*FileContent) messageContent() {}

func (c *FileContent) MarshalJSON() ([]byte, error) {
	type alias FileContent
	return marshalWithType(contentTypeFile, (*alias)(c))
}

// TitleContent is a title element inside plugin messages.
type TitleContent struct {
	Text string `json:"text"`
}

func (*TitleContent) messageContent() {}

func (c *TitleContent) MarshalJSON() ([]byte, error) {
	type alias TitleContent
	return marshalWithType(contentTypeTitle, (*alias)(c))
}

// QuickRepliesContent offers the customer a set of one-tap replies.
type QuickRepliesContent struct {
	Title   string               `json:"title"`
	Buttons []ReplyButtonContent `json:"buttons"`
}

func (*QuickRepliesContent) messageContent() {}

func (c *QuickRepliesContent) MarshalJSON() ([]byte, error) {
	type alias QuickRepliesContent
	return marshalWithType(contentTypeQuickReplies, (*alias)(c))
}

// ListPickerContent presents a scrollable list of selectable elements.
type ListPickerContent struct {
	Title    string               `json:"title"`
	Text     string               `json:"text"`
	Elements []MessageContentItem `json:"elements"`
}

func (*ListPickerContent) messageContent() {}

func (c *ListPickerContent) MarshalJSON() ([]byte, error) {
	type alias ListPickerContent
	return marshalWithType(contentTypeListPicker, (*alias)(c))
}

// GalleryContent holds multiple plugin elements. A plugin element list with
// more than one element decodes to this variant; a list with exactly one
// element decodes to that element directly. Encoding always wraps elements in
// a list. The asymmetry matches observed server traffic and is deliberate.
type GalleryContent struct {
	Elements []MessageContentItem `json:"elements"`
}

func (*GalleryContent) messageContent() {}

func (c *GalleryContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string               `json:"type"`
		Elements []MessageContentItem `json:"elements"`
	}{Type: contentTypePlugin, Elements: c.Elements})
}

// UnknownContent preserves an unrecognized content type without failing.
type UnknownContent struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func (*UnknownContent) messageContent() {}

func (c *UnknownContent) MarshalJSON() ([]byte, error) {
	if c.Raw == nil {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

// marshalWithType emits v's fields merged with a type discriminator.
func marshalWithType(typ string, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(struct {
		Type string `json:"type"`
	}{Type: typ})
	if err != nil {
		return nil, err
	}
	if string(body) == "{}" {
		return tag, nil
	}
	// Splice: {"type":"x"} + {...fields} → {"type":"x",...fields}
	merged := append(tag[:len(tag)-1], ',')
	merged = append(merged, body[1:]...)
	return merged, nil
}

// MessageContentItem wraps the MessageContent union for JSON round-tripping.
type MessageContentItem struct {
	Value MessageContent
}

// UnmarshalJSON dispatches on the `type` discriminator. Unknown types decode
// to UnknownContent rather than failing.
func (w *MessageContentItem) UnmarshalJSON(data []byte) error {
	var typeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &typeCheck); err != nil {
		return err
	}

	switch typeCheck.Type {
	case contentTypeText:
		var c TextContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeRichLink:
		var c RichLinkContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeQuickReplies:
		var c QuickRepliesContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeListPicker:
		var c ListPickerContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeReplyButton:
		var c ReplyButtonContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeButton:
		var c ButtonContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeFile:
		var c FileContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypeTitle:
		var c TitleContent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		w.Value = &c
	case contentTypePlugin:
		return w.unmarshalPlugin(data)
	default:
		w.Value = &UnknownContent{Type: typeCheck.Type, Raw: append(json.RawMessage(nil), data...)}
	}
	return nil
}

// unmarshalPlugin applies the element collapse rule: exactly one element
// becomes that element's variant, anything else becomes a gallery.
func (w *MessageContentItem) unmarshalPlugin(data []byte) error {
	var plugin struct {
		Elements []MessageContentItem `json:"elements"`
	}
	if err := json.Unmarshal(data, &plugin); err != nil {
		return fmt.Errorf("plugin elements: %w", err)
	}
	if len(plugin.Elements) == 1 {
		w.Value = plugin.Elements[0].Value
		return nil
	}
	w.Value = &GalleryContent{Elements: plugin.Elements}
	return nil
}

// MarshalJSON implements json.Marshaler for the wrapper.
func (w MessageContentItem) MarshalJSON() ([]byte, error) {
	if w.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(w.Value)
}
