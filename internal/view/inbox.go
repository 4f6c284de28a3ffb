package view

import (
	"fmt"
	"time"

	"github.com/nao1215/opsdash/internal/model"
)

// Character count thresholds of the compose box.
const (
	charWarn   = 300
	charDanger = 400
)

// CharCountColor returns the color of the compose character counter.
func CharCountColor(n int) string {
	switch {
	case n > charDanger:
		return "#ff6b6b"
	case n > charWarn:
		return "#ffd93d"
	default:
		return "#90ee90"
	}
}

// RelativeTime formats t relative to now: "Just now", "5m ago", "3h ago",
// "2d ago", then the date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.Format("2006-01-02")
	}
}

// UnreadBadge is the unread counter in the header.
type UnreadBadge struct {
	Text  string
	Color string
}

// NewUnreadBadge builds the badge.
func NewUnreadBadge(n int) UnreadBadge {
	color := "#228B22"
	if n > 0 {
		color = "#FF6347"
	}
	return UnreadBadge{Text: fmt.Sprintf("%d UNREAD", n), Color: color}
}

// MessageItem is one inbox entry.
type MessageItem struct {
	ID        int64
	Direction string
	Header    string
	Body      string
	Time      string
	Broadcast bool
	Unread    bool
}

// InboxView is the message list.
type InboxView struct {
	Items []MessageItem
	Badge UnreadBadge
}

// Empty reports whether the empty-inbox message is shown.
func (v InboxView) Empty() bool {
	return len(v.Items) == 0
}

// UnreadIDs returns the ids of the entries carrying the unread marker.
func (v InboxView) UnreadIDs() []int64 {
	var ids []int64
	for _, it := range v.Items {
		if it.Unread {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// MarkRead removes the unread marker of id locally. It reports whether
// the entry was found.
func (v *InboxView) MarkRead(id int64) bool {
	for i := range v.Items {
		if v.Items[i].ID == id {
			v.Items[i].Unread = false
			return true
		}
	}
	return false
}

// NewInboxView builds the message list. Times are relative to now.
func NewInboxView(l model.MessageList, now time.Time) InboxView {
	v := InboxView{Badge: NewUnreadBadge(l.UnreadCount)}
	for _, m := range l.Messages {
		var ts string
		if !m.Timestamp.IsZero() {
			ts = RelativeTime(m.Timestamp.Time, now)
		}
		v.Items = append(v.Items, MessageItem{
			ID:        m.ID,
			Direction: string(m.MessageType),
			Header:    messageHeader(m),
			Body:      m.Message,
			Time:      ts,
			Broadcast: m.IsBroadcast,
			Unread:    m.IsUnread(),
		})
	}
	return v
}

func messageHeader(m model.Message) string {
	if m.MessageType == model.MessageSent {
		if m.Recipient == "" {
			return "TO: ALL SOLDIERS"
		}
		return "TO: " + Upper(m.Recipient)
	}
	return "FROM: " + Upper(m.Sender)
}
