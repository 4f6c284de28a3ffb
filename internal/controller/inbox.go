package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/pipeline"
	"github.com/nao1215/opsdash/internal/poll"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the inbox.
const (
	InboxContainer       = "messages"
	InboxStatusContainer = "send-status"
	SendButton           = "send"
)

// Messages of the inbox.
const (
	EmptyMessageText = "Message cannot be empty"
	NoRecipientText  = "Please select a recipient"
	MessageSentText  = "Message sent successfully"
	SendFailedText   = "Failed to send message"
	NetworkErrorText = "Network error occurred"
	sendLabel        = "SEND MESSAGE"
	inboxStatusTTL   = 3 * time.Second
)

// InboxBackend is the part of the API the inbox uses.
type InboxBackend interface {
	SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.SendMessageResponse, error)
	Messages(ctx context.Context) (*model.MessageList, error)
	MarkRead(ctx context.Context, id int64) error
}

// Outgoing is a message typed into the compose box.
type Outgoing struct {
	Text      string
	Recipient string
	Broadcast bool
}

// Inbox is the messaging page: the compose box and the message list.
type Inbox struct {
	base
	backend InboxBackend
	batch   *pipeline.BatchProcessor

	// sending suppresses a second send while one is in flight.
	sending atomic.Bool

	mu   sync.Mutex
	view view.InboxView
	raw  *model.MessageList
}

// NewInbox returns an inbox with an empty message list.
func NewInbox(backend InboxBackend, opts ...Option) *Inbox {
	in := &Inbox{
		base:    newBase("Messages", opts, InboxStatusContainer, InboxContainer),
		backend: backend,
	}
	in.batch = pipeline.NewBatchProcessor(
		pipeline.WithConcurrency(in.concurrency),
		pipeline.WithRateLimit(in.markReadRate),
		pipeline.WithBatchLogger(in.logger),
	)
	in.controls.Set(SendButton, view.Control{Enabled: true, Visible: true, Label: sendLabel})
	return in
}

// CharCount returns the length of text and the color of the counter.
func CharCount(text string) (int, string) {
	n := utf8.RuneCountInString(text)
	return n, view.CharCountColor(n)
}

// Sending reports whether a send is in flight.
func (in *Inbox) Sending() bool {
	return in.sending.Load()
}

// Send posts msg. While another send is in flight it returns ErrBusy
// without a request. On success the list is refreshed after the post-send
// delay.
func (in *Inbox) Send(ctx context.Context, msg Outgoing) error {
	if in.sending.Load() {
		return ErrBusy
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		in.flash(ctx, InboxStatusContainer, view.ErrorStatus(EmptyMessageText), inboxStatusTTL)
		return invalid(EmptyMessageText)
	}
	recipient := strings.TrimSpace(msg.Recipient)
	if !msg.Broadcast && recipient == "" {
		in.flash(ctx, InboxStatusContainer, view.ErrorStatus(NoRecipientText), inboxStatusTTL)
		return invalid(NoRecipientText)
	}

	if !in.sending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer in.sending.Store(false)

	in.controls.Set(SendButton, view.Control{Enabled: false, Visible: true, Label: "SENDING..."})
	defer in.controls.Set(SendButton, view.Control{Enabled: true, Visible: true, Label: sendLabel})

	req := model.SendMessageRequest{Message: text, IsBroadcast: msg.Broadcast}
	if !msg.Broadcast {
		req.Recipient = &recipient
	}

	if _, err := in.backend.SendMessage(ctx, req); err != nil {
		in.logger.Error("send message", "error", err)
		in.flash(ctx, InboxStatusContainer, view.ErrorStatus(sendErrorText(err)), inboxStatusTTL)
		return err
	}

	in.flash(ctx, InboxStatusContainer, view.NewStatus(view.StatusSuccess, MessageSentText), inboxStatusTTL)
	refresh := poll.NewTimer("inbox_post_send", in.postSendDelay, func(ctx context.Context) {
		_ = in.Refresh(ctx)
	}, poll.WithLogger(in.logger))
	if err := in.schedule(context.WithoutCancel(ctx), refresh); err != nil {
		in.logger.Debug("post-send refresh not scheduled", "error", err)
	}
	return nil
}

// sendErrorText maps a send failure to its message: the server's text
// when it sent one, a generic failure otherwise, and the network message
// when no usable reply arrived.
func sendErrorText(err error) string {
	var (
		domainErr *api.DomainError
		httpErr   *api.HTTPError
	)
	switch {
	case errors.As(err, &domainErr):
		return domainErr.Message
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return SendFailedText
	default:
		return NetworkErrorText
	}
}

// View returns the message list shown.
func (in *Inbox) View() view.InboxView {
	in.mu.Lock()
	defer in.mu.Unlock()
	v := in.view
	v.Items = append([]view.MessageItem(nil), in.view.Items...)
	return v
}

// Refresh refetches the whole list and replaces the one shown. Unread
// messages are marked read after the mark-read delay. A failed refresh is
// logged and keeps the old list.
func (in *Inbox) Refresh(ctx context.Context) error {
	list, err := in.backend.Messages(ctx)
	if err != nil {
		in.logger.Error("refresh messages", "error", err)
		return err
	}

	v := view.NewInboxView(*list, in.now())
	in.mu.Lock()
	in.view = v
	in.raw = list
	in.mu.Unlock()
	in.render(InboxContainer, view.TmplInbox, v)

	ids := v.UnreadIDs()
	if len(ids) == 0 {
		return nil
	}
	mark := poll.NewTimer("inbox_mark_read", in.markReadDelay, func(ctx context.Context) {
		in.markRead(ctx, ids)
	}, poll.WithLogger(in.logger))
	return in.schedule(context.WithoutCancel(ctx), mark)
}

// markRead pushes the read state of each id and drops its unread marker
// once the backend accepted it.
func (in *Inbox) markRead(ctx context.Context, ids []int64) {
	res, err := in.batch.Process(ctx, len(ids), func(ctx context.Context, i int) error {
		if err := in.backend.MarkRead(ctx, ids[i]); err != nil {
			return err
		}
		in.mu.Lock()
		found := in.view.MarkRead(ids[i])
		v := in.view
		in.mu.Unlock()
		if found {
			in.render(InboxContainer, view.TmplInbox, v)
		}
		return nil
	})
	if err != nil {
		in.logger.Debug("mark-read batch ended early", "error", err)
	}
	if n := res.Failed(); n > 0 {
		in.logger.Warn("some messages could not be marked read", "failed", n, "total", len(ids))
	}
}

// MarkAllRead pushes the read state of every unread message shown and
// returns how many there were. It does not wait for the mark-read delay.
func (in *Inbox) MarkAllRead(ctx context.Context) int {
	ids := in.View().UnreadIDs()
	if len(ids) > 0 {
		in.markRead(ctx, ids)
	}
	return len(ids)
}

// Response returns the backend reply of the last successful refresh, or nil.
func (in *Inbox) Response() *model.MessageList {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.raw
}

// Start refreshes the list now and then on the inbox interval until Close.
func (in *Inbox) Start(ctx context.Context) error {
	t, err := poll.NewTask("inbox_refresh", in.inboxRefresh, func(ctx context.Context) bool {
		_ = in.Refresh(ctx)
		return false
	}, poll.WithImmediate(), poll.WithLogger(in.logger))
	if err != nil {
		return err
	}
	return in.schedule(ctx, t)
}

// Close stops the refresh and every pending timer and tears the page down.
func (in *Inbox) Close() {
	in.shutdown()
}
