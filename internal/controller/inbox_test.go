package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"

	"github.com/nao1215/opsdash/internal/model"
)

const inboxJSON = `{
	"success": true,
	"unread_count": 2,
	"messages": [
		{"id": 3, "sender": "hq", "message": "Hold position", "timestamp": "2025-03-09T11:58:00", "is_read": false, "is_broadcast": true, "message_type": "received"},
		{"id": 2, "sender": "alpha", "message": "Copy", "timestamp": "2025-03-09T10:00:00", "is_read": false, "is_broadcast": false, "message_type": "received"},
		{"id": 1, "sender": "me", "recipient": "alpha", "message": "Status?", "timestamp": "2025-03-09T09:00:00", "is_read": true, "is_broadcast": false, "message_type": "sent"}
	]
}`

// TestInboxSendIgnoresSecondSendInFlight tests that a send issued while
// another is in flight makes no request.
func TestInboxSendIgnoresSecondSendInFlight(t *testing.T) {
	t.Parallel()

	var sends atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	r := mux.NewRouter()
	r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, _ *http.Request) {
		if sends.Add(1) == 1 {
			close(entered)
		}
		<-release
		writeJSON(w, http.StatusOK, `{"success":true,"message_id":9}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature5/get_messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"messages":[],"unread_count":0}`)
	}).Methods(http.MethodGet)

	in := NewInbox(newBackend(t, r), WithInboxDelays(time.Hour, time.Hour))
	t.Cleanup(in.Close)

	first := make(chan error, 1)
	go func() {
		first <- in.Send(context.Background(), Outgoing{Text: "Move out", Recipient: "alpha"})
	}()
	<-entered

	if !in.Sending() {
		t.Error("Sending() should be true while the request is in flight")
	}
	if in.Controls().Enabled(SendButton) {
		t.Error("send button should be disabled while sending")
	}
	if err := in.Send(context.Background(), Outgoing{Text: "Again", Recipient: "alpha"}); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if got := sends.Load(); got != 1 {
		t.Errorf("send requests = %d, want 1", got)
	}
	if in.Sending() {
		t.Error("Sending() should be false after the send finished")
	}
	if got := in.Controls().Get(SendButton); !got.Enabled || got.Label != "SEND MESSAGE" {
		t.Errorf("send button = %+v", got)
	}
	if !shows(in.Page(), InboxStatusContainer, MessageSentText) {
		t.Errorf("status = %s", in.Page().Container(InboxStatusContainer).HTML())
	}
}

// TestInboxSendValidation tests the checks made before any request.
func TestInboxSendValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Outgoing
		want string
	}{
		{"empty text", Outgoing{Text: "   ", Recipient: "alpha"}, EmptyMessageText},
		{"no recipient", Outgoing{Text: "hello"}, NoRecipientText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sends atomic.Int64
			r := mux.NewRouter()
			r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, _ *http.Request) {
				sends.Add(1)
				writeJSON(w, http.StatusOK, `{"success":true}`)
			}).Methods(http.MethodPost)

			in := NewInbox(newBackend(t, r))
			t.Cleanup(in.Close)

			err := in.Send(context.Background(), tt.msg)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if !shows(in.Page(), InboxStatusContainer, tt.want) {
				t.Errorf("status = %s", in.Page().Container(InboxStatusContainer).HTML())
			}
			if sends.Load() != 0 {
				t.Error("no request should be made")
			}
		})
	}
}

// TestInboxSendBroadcast tests that a broadcast carries a null recipient.
func TestInboxSendBroadcast(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got model.SendMessageRequest
	)
	r := mux.NewRouter()
	r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		_ = sonic.Unmarshal(body, &got)
		mu.Unlock()
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	in := NewInbox(newBackend(t, r), WithInboxDelays(time.Hour, time.Hour))
	t.Cleanup(in.Close)

	if err := in.Send(context.Background(), Outgoing{Text: " All units report ", Recipient: "alpha", Broadcast: true}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !got.IsBroadcast || got.Recipient != nil {
		t.Errorf("request = %+v, want a broadcast without recipient", got)
	}
	if got.Message != "All units report" {
		t.Errorf("Message = %q, want trimmed text", got.Message)
	}
}

// TestInboxSendErrorText tests the message shown for each failure kind.
func TestInboxSendErrorText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"domain failure", http.StatusOK, `{"success":false,"error":"Recipient not found"}`, "Recipient not found"},
		{"http error with text", http.StatusBadRequest, `{"error":"Message too long"}`, "Message too long"},
		{"http error without text", http.StatusInternalServerError, `{}`, SendFailedText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := mux.NewRouter()
			r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}).Methods(http.MethodPost)

			in := NewInbox(newBackend(t, r))
			t.Cleanup(in.Close)

			if err := in.Send(context.Background(), Outgoing{Text: "hi", Recipient: "alpha"}); err == nil {
				t.Fatal("expected an error")
			}
			if !shows(in.Page(), InboxStatusContainer, tt.want) {
				t.Errorf("expected %q, got %s", tt.want, in.Page().Container(InboxStatusContainer).HTML())
			}
			if !in.Controls().Enabled(SendButton) {
				t.Error("send button should be enabled again")
			}
		})
	}
}

// TestSendErrorTextNetwork tests the fallback for failures without a reply.
func TestSendErrorTextNetwork(t *testing.T) {
	t.Parallel()

	if got := sendErrorText(errors.New("connection refused")); got != NetworkErrorText {
		t.Errorf("sendErrorText() = %q, want %q", got, NetworkErrorText)
	}
}

// TestInboxRefreshMarksUnreadAsRead tests that every unread message is
// pushed as read after the delay and loses its marker locally.
func TestInboxRefreshMarksUnreadAsRead(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		marked []int64
	)
	r := mux.NewRouter()
	r.HandleFunc("/feature5/get_messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, inboxJSON)
	}).Methods(http.MethodGet)
	r.HandleFunc("/feature5/mark_read", func(w http.ResponseWriter, req *http.Request) {
		var body model.MarkReadRequest
		raw, _ := io.ReadAll(req.Body)
		_ = sonic.Unmarshal(raw, &body)
		mu.Lock()
		marked = append(marked, body.MessageID)
		mu.Unlock()
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	in := NewInbox(newBackend(t, r),
		WithClock(func() time.Time { return now }),
		WithInboxDelays(10*time.Millisecond, time.Hour),
		WithMarkReadRate(0),
	)
	t.Cleanup(in.Close)

	if err := in.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	v := in.View()
	if len(v.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(v.Items))
	}
	if got := v.UnreadIDs(); len(got) != 2 {
		t.Fatalf("unread before delay = %v, want 2 ids", got)
	}
	if !shows(in.Page(), InboxContainer, "Hold position") {
		t.Errorf("list = %s", in.Page().Container(InboxContainer).HTML())
	}

	eventually(t, "mark-read pushes", func() bool {
		return len(in.View().UnreadIDs()) == 0
	})

	mu.Lock()
	defer mu.Unlock()
	if len(marked) != 2 {
		t.Fatalf("marked = %v, want ids 3 and 2", marked)
	}
	for _, id := range marked {
		if id != 2 && id != 3 {
			t.Errorf("unexpected mark-read for id %d", id)
		}
	}
}

// TestInboxRefreshFailureKeepsList tests that a failed refresh leaves the
// previous list in place.
func TestInboxRefreshFailureKeepsList(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	r := mux.NewRouter()
	r.HandleFunc("/feature5/get_messages", func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusInternalServerError, `{"error":"db down"}`)
			return
		}
		writeJSON(w, http.StatusOK, strings.ReplaceAll(inboxJSON, `"is_read": false`, `"is_read": true`))
	}).Methods(http.MethodGet)

	in := NewInbox(newBackend(t, r))
	t.Cleanup(in.Close)

	if err := in.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fail.Store(true)
	if err := in.Refresh(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if got := len(in.View().Items); got != 3 {
		t.Errorf("items = %d, want the previous 3", got)
	}
}

// TestCharCount tests the counter and its color thresholds.
func TestCharCount(t *testing.T) {
	t.Parallel()

	n, color := CharCount("héllo")
	if n != 5 {
		t.Errorf("count = %d, want 5 runes", n)
	}
	if _, long := CharCount(strings.Repeat("a", 450)); long == color {
		t.Errorf("a 450 character message should change the color, got %q", long)
	}
}
