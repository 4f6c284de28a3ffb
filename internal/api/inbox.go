package api

import (
	"context"

	"github.com/nao1215/opsdash/internal/model"
)

// SendMessage posts a direct message or, with a nil recipient, a broadcast.
func (c *Client) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.SendMessageResponse, error) {
	var resp model.SendMessageResponse
	if err := c.postJSON(ctx, "/feature5/send_message", req, &resp, "Failed to send message"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Messages returns the full inbox, newest first.
func (c *Client) Messages(ctx context.Context) (*model.MessageList, error) {
	var list model.MessageList
	if err := c.getJSON(ctx, "/feature5/get_messages", nil, &list, "Failed to load messages"); err != nil {
		return nil, err
	}
	return &list, nil
}

// MarkRead marks one received message as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	var env model.Envelope
	return c.postJSON(ctx, "/feature5/mark_read", model.MarkReadRequest{MessageID: id}, &env, "Failed to mark message as read")
}
