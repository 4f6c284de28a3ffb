package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/report"
)

// NewInboxCmd creates the inbox command group.
func NewInboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read and send messages",
	}
	cmd.AddCommand(newInboxListCmd())
	cmd.AddCommand(newInboxSendCmd())
	return cmd
}

func newInboxListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inbox messages",
		Long: `List prints received and sent messages, newest first. Unread messages
are flagged NEW.

Examples:
  opsdash inbox list
  opsdash inbox list --mark-read`,
		Args: cobra.NoArgs,
		RunE: runInboxListCmd,
	}
	cmd.Flags().Bool("mark-read", false, "Mark every unread message as read after listing")
	return cmd
}

func runInboxListCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	// The page marks messages read on its own after a delay; the command
	// ends before that and marks them explicitly.
	page := controller.NewInbox(a.client, a.controllerOptions()...)
	defer page.Close()

	if err := page.Refresh(ctx); err != nil {
		return a.fail("Inbox", err)
	}
	results := []*report.Result{report.FromMessages(page.Response(), time.Now())}

	if mark, _ := cmd.Flags().GetBool("mark-read"); mark { //nolint:errcheck // flag is always defined
		n := page.MarkAllRead(ctx)
		left := len(page.View().UnreadIDs())
		results = append(results, report.FromMessage("Mark Read", "%d of %d messages marked read", n-left, n))
	}
	return a.write(results...)
}

func newInboxSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message",
		Long: `Send sends a message to one recipient, or to everyone with --broadcast.
All arguments are joined into the message text.

Examples:
  opsdash inbox send --to alpha "Hold position"
  opsdash inbox send --broadcast All units report status`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInboxSendCmd,
	}
	cmd.Flags().String("to", "", "Recipient username")
	cmd.Flags().BoolP("broadcast", "b", false, "Send to every user")
	return cmd
}

func runInboxSendCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := a.signalContext()
	defer cancel()

	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}
	broadcast, err := cmd.Flags().GetBool("broadcast")
	if err != nil {
		return err
	}

	msg := controller.Outgoing{Text: strings.Join(args, " "), Recipient: to, Broadcast: broadcast}
	n, color := controller.CharCount(msg.Text)
	a.logger.Debug("composing message", "chars", n, "color", color)

	page := controller.NewInbox(a.client, a.controllerOptions()...)
	defer page.Close()

	if err := page.Send(ctx, msg); err != nil {
		return a.fail("Send Message", err)
	}

	target := to
	if broadcast {
		target = "everyone"
	}
	return a.write(report.FromMessage("Send Message", "%s (to %s)", controller.MessageSentText, target))
}
