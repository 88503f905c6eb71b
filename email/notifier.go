package email

import (
	"context"
	"fmt"
)

// Sender is satisfied by *Client.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Addresses are the fixed mailboxes the service writes to.
type Addresses struct {
	From   string
	Admin  string
	Studio string // falls back to Admin
}

// Notifier renders a template and sends it to the right mailbox.
type Notifier struct {
	sender Sender
	addr   Addresses
}

func NewNotifier(sender Sender, addr Addresses) *Notifier {
	if addr.Studio == "" {
		addr.Studio = addr.Admin
	}
	return &Notifier{sender: sender, addr: addr}
}

func (n *Notifier) NotifyAdmin(ctx context.Context, s OrderSummary) error {
	return n.send(ctx, n.addr.Admin, s.CustomerEmail, RenderAdminNotification, s)
}

func (n *Notifier) SendReceipt(ctx context.Context, s OrderSummary) error {
	return n.send(ctx, s.CustomerEmail, "", RenderCustomerReceipt, s)
}

func (n *Notifier) AlertStudio(ctx context.Context, s OrderSummary) error {
	return n.send(ctx, n.addr.Studio, s.CustomerEmail, RenderStudioAlert, s)
}

func (n *Notifier) AlertError(ctx context.Context, s OrderSummary) error {
	return n.send(ctx, n.addr.Admin, "", RenderErrorAlert, s)
}

func (n *Notifier) ForwardContact(ctx context.Context, m ContactMessage) error {
	content, err := RenderContact(m)
	if err != nil {
		return fmt.Errorf("render contact: %w", err)
	}
	return n.deliver(ctx, n.addr.Admin, m.Email, content)
}

func (n *Notifier) send(ctx context.Context, to, replyTo string, render func(OrderSummary) (Content, error), s OrderSummary) error {
	content, err := render(s)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return n.deliver(ctx, to, replyTo, content)
}

func (n *Notifier) deliver(ctx context.Context, to, replyTo string, c Content) error {
	_, err := n.sender.Send(ctx, Message{
		From:    n.addr.From,
		To:      []string{to},
		ReplyTo: replyTo,
		Subject: c.Subject,
		HTML:    c.HTML,
		Text:    c.Text,
	})
	return err
}
