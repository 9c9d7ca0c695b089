package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

var reWebhook = regexp.MustCompile(`/api/webhooks/(\d+)/([\w-]+)`)

// Webhook es un webhook de Discord ya parseado.
type Webhook struct {
	ID    string
	Token string
}

// ParseWebhookURL acepta https://discord.com/api/webhooks/<id>/<token>.
func ParseWebhookURL(raw string) (Webhook, error) {
	m := reWebhook.FindStringSubmatch(strings.TrimSpace(raw))
	if len(m) != 3 {
		return Webhook{}, fmt.Errorf("invalid discord webhook url %q", raw)
	}
	return Webhook{ID: m[1], Token: m[2]}, nil
}

// ParseWebhookURLs ignora (y loguea) las URLs inválidas.
func ParseWebhookURLs(raws []string) []Webhook {
	out := make([]Webhook, 0, len(raws))
	for _, r := range raws {
		wh, err := ParseWebhookURL(r)
		if err != nil {
			log.Printf("[discord] %v", err)
			continue
		}
		out = append(out, wh)
	}
	return out
}

// executor es el subset de *discordgo.Session que usamos.
type executor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AuditStore lo implementa storage.AuditRepo
type AuditStore interface {
	Insert(ctx context.Context, e storage.AuditEntry) (string, error)
	MarkDelivered(ctx context.Context, id string) error
}

type Notifier struct {
	s          executor
	audit      *Webhook
	store      AuditStore
	serverName string
}

// NewNotifier: auditURL puede venir vacío (sólo se guarda en la DB).
func NewNotifier(s executor, auditURL, serverName string, store AuditStore) *Notifier {
	n := &Notifier{s: s, store: store, serverName: serverName}
	if auditURL != "" {
		if wh, err := ParseWebhookURL(auditURL); err == nil {
			n.audit = &wh
		} else {
			log.Printf("[discord] audit webhook disabled: %v", err)
		}
	}
	return n
}

// Audit guarda el mensaje en audit_log y lo manda al webhook de auditoría.
func (n *Notifier) Audit(ctx context.Context, message, by string) error {
	kind := by
	if kind == "" {
		kind = "AUDIT"
	}
	var id string
	if n.store != nil {
		var err error
		id, err = n.store.Insert(ctx, storage.AuditEntry{Kind: kind, By: by, Message: message})
		if err != nil {
			log.Printf("[discord] audit store: %v", err)
		}
	}
	if n.audit == nil {
		return nil
	}

	content := fmt.Sprintf("[%s] %s", n.serverName, message)
	if by != "" {
		content = fmt.Sprintf("[%s][**%s**] %s", n.serverName, by, message)
	}
	if _, err := n.s.WebhookExecute(n.audit.ID, n.audit.Token, false, &discordgo.WebhookParams{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("audit webhook: %w", err)
	}
	if n.store != nil && id != "" {
		// ya salió a Discord: sólo queda logueado, el janitor no lo borra
		if err := n.store.MarkDelivered(ctx, id); err != nil {
			log.Printf("[discord] audit %s sent but not marked delivered: %v", id, err)
		}
	}
	return nil
}

// Embed manda embed a cada hook; sigue aunque alguno falle.
func (n *Notifier) Embed(ctx context.Context, hooks []Webhook, embed *discordgo.MessageEmbed) error {
	var errs []error
	for _, h := range hooks {
		_, err := n.s.WebhookExecute(h.ID, h.Token, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, discordgo.WithContext(ctx))
		if err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", h.ID, err))
		}
	}
	return errors.Join(errs...)
}

// EmbedURLs parsea las URLs configuradas y manda el embed a cada una.
func (n *Notifier) EmbedURLs(ctx context.Context, urls []string, embed *discordgo.MessageEmbed) error {
	hooks := ParseWebhookURLs(urls)
	if len(hooks) == 0 {
		return nil
	}
	return n.Embed(ctx, hooks, embed)
}
