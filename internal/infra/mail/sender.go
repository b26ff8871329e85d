package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/queue"
)

//go:embed templates/*.html
var templatesFS embed.FS

var noticeTmpl = template.Must(template.ParseFS(templatesFS, "templates/lead_notice.html"))

var kst = time.FixedZone("KST", 9*60*60)

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		From:   from,
		To:     to,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

// NewEmailSenderWithDialer is used by tests and by callers that need a
// custom SMTP transport.
func NewEmailSenderWithDialer(d Dialer, from string, to []string) *EmailSender {
	return &EmailSender{From: from, To: to, dialer: d}
}

// SendLeadNotice e-mails the team that a new lead issue exists.
func (s *EmailSender) SendLeadNotice(ctx context.Context, event queue.LeadCreatedEvent) error {
	if len(s.To) == 0 {
		return fmt.Errorf("nenhum destinatário configurado")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := NoticeData(event)
	body, err := RenderLeadNotice(data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Subject", fmt.Sprintf("[%s] 새 %s 신청 #%d", data.Site, data.RequestType, data.IssueNumber))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func NoticeData(event queue.LeadCreatedEvent) LeadNoticeData {
	name := strings.TrimSpace(event.Name)
	if name == "" {
		name = "이름 미입력"
	}
	data := LeadNoticeData{
		Site:        event.Site,
		RequestType: entity.ConsultationType(event.Type).RequestLabel(),
		Name:        name,
		IssueNumber: event.IssueNumber,
		IssueURL:    event.IssueURL,
	}
	if !event.RequestedAt.IsZero() {
		data.RequestedAt = event.RequestedAt.In(kst).Format("2006-01-02 15:04:05")
	}
	return data
}

func RenderLeadNotice(data LeadNoticeData) (string, error) {
	var body bytes.Buffer
	if err := noticeTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}
