package entity

import (
	"context"
	"time"
)

// Tipo de consulta pedido no formulário
type ConsultationType string

const (
	ConsultationPhone  ConsultationType = "phone"
	ConsultationOnline ConsultationType = "online"
)

func (t ConsultationType) Valid() bool {
	return t == ConsultationPhone || t == ConsultationOnline
}

// Korean display label used in titles ("전화") and in exported rows ("전화상담").
func (t ConsultationType) TitleLabel() string {
	switch t {
	case ConsultationPhone:
		return "전화"
	case ConsultationOnline:
		return "온라인"
	}
	return ""
}

func (t ConsultationType) RequestLabel() string {
	if l := t.TitleLabel(); l != "" {
		return l + "상담"
	}
	return ""
}

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Label is the Korean short form used in titles and exports. Unknown renders empty.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "남"
	case GenderFemale:
		return "여"
	}
	return ""
}

// IssueRef identifies the issue that stores a lead. Assigned by the issue
// tracker and never changed afterwards.
type IssueRef struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// LeadRecord is the canonical, already-normalized lead. BirthOrRRN holds the
// 6-digit birth date for phone consultations and the masked display value
// (FFFFFF-X******) for online ones; the full RRN back segment never lives here.
type LeadRecord struct {
	Site        string           `json:"site"`
	Type        ConsultationType `json:"type"`
	Name        string           `json:"name"`
	Phone       string           `json:"phone"`
	BirthOrRRN  string           `json:"birth_or_rrn"`
	Gender      Gender           `json:"gender"`
	RequestedAt time.Time        `json:"requested_at"`
	Issue       IssueRef         `json:"issue"`
}

// Dados de diagnóstico anexados ao corpo da issue
type Diagnostics struct {
	UserAgent string
	IP        string
}

// Recibo local de envio (sem PII), gravado depois que a issue foi criada
type SubmissionReceipt struct {
	IssueNumber int
	IssueURL    string
	Site        string
	Type        ConsultationType
	RequestedAt time.Time
}

type ReceiptRepositoryInterface interface {
	Record(ctx context.Context, receipt *SubmissionReceipt) error
}
