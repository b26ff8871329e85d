package usecase

import (
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/entity"
)

// SubmitLeadInput is the public form body. The camelCase legacy names
// (phoneNumber, birthDateFirst, birthDateSecond) come from older form builds.
type SubmitLeadInput struct {
	Type   string `json:"type" validate:"required,oneof=phone online"`
	Site   string `json:"site" validate:"omitempty,max=64"`
	Name   string `json:"name" validate:"max=100"`
	Gender string `json:"gender" validate:"max=20"`
	Phone  string `json:"phone" validate:"required,krphone"`
	Birth  string `json:"birth" validate:"required_if=Type phone,max=20"`

	RRNFront string `json:"rrnFront" validate:"required_if=Type online,max=20"`
	RRNBack  string `json:"rrnBack" validate:"omitempty,max=20"`

	PhoneNumber     string `json:"phoneNumber,omitempty" validate:"-"`
	BirthDateFirst  string `json:"birthDateFirst,omitempty" validate:"-"`
	BirthDateSecond string `json:"birthDateSecond,omitempty" validate:"-"`

	// Preenchidos pelo handler, não pelo corpo
	UserAgent string `json:"-" validate:"-"`
	IP        string `json:"-" validate:"-"`
}

// Resolve folds the legacy aliases into the canonical fields and trims
// every value. Canonical fields win when both are sent.
func (in SubmitLeadInput) Resolve() SubmitLeadInput {
	out := in
	out.Type = strings.ToLower(strings.TrimSpace(in.Type))
	out.Site = strings.ToLower(strings.TrimSpace(in.Site))
	out.Name = strings.TrimSpace(in.Name)
	out.Gender = strings.TrimSpace(in.Gender)
	out.Phone = firstNonEmpty(in.Phone, in.PhoneNumber)
	out.Birth = strings.TrimSpace(in.Birth)
	out.RRNFront = firstNonEmpty(in.RRNFront, in.BirthDateFirst)
	out.RRNBack = firstNonEmpty(in.RRNBack, in.BirthDateSecond)
	out.PhoneNumber, out.BirthDateFirst, out.BirthDateSecond = "", "", ""
	return out
}

func (in SubmitLeadInput) submission() codec.Submission {
	return codec.Submission{
		Site:     in.Site,
		Type:     entity.ConsultationType(in.Type),
		Name:     in.Name,
		Phone:    in.Phone,
		Gender:   in.Gender,
		Birth:    in.Birth,
		RRNFront: in.RRNFront,
		RRNBack:  in.RRNBack,
	}
}

type IssueOutput struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

type SubmitLeadOutput struct {
	OK          bool        `json:"ok"`
	Site        string      `json:"site"`
	Type        string      `json:"type"`
	Issue       IssueOutput `json:"issue"`
	RequestedAt time.Time   `json:"-"`
}

// ListLeadsInput carries the admin listing filters. From/To are inclusive
// UTC days in YYYY-MM-DD form.
type ListLeadsInput struct {
	Site  string
	Type  string
	State string
	From  string
	To    string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
