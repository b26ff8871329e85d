package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

const (
	LabelTypePrefix = "type:"
	LabelSitePrefix = "site:"

	unnamed     = "이름 미입력"
	noGender    = "성별 미선택"
	defaultDiag = 256
)

var ErrUnsupportedType = errors.New("unsupported consultation type")

// Codec converts between LeadRecord and the issue title/body/labels.
// It holds configuration only and is safe for concurrent use.
type Codec struct {
	defaultSite      string
	parity           ParityRule
	diagnosticMaxLen int
}

type Option func(*Codec)

func WithParityRule(rule ParityRule) Option {
	return func(c *Codec) { c.parity = rule }
}

func WithDiagnosticMaxLen(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.diagnosticMaxLen = n
		}
	}
}

func New(defaultSite string, opts ...Option) *Codec {
	c := &Codec{
		defaultSite:      strings.ToLower(strings.TrimSpace(defaultSite)),
		parity:           KoreanRRNParity,
		diagnosticMaxLen: defaultDiag,
	}
	if c.defaultSite == "" {
		c.defaultSite = "unknown"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) DefaultSite() string { return c.defaultSite }

// Submission holds raw form values. RRNBack is write-only: Normalize keeps
// its first digit and drops the rest.
type Submission struct {
	Site     string
	Type     entity.ConsultationType
	Name     string
	Phone    string
	Gender   string
	Birth    string
	RRNFront string
	RRNBack  string
}

// Normalize builds the canonical record for a submission.
func (c *Codec) Normalize(sub Submission, requestedAt time.Time) entity.LeadRecord {
	rec := entity.LeadRecord{
		Site:        c.site(sub.Site),
		Type:        sub.Type,
		Name:        strings.TrimSpace(sub.Name),
		Phone:       NormalizePhone(sub.Phone),
		RequestedAt: requestedAt.UTC(),
	}

	parity := ""
	switch sub.Type {
	case entity.ConsultationPhone:
		rec.BirthOrRRN = CanonicalBirth(sub.Birth)
	case entity.ConsultationOnline:
		parts := SplitRRN(sub.RRNFront, sub.RRNBack)
		rec.BirthOrRRN = parts.Display()
		parity = parts.Parity
	}
	rec.Gender = InferGender(sub.Gender, parity, c.parity)
	return rec
}

// issuePayload is the JSON object written inside the fenced block.
type issuePayload struct {
	Site          string `json:"site"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Gender        string `json:"gender"`
	Birth         string `json:"birth,omitempty"`
	RRNFront      string `json:"rrnFront,omitempty"`
	RRNBackMasked string `json:"rrnBackMasked,omitempty"`
	RequestedAt   string `json:"requestedAt"`
	UserAgent     string `json:"userAgent,omitempty"`
	IP            string `json:"ip,omitempty"`
}

// Encode renders the issue draft for rec. The identity is re-masked here so a
// record carrying a full RRN still never reaches the tracker unmasked.
func (c *Codec) Encode(rec entity.LeadRecord, diag entity.Diagnostics) (entity.IssueDraft, error) {
	if !rec.Type.Valid() {
		return entity.IssueDraft{}, fmt.Errorf("%w: %q", ErrUnsupportedType, rec.Type)
	}

	site := c.site(rec.Site)
	name := scrubRRN(strings.TrimSpace(rec.Name))

	p := issuePayload{
		Site:        site,
		Type:        string(rec.Type),
		Name:        name,
		Phone:       NormalizePhone(rec.Phone),
		Gender:      string(genderOrUnknown(rec.Gender)),
		RequestedAt: rec.RequestedAt.UTC().Format(time.RFC3339),
		UserAgent:   scrubRRN(truncateRunes(strings.TrimSpace(diag.UserAgent), c.diagnosticMaxLen)),
		IP:          scrubRRN(truncateRunes(strings.TrimSpace(diag.IP), c.diagnosticMaxLen)),
	}

	var identity string
	if rec.Type == entity.ConsultationPhone {
		p.Birth = CanonicalBirth(rec.BirthOrRRN)
		identity = p.Birth
	} else {
		parts := ParseIdentity(rec.BirthOrRRN)
		p.RRNFront = parts.Front6
		p.RRNBackMasked = parts.BackMasked
		identity = parts.Display()
	}

	body, err := renderBody(p)
	if err != nil {
		return entity.IssueDraft{}, err
	}

	titleName := name
	if titleName == "" {
		titleName = unnamed
	}
	genderLabel := rec.Gender.Label()
	if genderLabel == "" {
		genderLabel = noGender
	}

	return entity.IssueDraft{
		Title:  fmt.Sprintf("[%s] %s / %s / %s", rec.Type.TitleLabel(), titleName, genderLabel, identity),
		Body:   body,
		Labels: []string{LabelTypePrefix + string(rec.Type), LabelSitePrefix + site},
	}, nil
}

func renderBody(p issuePayload) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("```json\n")

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode lead payload: %w", err)
	}

	buf.WriteString("```\n")
	return buf.String(), nil
}

func (c *Codec) site(s string) string {
	if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
		return s
	}
	return c.defaultSite
}

func genderOrUnknown(g entity.Gender) entity.Gender {
	if g == entity.GenderMale || g == entity.GenderFemale {
		return g
	}
	return entity.GenderUnknown
}
