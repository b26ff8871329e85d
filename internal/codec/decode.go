package codec

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

// Names reported by DecodeDetailed for the body strategy that produced the fields.
const (
	StrategyFence = "fence"
	StrategyJSON  = "json"
	StrategyLines = "lines"
	StrategyNone  = "none"
)

// canonical field keys
const (
	fieldSite        = "site"
	fieldType        = "type"
	fieldName        = "name"
	fieldPhone       = "phone"
	fieldGender      = "gender"
	fieldBirth       = "birth"
	fieldRRNFront    = "rrnFront"
	fieldRRNBack     = "rrnBack"
	fieldRequestedAt = "requestedAt"
)

var keyAliases = buildAliases(map[string][]string{
	fieldName:        {"name", "이름", "성명"},
	fieldPhone:       {"phone", "phonenumber", "tel", "전화", "전화번호", "연락처", "휴대폰", "휴대폰번호"},
	fieldBirth:       {"birth", "birthdate", "dob", "생년월일", "주민번호", "주민등록번호"},
	fieldRRNFront:    {"rrnfront", "birthdatefirst"},
	fieldRRNBack:     {"rrnback", "rrnbackmasked", "birthdatesecond"},
	fieldGender:      {"gender", "sex", "성별"},
	fieldType:        {"type", "유형", "타입", "상담유형"},
	fieldSite:        {"site", "사이트"},
	fieldRequestedAt: {"requestedat", "time", "timestamp", "신청시간", "접수시간"},
})

func buildAliases(m map[string][]string) map[string]string {
	out := make(map[string]string)
	for field, keys := range m {
		for _, k := range keys {
			out[k] = field
		}
	}
	return out
}

func canonicalKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.Trim(k, "*_`\"' {}")
	k = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
	return keyAliases[k]
}

type fields map[string]string

func (f fields) set(key, val string) {
	field := canonicalKey(key)
	if field == "" {
		return
	}
	if _, seen := f[field]; seen {
		return
	}
	if val = strings.TrimSpace(val); val != "" {
		f[field] = val
	}
}

type bodyStrategy struct {
	name  string
	parse func(body string) (fields, bool)
}

// Tried in order; the first one yielding any known field wins.
var bodyStrategies = []bodyStrategy{
	{StrategyFence, fromFence},
	{StrategyJSON, fromBraces},
	{StrategyLines, fromLines},
}

func fromFence(body string) (fields, bool) {
	i := strings.Index(body, "```")
	if i < 0 {
		return nil, false
	}
	inner := body[i+3:]
	if j := strings.Index(inner, "```"); j >= 0 {
		inner = inner[:j]
	}
	return fromBraces(inner)
}

func fromBraces(s string) (fields, bool) {
	a := strings.Index(s, "{")
	b := strings.LastIndex(s, "}")
	if a < 0 || b <= a {
		return nil, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(s[a:b+1]), &raw); err != nil {
		return nil, false
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := fields{}
	for _, k := range keys {
		f.set(k, stringify(raw[k]))
	}
	return f, len(f) > 0
}

func fromLines(body string) (fields, bool) {
	f := fields{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*• ")
		i := strings.IndexAny(line, ":：")
		if i <= 0 {
			continue
		}
		sepLen := 1
		if strings.HasPrefix(line[i:], "：") {
			sepLen = len("：")
		}
		// tolerate lines lifted from a truncated JSON object
		val := strings.TrimSuffix(strings.TrimSpace(line[i+sepLen:]), ",")
		f.set(line[:i], strings.Trim(val, `"`))
	}
	return f, len(f) > 0
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

var (
	titleMaskedRRN = regexp.MustCompile(`(\d{6})-(\d)\*{6}`)
	titleHead      = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*([^/(]*)`)
	titleIdentity  = regexp.MustCompile(`^\d{6}(-[\d*]\*{6})?$`)
)

// Decode never fails: unreadable parts degrade to empty values.
func (c *Codec) Decode(issue entity.Issue) entity.LeadRecord {
	rec, _ := c.DecodeDetailed(issue)
	return rec
}

// DecodeDetailed also reports which body strategy produced the fields.
func (c *Codec) DecodeDetailed(issue entity.Issue) (entity.LeadRecord, string) {
	f, strategy := fields{}, StrategyNone
	for _, s := range bodyStrategies {
		if parsed, ok := s.parse(issue.Body); ok {
			f, strategy = parsed, s.name
			break
		}
	}

	titleType, titleName := parseTitleHead(issue.Title)

	rec := entity.LeadRecord{
		Name:  scrubRRN(f[fieldName]),
		Phone: NormalizePhone(f[fieldPhone]),
		Issue: entity.IssueRef{Number: issue.Number, URL: issue.HTMLURL},
	}

	// Payload wins over labels when both carry a value; labels only fill gaps.
	rec.Type = ParseType(f[fieldType])
	if rec.Type == "" {
		rec.Type = ParseType(LabelValue(issue.Labels, LabelTypePrefix))
	}
	if rec.Type == "" {
		rec.Type = titleType
	}

	rec.Site = strings.ToLower(strings.TrimSpace(f[fieldSite]))
	if rec.Site == "" {
		rec.Site = LabelValue(issue.Labels, LabelSitePrefix)
	}
	if rec.Site == "" {
		rec.Site = c.defaultSite
	}

	var parts RRNParts
	if f[fieldRRNFront] != "" || f[fieldRRNBack] != "" {
		parts = SplitRRN(f[fieldRRNFront], f[fieldRRNBack])
	} else {
		parts = ParseIdentity(f[fieldBirth])
	}
	if parts.Parity == "" && rec.Type != entity.ConsultationPhone {
		if m := titleMaskedRRN.FindStringSubmatch(issue.Title); m != nil {
			parts = SplitRRN(m[1], m[2])
		}
	}
	if parts.Front6 == "" && parts.Parity == "" {
		parts = identityFromTitle(issue.Title)
	}
	rec.BirthOrRRN = identityFor(rec.Type, parts)

	rec.Gender = InferGender(f[fieldGender], parts.Parity, c.parity)
	if rec.Gender == entity.GenderUnknown {
		rec.Gender = genderFromTitle(issue.Title)
	}

	if rec.Name == "" {
		rec.Name = titleName
	}

	rec.RequestedAt = issue.CreatedAt.UTC()
	if ts, ok := parseTime(f[fieldRequestedAt]); ok {
		rec.RequestedAt = ts
	}

	return rec, strategy
}

// ParseType accepts the enum values and their Korean labels.
func ParseType(s string) entity.ConsultationType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return ""
	case s == string(entity.ConsultationPhone), strings.HasPrefix(s, "전화"):
		return entity.ConsultationPhone
	case s == string(entity.ConsultationOnline), strings.HasPrefix(s, "온라인"):
		return entity.ConsultationOnline
	}
	return ""
}

func identityFor(t entity.ConsultationType, p RRNParts) string {
	switch t {
	case entity.ConsultationPhone:
		return p.Front6
	case entity.ConsultationOnline:
		return p.Display()
	}
	if p.Parity != "" {
		return p.Display()
	}
	return p.Front6
}

// LabelValue returns the lower-cased value of the first non-empty label with
// prefix, or "".
func LabelValue(labels []string, prefix string) string {
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if strings.HasPrefix(l, prefix) {
			if v := strings.TrimSpace(l[len(prefix):]); v != "" {
				return v
			}
		}
	}
	return ""
}

func parseTitleHead(title string) (entity.ConsultationType, string) {
	m := titleHead.FindStringSubmatch(title)
	if m == nil {
		return "", ""
	}
	name := strings.TrimSpace(m[2])
	if name == unnamed || name == "무기명" {
		name = ""
	}
	return ParseType(m[1]), scrubRRN(name)
}

// identityFromTitle reads the last " / " segment of titles written by Encode.
func identityFromTitle(title string) RRNParts {
	segs := strings.Split(title, "/")
	if len(segs) < 3 {
		return RRNParts{}
	}
	last := strings.TrimSpace(segs[len(segs)-1])
	if !titleIdentity.MatchString(last) {
		return RRNParts{}
	}
	return ParseIdentity(last)
}

// genderFromTitle looks at the segments after the name so a name such as
// "남궁민" does not decide the gender.
func genderFromTitle(title string) entity.Gender {
	segs := strings.Split(title, "/")
	if len(segs) < 2 {
		return entity.GenderUnknown
	}
	rest := strings.Join(segs[1:], "/")
	switch {
	case strings.Contains(rest, "여"):
		return entity.GenderFemale
	case strings.Contains(rest, "남"):
		return entity.GenderMale
	}
	return entity.GenderUnknown
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
