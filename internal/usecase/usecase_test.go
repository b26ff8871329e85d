package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-inbox/internal/codec"
	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/infra/queue"
	"github.com/xavierca1/lead-inbox/internal/usecase"
)

// MockIssueStore
type MockIssueStore struct {
	mock.Mock
}

func (m *MockIssueStore) CreateIssue(ctx context.Context, draft entity.IssueDraft) (*entity.Issue, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Issue), args.Error(1)
}

func (m *MockIssueStore) ListIssues(ctx context.Context, q entity.IssueQuery) ([]entity.Issue, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Issue), args.Error(1)
}

// MockReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Record(ctx context.Context, r *entity.SubmissionReceipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishLeadCreated(ctx context.Context, event queue.LeadCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMetrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) LeadSubmitted(site, leadType string) { m.Called(site, leadType) }
func (m *MockMetrics) DecodeStrategy(strategy string)      { m.Called(strategy) }
func (m *MockMetrics) IntegrationError(service string)     { m.Called(service) }

var t0 = time.Date(2025, 3, 14, 1, 2, 3, 0, time.UTC)

func newSubmit(store usecase.IssueStore) *usecase.SubmitLeadUseCase {
	uc := usecase.NewSubmitLeadUseCase(codec.New("unknown"), store)
	uc.Now = func() time.Time { return t0 }
	return uc
}

func phoneInput() usecase.SubmitLeadInput {
	return usecase.SubmitLeadInput{
		Type:   "phone",
		Site:   "teeth",
		Name:   "홍길동",
		Phone:  "12345678",
		Birth:  "900101",
		Gender: "남",
	}
}

func TestSubmitLead_PhoneSuccess(t *testing.T) {
	store := new(MockIssueStore)
	receipts := new(MockReceiptRepository)
	producer := new(MockQueueProducer)
	metrics := new(MockMetrics)

	store.On("CreateIssue", mock.Anything, mock.MatchedBy(func(d entity.IssueDraft) bool {
		return d.Title == "[전화] 홍길동 / 남 / 900101" &&
			assert.ObjectsAreEqual([]string{"type:phone", "site:teeth"}, d.Labels)
	})).Return(&entity.Issue{Number: 42, HTMLURL: "https://github.com/acme/leads/issues/42"}, nil)

	receipts.On("Record", mock.Anything, mock.MatchedBy(func(r *entity.SubmissionReceipt) bool {
		return r.IssueNumber == 42 && r.Site == "teeth" && r.Type == entity.ConsultationPhone && r.RequestedAt.Equal(t0)
	})).Return(nil)
	producer.On("PublishLeadCreated", mock.Anything, mock.MatchedBy(func(e queue.LeadCreatedEvent) bool {
		return e.IssueNumber == 42 && e.EventID != "" && e.Name == "홍길동"
	})).Return(nil)
	metrics.On("LeadSubmitted", "teeth", "phone").Return()

	uc := newSubmit(store)
	uc.Receipts = receipts
	uc.Queue = producer
	uc.Metrics = metrics

	out, err := uc.Execute(context.Background(), phoneInput())

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "teeth", out.Site)
	assert.Equal(t, "phone", out.Type)
	assert.Equal(t, 42, out.Issue.Number)
	assert.Equal(t, "https://github.com/acme/leads/issues/42", out.Issue.URL)

	store.AssertExpectations(t)
	receipts.AssertExpectations(t)
	producer.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestSubmitLead_LegacyFieldsAreMasked(t *testing.T) {
	store := new(MockIssueStore)
	var captured entity.IssueDraft
	store.On("CreateIssue", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(entity.IssueDraft) }).
		Return(&entity.Issue{Number: 7}, nil)

	out, err := newSubmit(store).Execute(context.Background(), usecase.SubmitLeadInput{
		Type:            "online",
		Name:            "김영희",
		PhoneNumber:     "010-1234-5678",
		BirthDateFirst:  "900101",
		BirthDateSecond: "2234567",
	})

	require.NoError(t, err)
	assert.Equal(t, "unknown", out.Site)
	assert.Equal(t, "[온라인] 김영희 / 여 / 900101-2******", captured.Title)
	assert.Contains(t, captured.Body, `"phone": "01012345678"`)
	assert.NotContains(t, captured.Title+captured.Body, "2234567")
}

func TestSubmitLead_DiagnosticsInBody(t *testing.T) {
	store := new(MockIssueStore)
	var captured entity.IssueDraft
	store.On("CreateIssue", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(entity.IssueDraft) }).
		Return(&entity.Issue{Number: 8}, nil)

	in := phoneInput()
	in.UserAgent = "Mozilla/5.0"
	in.IP = "203.0.113.9"

	_, err := newSubmit(store).Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, captured.Body, `"userAgent": "Mozilla/5.0"`)
	assert.Contains(t, captured.Body, `"ip": "203.0.113.9"`)
}

func TestSubmitLead_ValidationRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*usecase.SubmitLeadInput)
		field string
	}{
		{"unsupported type", func(in *usecase.SubmitLeadInput) { in.Type = "fax" }, "type"},
		{"missing type", func(in *usecase.SubmitLeadInput) { in.Type = "" }, "type"},
		{"missing phone", func(in *usecase.SubmitLeadInput) { in.Phone = "" }, "phone"},
		{"short phone", func(in *usecase.SubmitLeadInput) { in.Phone = "1234" }, "phone"},
		{"phone without birth", func(in *usecase.SubmitLeadInput) { in.Birth = "" }, "birth"},
		{"online without rrn front", func(in *usecase.SubmitLeadInput) { in.Type = "online" }, "rrnFront"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockIssueStore)
			in := phoneInput()
			tt.edit(&in)

			_, err := newSubmit(store).Execute(context.Background(), in)

			require.Error(t, err)
			var de *usecase.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "VALIDATION_ERROR", de.Code)

			var fields []string
			for _, f := range de.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
			store.AssertNotCalled(t, "CreateIssue", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitLead_TypeIsCaseInsensitive(t *testing.T) {
	store := new(MockIssueStore)
	store.On("CreateIssue", mock.Anything, mock.Anything).Return(&entity.Issue{Number: 1}, nil)

	in := phoneInput()
	in.Type = " PHONE "
	in.Site = " Teeth "
	out, err := newSubmit(store).Execute(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "phone", out.Type)
	assert.Equal(t, "teeth", out.Site)
}

func TestSubmitLead_StoreErrorIsTechnical(t *testing.T) {
	store := new(MockIssueStore)
	metrics := new(MockMetrics)
	boom := errors.New("github down")
	store.On("CreateIssue", mock.Anything, mock.Anything).Return(nil, boom)
	metrics.On("IntegrationError", "github").Return()

	uc := newSubmit(store)
	uc.Metrics = metrics
	_, err := uc.Execute(context.Background(), phoneInput())

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.ErrorIs(t, err, boom)
	metrics.AssertExpectations(t)
}

func TestSubmitLead_FollowUpFailuresDoNotFail(t *testing.T) {
	store := new(MockIssueStore)
	receipts := new(MockReceiptRepository)
	producer := new(MockQueueProducer)

	store.On("CreateIssue", mock.Anything, mock.Anything).Return(&entity.Issue{Number: 5}, nil)
	receipts.On("Record", mock.Anything, mock.Anything).Return(errors.New("db gone"))
	producer.On("PublishLeadCreated", mock.Anything, mock.Anything).Return(errors.New("broker gone"))

	uc := newSubmit(store)
	uc.Receipts = receipts
	uc.Queue = producer

	out, err := uc.Execute(context.Background(), phoneInput())
	require.NoError(t, err)
	assert.Equal(t, 5, out.Issue.Number)
	store.AssertNumberOfCalls(t, "CreateIssue", 1)
}

func TestResolvePrefersCanonicalFields(t *testing.T) {
	in := usecase.SubmitLeadInput{
		Phone:           "01011112222",
		PhoneNumber:     "01033334444",
		RRNFront:        " ",
		BirthDateFirst:  "900101",
		BirthDateSecond: "1234567",
	}.Resolve()

	assert.Equal(t, "01011112222", in.Phone)
	assert.Equal(t, "900101", in.RRNFront)
	assert.Equal(t, "1234567", in.RRNBack)
	assert.Empty(t, in.PhoneNumber)
	assert.Empty(t, in.BirthDateSecond)
}

// ---- listagem ----

func encodedIssue(t *testing.T, number int, created time.Time, sub codec.Submission) entity.Issue {
	t.Helper()
	c := codec.New("unknown")
	draft, err := c.Encode(c.Normalize(sub, created), entity.Diagnostics{})
	require.NoError(t, err)
	return entity.Issue{
		Number:    number,
		HTMLURL:   "https://github.com/acme/leads/issues/" + string(rune('0'+number)),
		CreatedAt: created,
		Title:     draft.Title,
		Body:      draft.Body,
		Labels:    draft.Labels,
	}
}

func TestListLeads_MapsAndFilters(t *testing.T) {
	phone := encodedIssue(t, 1, t0, codec.Submission{
		Site: "teeth", Type: entity.ConsultationPhone, Name: "홍길동", Phone: "12345678", Gender: "남", Birth: "900101",
	})
	online := encodedIssue(t, 2, t0, codec.Submission{
		Site: "teeth", Type: entity.ConsultationOnline, Name: "김영희", Phone: "01099998888", RRNFront: "900101", RRNBack: "2234567",
	})
	// payload disagrees with the label and wins
	relabeled := entity.Issue{
		Number:    3,
		CreatedAt: t0,
		Title:     "[전화] 이몽룡 / 남 / 880202",
		Body:      "```json\n{\"site\":\"other\",\"type\":\"phone\",\"name\":\"이몽룡\"}\n```",
		Labels:    []string{"type:phone", "site:teeth"},
	}

	store := new(MockIssueStore)
	store.On("ListIssues", mock.Anything, entity.IssueQuery{Labels: []string{"site:teeth"}, State: "all"}).
		Return([]entity.Issue{phone, online, relabeled}, nil)

	rows, err := usecase.NewListLeadsUseCase(codec.New("unknown"), store).
		Execute(context.Background(), usecase.ListLeadsInput{Site: "Teeth"})

	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, entity.ExportRow{
		Site:        "teeth",
		RequestedAt: "2025-03-14 10:02:03",
		RequestType: "전화상담",
		Name:        "홍길동",
		BirthOrRRN:  "900101",
		Gender:      "남",
		Phone:       "01012345678",
		Type:        entity.ConsultationPhone,
		IssueNumber: 1,
		IssueURL:    phone.HTMLURL,
	}, rows[0])

	assert.Equal(t, "온라인상담", rows[1].RequestType)
	assert.Equal(t, "900101-2******", rows[1].BirthOrRRN)
	assert.Equal(t, "여", rows[1].Gender)
	store.AssertExpectations(t)
}

func TestListLeads_TypeAndDateFilters(t *testing.T) {
	march := encodedIssue(t, 1, t0, codec.Submission{
		Site: "teeth", Type: entity.ConsultationPhone, Name: "홍길동", Phone: "12345678", Birth: "900101",
	})
	january := entity.Issue{
		Number:    2,
		CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Body:      "이름: 박\n연락처: 01099998888",
		Labels:    []string{"type:phone", "site:teeth"},
	}

	store := new(MockIssueStore)
	store.On("ListIssues", mock.Anything, entity.IssueQuery{Labels: []string{"type:phone"}, State: "open"}).
		Return([]entity.Issue{march, january}, nil)

	metrics := new(MockMetrics)
	metrics.On("DecodeStrategy", codec.StrategyFence).Return().Once()

	uc := usecase.NewListLeadsUseCase(codec.New("unknown"), store)
	uc.Metrics = metrics

	rows, err := uc.Execute(context.Background(), usecase.ListLeadsInput{
		Type: "phone", State: "open", From: "2025-03-14", To: "2025-03-14",
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].IssueNumber)
	metrics.AssertExpectations(t)
}

func TestListLeads_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   usecase.ListLeadsInput
		code string
	}{
		{"type", usecase.ListLeadsInput{Type: "fax"}, "INVALID_TYPE"},
		{"state", usecase.ListLeadsInput{State: "draft"}, "INVALID_STATE"},
		{"from", usecase.ListLeadsInput{From: "14/03/2025"}, "INVALID_DATE"},
		{"range", usecase.ListLeadsInput{From: "2025-03-15", To: "2025-03-01"}, "INVALID_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockIssueStore)
			_, err := usecase.NewListLeadsUseCase(codec.New("unknown"), store).Execute(context.Background(), tt.in)

			var de *usecase.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
			store.AssertNotCalled(t, "ListIssues", mock.Anything, mock.Anything)
		})
	}
}

func TestListLeads_StoreError(t *testing.T) {
	store := new(MockIssueStore)
	store.On("ListIssues", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := usecase.NewListLeadsUseCase(codec.New("unknown"), store).Execute(context.Background(), usecase.ListLeadsInput{})
	assert.True(t, usecase.IsTechnicalError(err))
}

func TestListLeads_UndecodableIssueStillListed(t *testing.T) {
	store := new(MockIssueStore)
	store.On("ListIssues", mock.Anything, mock.Anything).Return([]entity.Issue{
		{Number: 9, CreatedAt: t0, Title: "random", Body: "```json\n{broken"},
	}, nil)

	rows, err := usecase.NewListLeadsUseCase(codec.New("fallback"), store).Execute(context.Background(), usecase.ListLeadsInput{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fallback", rows[0].Site)
	assert.Equal(t, "2025-03-14 10:02:03", rows[0].RequestedAt)
	assert.Empty(t, rows[0].Name)
}

func TestToRowFallbacks(t *testing.T) {
	issue := entity.Issue{
		Number:    4,
		HTMLURL:   "https://github.com/acme/leads/issues/4",
		CreatedAt: time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC),
		Labels:    []string{"site:eyes"},
	}

	row := usecase.ToRow(issue, entity.LeadRecord{}, "unknown")
	assert.Equal(t, "eyes", row.Site)
	assert.Equal(t, "2025-01-01 05:00:00", row.RequestedAt)
	assert.Equal(t, 4, row.IssueNumber)
	assert.Equal(t, issue.HTMLURL, row.IssueURL)
	assert.Empty(t, row.RequestType)
	assert.Empty(t, row.Gender)

	row = usecase.ToRow(entity.Issue{}, entity.LeadRecord{}, "unknown")
	assert.Equal(t, "unknown", row.Site)
	assert.Empty(t, row.RequestedAt)
	assert.False(t, strings.Contains(row.RequestedAt, "0001"))
}
