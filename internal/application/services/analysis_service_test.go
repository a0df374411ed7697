package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mindreel/backend/internal/domain/entities"
	apperrors "github.com/mindreel/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSummaries_ByContentType(t *testing.T) {
	summaries := []*entities.Summary{
		{ID: "s1", ContentType: "mindset"},
		{ID: "s2", ContentType: "finance"},
		{ID: "s3", ContentType: "mindset"},
		{ID: "s4"}, // unclassified
	}

	groups := groupSummaries(summaries, "")

	require.Len(t, groups, 3)
	assert.Len(t, groups["mindset"], 2)
	assert.Len(t, groups["finance"], 1)
	assert.Len(t, groups[entities.ContentTypeGeneric], 1)
}

func TestGroupSummaries_AuthorTypeCollapses(t *testing.T) {
	summaries := []*entities.Summary{
		{ID: "s1", ContentType: "mindset"},
		{ID: "s2", ContentType: "finance"},
	}

	groups := groupSummaries(summaries, "mindset")

	require.Len(t, groups, 1)
	assert.Len(t, groups["mindset"], 2)
}

func TestReportVersion(t *testing.T) {
	assert.Equal(t, "v1", reportVersion("author_report/v1"))
	assert.Equal(t, "v2", reportVersion("author_report/v2"))
	assert.Equal(t, "v1", reportVersion("custom_report"))
}

func TestRenderReportMarkdown_Passthrough(t *testing.T) {
	doc := json.RawMessage(`{"report_markdown": "# 报告\n\n内容"}`)
	assert.Equal(t, "# 报告\n\n内容", renderReportMarkdown(doc))
}

func TestRenderReportMarkdown_SynthesizesSections(t *testing.T) {
	doc := json.RawMessage(`{"overview": "专注个人成长领域", "core_themes": ["长期主义", "复利思维"]}`)

	out := renderReportMarkdown(doc)

	assert.Contains(t, out, "## 概览")
	assert.Contains(t, out, "专注个人成长领域")
	assert.Contains(t, out, "## 核心主题")
	assert.Contains(t, out, "- 长期主义")
	assert.Contains(t, out, "- 复利思维")
}

func TestRenderReportMarkdown_UnknownShapeFallsBack(t *testing.T) {
	doc := json.RawMessage(`{"something_else": 42}`)
	assert.Equal(t, string(doc), renderReportMarkdown(doc))
}

func TestBuildReportContext(t *testing.T) {
	group := []*entities.Summary{
		{
			ID: "s1",
			Data: &entities.StructuredSummary{
				OneLiner:  "长期主义是反直觉的",
				Summary:   "讲解为什么坚持很难。",
				KeyPoints: []string{"即时反馈的诱惑"},
			},
		},
	}

	out := buildReportContext("测试作者", group)

	assert.Contains(t, out, "作者：测试作者")
	assert.Contains(t, out, "### 内容 1")
	assert.Contains(t, out, "一句话：长期主义是反直觉的")
	assert.Contains(t, out, "- 即时反馈的诱惑")
}

type fakeAuthors struct {
	author *entities.Author
}

func (f *fakeAuthors) Create(ctx context.Context, author *entities.Author) error { return nil }
func (f *fakeAuthors) Update(ctx context.Context, author *entities.Author) error { return nil }
func (f *fakeAuthors) GetByID(ctx context.Context, id string) (*entities.Author, error) {
	if f.author == nil {
		return nil, apperrors.NewNotFoundError("author not found")
	}
	return f.author, nil
}
func (f *fakeAuthors) GetByExternalID(ctx context.Context, platform, externalID string) (*entities.Author, error) {
	return f.GetByID(ctx, externalID)
}

func TestResolveContentType_AuthorInheritWritesOnce(t *testing.T) {
	contents := &fakeContents{}
	svc := NewAnalysisService(nil, &fakeAuthors{author: &entities.Author{ID: "a1", AuthorType: "mindset"}},
		contents, nil, nil, nil)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")

	label, err := svc.ResolveContentType(context.Background(), content, "正文")
	require.NoError(t, err)
	assert.Equal(t, "mindset", label)
	assert.Equal(t, entities.TypeSourceAuthorInherit, content.ContentTypeSource)
	assert.Equal(t, 1, contents.updates)

	// unchanged item resolves again without another write
	label, err = svc.ResolveContentType(context.Background(), content, "正文")
	require.NoError(t, err)
	assert.Equal(t, "mindset", label)
	assert.Equal(t, 1, contents.updates)
}

func TestResolveContentType_ExistingClassificationNoWrite(t *testing.T) {
	contents := &fakeContents{}
	// nil gateway: reaching the classifier stage would panic the test
	svc := NewAnalysisService(nil, &fakeAuthors{author: &entities.Author{ID: "a1"}},
		contents, nil, nil, nil)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")
	content.ContentType = "finance"
	content.ContentTypeSource = entities.TypeSourceClassifier

	for i := 0; i < 2; i++ {
		label, err := svc.ResolveContentType(context.Background(), content, "正文")
		require.NoError(t, err)
		assert.Equal(t, "finance", label)
	}
	assert.Zero(t, contents.updates)
}
