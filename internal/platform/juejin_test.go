package platform

import (
	"context"
	"testing"
	"time"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func juejinSession() *engine.Session {
	return &engine.Session{Platform: "juejin", State: []byte(`{"cookies":[{"name":"sessionid","value":"x"}]}`), UpdatedAt: time.Now()}
}

// juejinEditorPage 构造一张包含掘金编辑器基本元素的内存页面
func juejinEditorPage() *driver.Memory {
	mem := driver.NewMemory()
	mem.AddElement(`input.title-input`, &driver.Element{})
	mem.AddElement(`div.ProseMirror`, &driver.Element{RejectDirectFill: true})
	mem.AddElement(`button.publish-btn`, &driver.Element{})
	mem.AddElement(`button.submit-btn`, &driver.Element{
		NavigateTo: "https://juejin.cn/post/7300000000000000000",
	})
	return mem
}

func runJuejin(t *testing.T, mem *driver.Memory, opts engine.PublishOptions) (string, error) {
	t.Helper()
	s := NewJuejin(nil)
	s.timing = fastTiming()
	ctx := context.Background()

	page, err := s.Prepare(ctx, mem, juejinSession())
	require.NoError(t, err)
	if err := s.FillTitle(ctx, page, "掘金标题"); err != nil {
		return "", err
	}
	if err := s.FillContent(ctx, page, "正文"); err != nil {
		return "", err
	}
	return s.ApplyOptionsAndSubmit(ctx, page, opts)
}

// TestJuejin_PublishFlow 测试完整发布流程
func TestJuejin_PublishFlow(t *testing.T) {
	mem := juejinEditorPage()

	url, err := runJuejin(t, mem, engine.PublishOptions{})

	require.NoError(t, err)
	assert.Equal(t, "https://juejin.cn/post/7300000000000000000", url)
	assert.Equal(t, "掘金标题", mem.Value(`input.title-input`))
	assert.Equal(t, "正文", mem.Value(`div.ProseMirror`))
	assert.Contains(t, mem.Ops(), "navigate:https://juejin.cn/editor/drafts/new")
}

// TestJuejin_RichTextUsesClipboard 测试富文本正文走剪贴板粘贴
func TestJuejin_RichTextUsesClipboard(t *testing.T) {
	mem := juejinEditorPage()

	_, err := runJuejin(t, mem, engine.PublishOptions{})

	require.NoError(t, err)
	ops := mem.Ops()
	assert.Contains(t, ops, "focus:div.ProseMirror")
	assert.Contains(t, ops, "select-all:div.ProseMirror")
	assert.Contains(t, ops, "paste")
	assert.NotContains(t, ops, "fill:div.ProseMirror")
}

// TestJuejin_MarkdownFallback 测试富文本标志缺失时回落到 markdown 源码区
func TestJuejin_MarkdownFallback(t *testing.T) {
	s := NewJuejin(nil)
	s.timing = fastTiming()

	mem := juejinEditorPage()
	mem.RemoveElement(`div.ProseMirror`)
	mem.AddElement(`div.CodeMirror textarea`, &driver.Element{})

	page, err := s.Prepare(context.Background(), mem, juejinSession())
	require.NoError(t, err)
	assert.Equal(t, engine.EditorModeMarkdown, page.Editor)

	require.NoError(t, s.FillContent(context.Background(), page, "# md"))
	assert.Equal(t, "# md", mem.Value(`div.CodeMirror textarea`))
	assert.NotContains(t, mem.Ops(), "paste")
}

// TestJuejin_LoginPopup 测试登录浮层出现时报登录态失效
func TestJuejin_LoginPopup(t *testing.T) {
	s := NewJuejin(nil)
	s.timing = fastTiming()

	mem := driver.NewMemory()
	mem.AddElement(`div.login-popup`, &driver.Element{})

	_, err := s.Prepare(context.Background(), mem, juejinSession())

	require.Error(t, err)
	assert.Equal(t, engine.ErrorKindSessionInvalid, engine.KindOf(err))
}

// TestJuejin_EditorNeverStable 测试编辑器始终未就绪时报超时
func TestJuejin_EditorNeverStable(t *testing.T) {
	s := NewJuejin(nil)
	s.timing = fastTiming()

	_, err := s.Prepare(context.Background(), driver.NewMemory(), juejinSession())

	require.Error(t, err)
	assert.Equal(t, engine.ErrorKindTimeout, engine.KindOf(err))
}

// TestJuejin_OptionsApplied 测试分类点击和标签摘要写入
func TestJuejin_OptionsApplied(t *testing.T) {
	mem := juejinEditorPage()
	mem.AddElement(`div.category-list div.item`, &driver.Element{})
	mem.AddElement(`div.tag-input input`, &driver.Element{})
	mem.AddElement(`textarea.summary-input`, &driver.Element{})

	_, err := runJuejin(t, mem, engine.PublishOptions{
		Categories: []string{"后端"},
		Tags:       []string{"go"},
		Summary:    "摘要",
	})

	require.NoError(t, err)
	assert.Contains(t, mem.Ops(), "click:div.category-list div.item")
	assert.Equal(t, "go", mem.Value(`div.tag-input input`))
	assert.Equal(t, "摘要", mem.Value(`textarea.summary-input`))
}

// TestJuejin_MissingOptionControlsSoftFail 测试选项控件缺失不阻断提交
func TestJuejin_MissingOptionControlsSoftFail(t *testing.T) {
	mem := juejinEditorPage()

	url, err := runJuejin(t, mem, engine.PublishOptions{
		Categories: []string{"后端"},
		Tags:       []string{"go"},
		Summary:    "摘要",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

// TestJuejin_MissingConfirmButton 测试确认按钮缺失是硬失败
func TestJuejin_MissingConfirmButton(t *testing.T) {
	mem := juejinEditorPage()
	mem.RemoveElement(`button.submit-btn`)

	_, err := runJuejin(t, mem, engine.PublishOptions{})

	require.Error(t, err)
	assert.Equal(t, engine.ErrorKindElementNotFound, engine.KindOf(err))
}

// TestJuejin_SuccessLinkFallback 测试页面不跳转时从成功提示里取链接
func TestJuejin_SuccessLinkFallback(t *testing.T) {
	mem := juejinEditorPage()
	mem.AddElement(`button.submit-btn`, &driver.Element{})
	mem.AddElement(`a.result-link`, &driver.Element{Text: "https://juejin.cn/post/7311111111111111111"})

	url, err := runJuejin(t, mem, engine.PublishOptions{})

	require.NoError(t, err)
	assert.Equal(t, "https://juejin.cn/post/7311111111111111111", url)
}
