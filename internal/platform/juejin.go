package platform

import (
	"context"
	"strings"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/sirupsen/logrus"
)

// 掘金的 DOM 选择器,改版时集中更新
const (
	juejinEditorURL  = "https://juejin.cn/editor/drafts/new"
	juejinLoginHint  = `div.login-popup`
	juejinArticleURL = "juejin.cn/post/"
)

var (
	juejinTitleSelectors = []engine.ElementSelector{
		{Query: `input.title-input`, Description: "标题输入框"},
		{Query: `input[placeholder*="标题"]`, Description: "按占位符匹配的标题输入框"},
	}

	juejinContentSelectors = []engine.ElementSelector{
		{Query: `div.ProseMirror`, Description: "富文本编辑区"},
		{Query: `div.CodeMirror textarea`, Description: "markdown 源码编辑区"},
	}

	// 富文本编辑器标志,存在即走剪贴板填充
	juejinRichTextMarker = `div.ProseMirror`

	juejinPublishSelectors = []engine.ElementSelector{
		{Query: `button.publish-btn`, Description: "发布按钮"},
		{Query: `div.publish-popup button.xitu-btn`, Description: "发布弹层按钮"},
	}

	// 发布面板内的控件
	juejinCategorySelector = `div.category-list div.item`
	juejinTagInputSelector = `div.tag-input input`
	juejinSummarySelector  = `textarea.summary-input`

	juejinConfirmSelectors = []engine.ElementSelector{
		{Query: `button.submit-btn`, Description: "确定并发布按钮"},
		{Query: `div.panel-footer button.primary`, Description: "面板底部主按钮"},
	}

	juejinSuccessLinkSelector = `a.result-link`
)

// Juejin juejin.cn 发布策略
// 默认富文本编辑器,正文走剪贴板粘贴
type Juejin struct {
	base
}

// NewJuejin 创建掘金策略
func NewJuejin(logger *logrus.Entry) *Juejin {
	return &Juejin{base: newBase("juejin", logger)}
}

// Prepare 打开编辑器并探测编辑器类型
func (s *Juejin) Prepare(ctx context.Context, drv driver.Driver, session *engine.Session) (*engine.PageContext, error) {
	if err := s.checkSession(session); err != nil {
		return nil, err
	}

	if err := drv.Navigate(ctx, juejinEditorURL); err != nil {
		return nil, engine.WrapError(engine.ErrorKindTimeout, err, "navigate to juejin editor")
	}

	page := engine.NewPageContext(drv, engine.EditorModeRichText, s.logger)

	ready := page.Actions.WaitStable(ctx, func(ctx context.Context) bool {
		_, err := drv.Query(ctx, juejinTitleSelectors[0].Query)
		return err == nil
	}, s.timing.StableWait, s.timing.PollInterval)
	if !ready {
		// 掘金未登录时编辑器页会弹出登录浮层
		if _, err := drv.Query(ctx, juejinLoginHint); err == nil {
			return nil, engine.NewError(engine.ErrorKindSessionInvalid, "juejin login popup detected")
		}
		return nil, engine.NewError(engine.ErrorKindTimeout, "juejin editor did not become stable")
	}

	if _, err := drv.Query(ctx, juejinRichTextMarker); err != nil {
		page.Editor = engine.EditorModeMarkdown
	}
	s.logger.WithField("editor", page.Editor).Debug("juejin editor detected")

	return page, nil
}

// FillTitle 填充标题
func (s *Juejin) FillTitle(ctx context.Context, page *engine.PageContext, title string) error {
	h, err := s.locate(ctx, page, "标题输入框", juejinTitleSelectors)
	if err != nil {
		return err
	}
	return page.Actions.SafeFill(ctx, h, title, engine.EditorModeMarkdown)
}

// FillContent 填充正文
func (s *Juejin) FillContent(ctx context.Context, page *engine.PageContext, content string) error {
	h, err := s.locate(ctx, page, "正文编辑区", juejinContentSelectors)
	if err != nil {
		return err
	}
	return page.Actions.SafeFill(ctx, h, content, page.Editor)
}

// ApplyOptionsAndSubmit 应用发布选项并提交
func (s *Juejin) ApplyOptionsAndSubmit(ctx context.Context, page *engine.PageContext, opts engine.PublishOptions) (string, error) {
	publishBtn, err := s.locate(ctx, page, "发布按钮", juejinPublishSelectors)
	if err != nil {
		return "", err
	}
	if err := page.Actions.SafeClick(ctx, publishBtn); err != nil {
		return "", err
	}

	// 掘金发布前必须选分类,但仍按软失败处理:
	// 真实站点会用草稿兜底,提交失败时结果里自然会体现
	if len(opts.Categories) > 0 {
		s.applySoft("category", func() error {
			h, err := page.Driver.Query(ctx, juejinCategorySelector)
			if err != nil {
				return err
			}
			return page.Actions.SafeClick(ctx, h)
		})
	}
	for _, tag := range opts.Tags {
		tag := tag
		s.applySoft("tag:"+tag, func() error {
			h, err := page.Driver.Query(ctx, juejinTagInputSelector)
			if err != nil {
				return err
			}
			return page.Actions.SafeFill(ctx, h, tag, engine.EditorModeMarkdown)
		})
	}
	if opts.Summary != "" {
		s.applySoft("summary", func() error {
			h, err := page.Driver.Query(ctx, juejinSummarySelector)
			if err != nil {
				return err
			}
			return page.Actions.SafeFill(ctx, h, opts.Summary, engine.EditorModeMarkdown)
		})
	}

	confirmBtn, err := s.locate(ctx, page, "确定并发布按钮", juejinConfirmSelectors)
	if err != nil {
		return "", err
	}
	if err := page.Actions.SafeClick(ctx, confirmBtn); err != nil {
		return "", err
	}

	var published string
	page.Actions.WaitStable(ctx, func(ctx context.Context) bool {
		if url, err := page.Driver.CurrentURL(ctx); err == nil && strings.Contains(url, juejinArticleURL) {
			published = url
			return true
		}
		if h, err := page.Driver.Query(ctx, juejinSuccessLinkSelector); err == nil {
			if text, err := page.Driver.Text(ctx, h); err == nil && text != "" {
				published = text
				return true
			}
		}
		return false
	}, s.timing.StableWait, s.timing.PollInterval)

	if published == "" {
		s.logger.Warn("publish confirmed but no article url extracted")
	}
	return published, nil
}
