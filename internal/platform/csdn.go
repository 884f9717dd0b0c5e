package platform

import (
	"context"
	"strings"

	"github.com/autopub/publish-gin/internal/driver"
	"github.com/autopub/publish-gin/internal/engine"
	"github.com/sirupsen/logrus"
)

// CSDN 的 DOM 选择器集中放在这里
// 站点改版频繁,抓取失效时只需更新这一块
const (
	csdnEditorURL  = "https://editor.csdn.net/md/"
	csdnLoginURL   = "passport.csdn.net"
	csdnArticleURL = "/article/details/"
)

var (
	// 标题输入框降级链
	csdnTitleSelectors = []engine.ElementSelector{
		{Query: `input.article-bar__title`, Description: "编辑器标题输入框"},
		{Query: `div.article-bar input[placeholder*="标题"]`, Description: "按占位符匹配的标题输入框"},
	}

	// 正文区域降级链
	csdnContentSelectors = []engine.ElementSelector{
		{Query: `div.editor__inner`, Description: "markdown 编辑区"},
		{Query: `div.cledit-section pre.editor__inner`, Description: "cledit 编辑区"},
		{Query: `div[contenteditable="true"]`, Description: "通用可编辑区域"},
	}

	// markdown 编辑器标志,存在即为 markdown 模式
	csdnMarkdownMarker = `div.cledit-section`

	// 发布按钮(打开发布面板)
	csdnPublishSelectors = []engine.ElementSelector{
		{Query: `button.btn-publish`, Description: "发布按钮"},
		{Query: `div.toolbar-container button[data-title="发布"]`, Description: "工具栏发布按钮"},
	}

	// 发布面板内的控件
	csdnTagInputSelector  = `div.mark_selection input.el-input__inner`
	csdnSummarySelector   = `textarea.el-textarea__inner`
	csdnVisibilityPrivate = `input[type="radio"][value="private"]`
	csdnCategoryInput     = `div.el-form-item__content input[placeholder*="分类"]`
	csdnConfirmSelectors  = []engine.ElementSelector{
		{Query: `div.modal__button-bar button.button--primary`, Description: "发布面板确认按钮"},
		{Query: `button.btn-b-red`, Description: "旧版发布确认按钮"},
	}

	// 发布成功后的文章链接
	csdnSuccessLinkSelector = `a.article-link`
)

// CSDN csdn.net 发布策略
// markdown 编辑器,标题直接赋值,正文按探测出的模式填充
type CSDN struct {
	base
}

// NewCSDN 创建 CSDN 策略
func NewCSDN(logger *logrus.Entry) *CSDN {
	return &CSDN{base: newBase("csdn", logger)}
}

// Prepare 打开编辑器,等待页面稳定,探测编辑器类型
func (s *CSDN) Prepare(ctx context.Context, drv driver.Driver, session *engine.Session) (*engine.PageContext, error) {
	if err := s.checkSession(session); err != nil {
		return nil, err
	}

	if err := drv.Navigate(ctx, csdnEditorURL); err != nil {
		return nil, engine.WrapError(engine.ErrorKindTimeout, err, "navigate to csdn editor")
	}

	page := engine.NewPageContext(drv, engine.EditorModeMarkdown, s.logger)

	// 等编辑器渲染完成,标题框出现即认为稳定
	ready := page.Actions.WaitStable(ctx, func(ctx context.Context) bool {
		_, err := drv.Query(ctx, csdnTitleSelectors[0].Query)
		return err == nil
	}, s.timing.StableWait, s.timing.PollInterval)
	if !ready {
		// 未就绪可能是被重定向到登录页
		if url, err := drv.CurrentURL(ctx); err == nil && strings.Contains(url, csdnLoginURL) {
			return nil, engine.NewError(engine.ErrorKindSessionInvalid, "redirected to csdn login page")
		}
		return nil, engine.NewError(engine.ErrorKindTimeout, "csdn editor did not become stable")
	}

	if _, err := drv.Query(ctx, csdnMarkdownMarker); err != nil {
		page.Editor = engine.EditorModeRichText
	}
	s.logger.WithField("editor", page.Editor).Debug("csdn editor detected")

	return page, nil
}

// FillTitle 填充标题,标题框是普通 input,始终直接赋值
func (s *CSDN) FillTitle(ctx context.Context, page *engine.PageContext, title string) error {
	h, err := s.locate(ctx, page, "标题输入框", csdnTitleSelectors)
	if err != nil {
		return err
	}
	return page.Actions.SafeFill(ctx, h, title, engine.EditorModeMarkdown)
}

// FillContent 按探测出的编辑器模式填充正文
func (s *CSDN) FillContent(ctx context.Context, page *engine.PageContext, content string) error {
	h, err := s.locate(ctx, page, "正文编辑区", csdnContentSelectors)
	if err != nil {
		return err
	}
	return page.Actions.SafeFill(ctx, h, content, page.Editor)
}

// ApplyOptionsAndSubmit 打开发布面板,尽力应用选项,提交并提取文章地址
func (s *CSDN) ApplyOptionsAndSubmit(ctx context.Context, page *engine.PageContext, opts engine.PublishOptions) (string, error) {
	// 打开发布面板是提交的前置动作,硬失败
	publishBtn, err := s.locate(ctx, page, "发布按钮", csdnPublishSelectors)
	if err != nil {
		return "", err
	}
	if err := page.Actions.SafeClick(ctx, publishBtn); err != nil {
		return "", err
	}

	// 选项全部软失败,单项出错不阻断提交
	for _, tag := range opts.Tags {
		tag := tag
		s.applySoft("tag:"+tag, func() error {
			h, err := page.Driver.Query(ctx, csdnTagInputSelector)
			if err != nil {
				return err
			}
			return page.Actions.SafeFill(ctx, h, tag, engine.EditorModeMarkdown)
		})
	}
	if opts.Summary != "" {
		s.applySoft("summary", func() error {
			h, err := page.Driver.Query(ctx, csdnSummarySelector)
			if err != nil {
				return err
			}
			return page.Actions.SafeFill(ctx, h, opts.Summary, engine.EditorModeMarkdown)
		})
	}
	for _, category := range opts.Categories {
		category := category
		s.applySoft("category:"+category, func() error {
			h, err := page.Driver.Query(ctx, csdnCategoryInput)
			if err != nil {
				return err
			}
			return page.Actions.SafeFill(ctx, h, category, engine.EditorModeMarkdown)
		})
	}
	if opts.Visibility == engine.VisibilityPrivate {
		s.applySoft("visibility", func() error {
			h, err := page.Driver.Query(ctx, csdnVisibilityPrivate)
			if err != nil {
				return err
			}
			return page.Actions.SafeClick(ctx, h)
		})
	}

	// 最终提交点击,硬失败
	confirmBtn, err := s.locate(ctx, page, "发布确认按钮", csdnConfirmSelectors)
	if err != nil {
		return "", err
	}
	if err := page.Actions.SafeClick(ctx, confirmBtn); err != nil {
		return "", err
	}

	return s.extractURL(ctx, page), nil
}

// extractURL 提取发布后的文章地址
// 优先取跳转后的页面地址,其次取成功提示里的链接,
// 都取不到时返回空串,调用方仍按成功处理
func (s *CSDN) extractURL(ctx context.Context, page *engine.PageContext) string {
	var published string
	page.Actions.WaitStable(ctx, func(ctx context.Context) bool {
		if url, err := page.Driver.CurrentURL(ctx); err == nil && strings.Contains(url, csdnArticleURL) {
			published = url
			return true
		}
		if h, err := page.Driver.Query(ctx, csdnSuccessLinkSelector); err == nil {
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
	return published
}
