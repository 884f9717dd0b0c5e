package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// 单次驱动调用的默认时限
const pwCallTimeout = 5 * time.Second

// PlaywrightOptions Playwright 驱动选项
type PlaywrightOptions struct {
	// Headless 无头模式,生产环境默认开启
	Headless bool

	// UserAgent 自定义 UA,为空用浏览器默认值
	UserAgent string
}

// Playwright 基于 playwright-go 的真实浏览器驱动
// 一个实例对应一个独立的浏览器上下文和页面,不跨运行复用
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

// pwHandle 封装 playwright 定位器
type pwHandle struct {
	locator  playwright.Locator
	selector string
}

func (h *pwHandle) Selector() string {
	return h.selector
}

// NewPlaywright 启动浏览器并创建驱动
func NewPlaywright(opts PlaywrightOptions) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &Playwright{
		pw:      pw,
		browser: browser,
		bctx:    bctx,
		page:    page,
	}, nil
}

// sessionState 登录态快照的 cookie 部分
// 与 playwright 的 storage state 导出格式兼容
type sessionState struct {
	Cookies []sessionCookie `json:"cookies"`
}

type sessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// InjectState 把保存的登录态 cookies 写入浏览器上下文
func (d *Playwright) InjectState(ctx context.Context, state []byte) error {
	var parsed sessionState
	if err := json.Unmarshal(state, &parsed); err != nil {
		return fmt.Errorf("failed to parse session state: %w", err)
	}
	if len(parsed.Cookies) == 0 {
		return fmt.Errorf("session state contains no cookies")
	}

	cookies := make([]playwright.OptionalCookie, 0, len(parsed.Cookies))
	for _, c := range parsed.Cookies {
		cookie := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Expires > 0 {
			cookie.Expires = playwright.Float(c.Expires)
		}
		cookies = append(cookies, cookie)
	}

	return d.bctx.AddCookies(cookies)
}

// Navigate 跳转到指定地址
func (d *Playwright) Navigate(ctx context.Context, url string) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutFromContext(ctx, 30*time.Second),
	})
	return err
}

// Query 查询元素,未命中返回 ErrNoMatch
// 立即返回当前状态,轮询等待由上层控制
func (d *Playwright) Query(ctx context.Context, selector string) (Handle, error) {
	locator := d.page.Locator(selector)
	count, err := locator.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoMatch
	}
	return &pwHandle{locator: locator.First(), selector: selector}, nil
}

// Click 点击元素
func (d *Playwright) Click(ctx context.Context, h Handle, opts ClickOptions) error {
	ph, ok := h.(*pwHandle)
	if !ok {
		return fmt.Errorf("foreign element handle %q", h.Selector())
	}
	return ph.locator.Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: timeoutFromContext(ctx, pwCallTimeout),
	})
}

// Fill 直接写入输入框的值
func (d *Playwright) Fill(ctx context.Context, h Handle, text string) error {
	ph, ok := h.(*pwHandle)
	if !ok {
		return fmt.Errorf("foreign element handle %q", h.Selector())
	}
	return ph.locator.Fill(text, playwright.LocatorFillOptions{
		Timeout: timeoutFromContext(ctx, pwCallTimeout),
	})
}

// Focus 聚焦元素
func (d *Playwright) Focus(ctx context.Context, h Handle) error {
	ph, ok := h.(*pwHandle)
	if !ok {
		return fmt.Errorf("foreign element handle %q", h.Selector())
	}
	return ph.locator.Focus(playwright.LocatorFocusOptions{
		Timeout: timeoutFromContext(ctx, pwCallTimeout),
	})
}

// SelectAll 全选当前聚焦元素的内容
func (d *Playwright) SelectAll(ctx context.Context, h Handle) error {
	return d.page.Keyboard().Press("ControlOrMeta+a")
}

// Paste 写入剪贴板并粘贴到当前聚焦元素
// 富文本编辑器拦截直接赋值,粘贴路径可以触发其内部状态更新
func (d *Playwright) Paste(ctx context.Context, text string) error {
	if _, err := d.page.Evaluate("text => navigator.clipboard.writeText(text)", text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return d.page.Keyboard().Press("ControlOrMeta+v")
}

// Text 读取元素文本
func (d *Playwright) Text(ctx context.Context, h Handle) (string, error) {
	ph, ok := h.(*pwHandle)
	if !ok {
		return "", fmt.Errorf("foreign element handle %q", h.Selector())
	}
	return ph.locator.TextContent(playwright.LocatorTextContentOptions{
		Timeout: timeoutFromContext(ctx, pwCallTimeout),
	})
}

// CurrentURL 返回当前页面地址
func (d *Playwright) CurrentURL(ctx context.Context) (string, error) {
	return d.page.URL(), nil
}

// Close 释放浏览器资源
func (d *Playwright) Close() error {
	if d.page != nil {
		d.page.Close()
	}
	if d.bctx != nil {
		d.bctx.Close()
	}
	if d.browser != nil {
		d.browser.Close()
	}
	if d.pw != nil {
		return d.pw.Stop()
	}
	return nil
}

// timeoutFromContext 把 context 剩余时限换算成 playwright 的毫秒超时
func timeoutFromContext(ctx context.Context, fallback time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		remain := time.Until(deadline)
		if remain > 0 && remain < fallback {
			return playwright.Float(float64(remain.Milliseconds()))
		}
	}
	return playwright.Float(float64(fallback.Milliseconds()))
}
