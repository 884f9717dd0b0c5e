package driver

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Element 内存页面中的一个元素
type Element struct {
	// Value 当前值(输入框内容)
	Value string

	// Text 元素文本(用于成功提示等只读元素)
	Text string

	// AppearAfter 导航后延迟多久才出现,模拟异步渲染
	AppearAfter time.Duration

	// ClickFailures 普通点击前 N 次失败,模拟元素被遮挡
	ClickFailures int

	// ForceClickFails 强制点击也失败
	ForceClickFails bool

	// RejectDirectFill 拒绝直接赋值,模拟富文本编辑器
	RejectDirectFill bool

	// NavigateTo 点击后页面跳转到该地址
	NavigateTo string
}

// Memory 内存驱动
// 以 selector -> Element 的映射模拟一张页面,支持注入延迟出现、
// 点击失败、拒绝直接赋值等故障,用于测试和 dry-run
type Memory struct {
	mu       sync.Mutex
	elements map[string]*Element
	url      string
	navAt    time.Time
	navErr   error
	redirect string
	focused  string
	ops      []string
}

// NewMemory 创建内存驱动
func NewMemory() *Memory {
	return &Memory{
		elements: make(map[string]*Element),
		navAt:    time.Now(),
	}
}

// AddElement 添加元素
func (m *Memory) AddElement(selector string, el *Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el == nil {
		el = &Element{}
	}
	m.elements[selector] = el
}

// RemoveElement 移除元素
func (m *Memory) RemoveElement(selector string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.elements, selector)
}

// SetRedirect 让后续导航一律落到指定地址,模拟登录页重定向
func (m *Memory) SetRedirect(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirect = url
}

// SetNavError 注入导航错误
func (m *Memory) SetNavError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navErr = err
}

// Value 读取元素当前值
func (m *Memory) Value(selector string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.elements[selector]; ok {
		return el.Value
	}
	return ""
}

// Ops 返回操作记录,按发生顺序
func (m *Memory) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ops))
	copy(out, m.ops)
	return out
}

func (m *Memory) record(op string) {
	m.ops = append(m.ops, op)
}

type memHandle struct {
	selector string
}

// Selector 返回命中该元素的选择器
func (h *memHandle) Selector() string {
	return h.selector
}

// Navigate 跳转页面
func (m *Memory) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("navigate:" + url)
	if m.navErr != nil {
		return m.navErr
	}
	if m.redirect != "" {
		m.url = m.redirect
	} else {
		m.url = url
	}
	m.navAt = time.Now()
	return nil
}

// Query 查询元素
func (m *Memory) Query(ctx context.Context, selector string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("query:" + selector)
	el, ok := m.elements[selector]
	if !ok {
		return nil, ErrNoMatch
	}
	if el.AppearAfter > 0 && time.Since(m.navAt) < el.AppearAfter {
		return nil, ErrNoMatch
	}
	return &memHandle{selector: selector}, nil
}

// Click 点击元素
func (m *Memory) Click(ctx context.Context, h Handle, opts ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[h.Selector()]
	if !ok {
		return ErrNoMatch
	}
	if opts.Force {
		m.record("click-force:" + h.Selector())
		if el.ForceClickFails {
			return fmt.Errorf("element %s not clickable", h.Selector())
		}
	} else {
		m.record("click:" + h.Selector())
		if el.ClickFailures > 0 {
			el.ClickFailures--
			return fmt.Errorf("element %s intercepted", h.Selector())
		}
	}
	m.focused = h.Selector()
	if el.NavigateTo != "" {
		m.url = el.NavigateTo
		m.navAt = time.Now()
	}
	return nil
}

// Fill 直接写入元素值
func (m *Memory) Fill(ctx context.Context, h Handle, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("fill:" + h.Selector())
	el, ok := m.elements[h.Selector()]
	if !ok {
		return ErrNoMatch
	}
	if el.RejectDirectFill {
		return fmt.Errorf("element %s does not accept direct value assignment", h.Selector())
	}
	el.Value = text
	return nil
}

// Focus 聚焦元素
func (m *Memory) Focus(ctx context.Context, h Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("focus:" + h.Selector())
	if _, ok := m.elements[h.Selector()]; !ok {
		return ErrNoMatch
	}
	m.focused = h.Selector()
	return nil
}

// SelectAll 全选元素内容
func (m *Memory) SelectAll(ctx context.Context, h Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("select-all:" + h.Selector())
	if _, ok := m.elements[h.Selector()]; !ok {
		return ErrNoMatch
	}
	return nil
}

// Paste 粘贴到当前聚焦元素
func (m *Memory) Paste(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("paste")
	if m.focused == "" {
		return fmt.Errorf("no focused element")
	}
	el, ok := m.elements[m.focused]
	if !ok {
		return ErrNoMatch
	}
	el.Value = text
	return nil
}

// Text 读取元素文本
func (m *Memory) Text(ctx context.Context, h Handle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[h.Selector()]
	if !ok {
		return "", ErrNoMatch
	}
	if el.Text != "" {
		return el.Text, nil
	}
	return el.Value, nil
}

// CurrentURL 返回当前页面地址
func (m *Memory) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

// Close 释放资源
func (m *Memory) Close() error {
	return nil
}
