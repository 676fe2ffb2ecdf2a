package issue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// 发布类型标签
type PublishType string

const (
	PublishTypePlugin  PublishType = "Plugin"
	PublishTypeAdapter PublishType = "Adapter"
	PublishTypeBot     PublishType = "Bot"
)

// ErrNotApplicable 事件与插件发布流程无关，整体跳过
var ErrNotApplicable = errors.New("event not applicable")

// Label 议题标签
type Label struct {
	Name string `json:"name"`
}

// Issue GitHub 议题负载
type Issue struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"`
	Labels      []Label         `json:"labels"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// Event GitHub 事件负载（issues / issue_comment）
type Event struct {
	Action string `json:"action"`
	Issue  *Issue `json:"issue"`
}

// ReadEvent 从事件负载文件读取事件
func ReadEvent(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("parse event payload: %w", err)
	}
	return &ev, nil
}

// ReadEventFromEnv 按 GITHUB_EVENT_PATH 环境变量读取事件
func ReadEventFromEnv() (*Event, string, error) {
	path := os.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return nil, "", fmt.Errorf("%w: GITHUB_EVENT_PATH not set", ErrNotApplicable)
	}

	ev, err := ReadEvent(path)
	if err != nil {
		return nil, "", err
	}
	return ev, os.Getenv("GITHUB_EVENT_NAME"), nil
}

// Gate 判断事件是否应该进入插件测试流程。
// 不相关的事件返回包裹 ErrNotApplicable 的错误，调用方按跳过处理。
func Gate(eventName string, ev *Event) error {
	if eventName != "issues" && eventName != "issue_comment" {
		return fmt.Errorf("%w: unsupported event %q", ErrNotApplicable, eventName)
	}

	if ev == nil || ev.Issue == nil {
		return fmt.Errorf("%w: payload has no issue", ErrNotApplicable)
	}

	// 评论在拉取请求下
	if len(ev.Issue.PullRequest) > 0 && string(ev.Issue.PullRequest) != "null" {
		return fmt.Errorf("%w: comment on pull request", ErrNotApplicable)
	}

	if ev.Issue.State != "open" {
		return fmt.Errorf("%w: issue not open", ErrNotApplicable)
	}

	if TypeByTitle(ev.Issue.Title) != PublishTypePlugin {
		return fmt.Errorf("%w: issue unrelated to plugin publish", ErrNotApplicable)
	}

	return nil
}

// TypeByTitle 通过标题获取发布类型
func TypeByTitle(title string) PublishType {
	switch {
	case strings.HasPrefix(title, string(PublishTypePlugin)):
		return PublishTypePlugin
	case strings.HasPrefix(title, string(PublishTypeAdapter)):
		return PublishTypeAdapter
	case strings.HasPrefix(title, string(PublishTypeBot)):
		return PublishTypeBot
	default:
		return ""
	}
}

// TypeByLabels 通过标签获取发布类型
func TypeByLabels(labels []Label) PublishType {
	for _, label := range labels {
		switch label.Name {
		case string(PublishTypePlugin):
			return PublishTypePlugin
		case string(PublishTypeAdapter):
			return PublishTypeAdapter
		case string(PublishTypeBot):
			return PublishTypeBot
		}
	}
	return ""
}
