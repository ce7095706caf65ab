package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptContentV1 PromptID = "content_v1"
	PromptLessonV1  PromptID = "lesson_v1"
)

// knownPrompts 已内嵌的模板
var knownPrompts = map[PromptID]struct{}{
	PromptContentV1: {},
	PromptLessonV1:  {},
}

// Registry 解析后的模板缓存；模板使用 Go template 语法，JSON 花括号无需转义
type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// Has 是否存在对应模板
func (r *Registry) Has(id PromptID) bool {
	_, ok := knownPrompts[id]
	return ok
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	if _, ok := knownPrompts[id]; !ok {
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
	return fmt.Sprintf("templates/%s.system.txt", id), fmt.Sprintf("templates/%s.user.txt", id), nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
