// Package messaging 提供基于 Redis Stream 的产物事件发布
package messaging

import (
	"encoding/json"
	"time"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SetMetadata 设置元数据，空值忽略
func (m *Message) SetMetadata(key, value string) {
	if value == "" {
		return
	}
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// 事件类型
const (
	TypeArtifactCreated = "artifact.created"
	TypeArtifactDeleted = "artifact.deleted"
)

// ArtifactEvent 产物生命周期事件载荷（不含生成内容本身）
type ArtifactEvent struct {
	Kind         string    `json:"kind"`
	ArtifactID   uint64    `json:"artifact_id"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	Curriculum   string    `json:"curriculum,omitempty"`
	LearnerLevel string    `json:"learner_level,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
