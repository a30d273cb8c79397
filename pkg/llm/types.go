// Базовые типы - универсальный язык общения с моделями.
package llm

// Role — роль автора сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message — одно сообщение в диалоге с моделью.
type Message struct {
	Role    Role
	Content string

	// Images — data-URI ("data:image/jpeg;base64,...") или http ссылки.
	// Непустой список превращает запрос в vision запрос.
	Images []string
}

// UserText — сокращение для самого частого случая.
func UserText(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
