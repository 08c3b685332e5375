package schema

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a session transcript.
type Turn struct {
	Role    Role
	Content string
}

func NewUserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func NewAssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// Turns is an append-only transcript.
type Turns struct {
	Turns []Turn
}

// Add appends t.
func (ts *Turns) Add(t Turn) {
	ts.Turns = append(ts.Turns, t)
}

// Window returns a copy of the last n turns (all when n <= 0).
func (ts *Turns) Window(n int) []Turn {
	src := ts.Turns
	if n > 0 && len(src) > n {
		src = src[len(src)-n:]
	}
	out := make([]Turn, len(src))
	copy(out, src)
	return out
}
