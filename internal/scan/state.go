package scan

// State is the scanner's control state. Exactly one is active at a time.
type State int

const (
	StateDefault State = iota
	StateFoundPrefix
	StateInShellBody
	StateInExecutableName
	StateInScriptBody
)

func (s State) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateFoundPrefix:
		return "found-prefix"
	case StateInShellBody:
		return "in-shell-body"
	case StateInExecutableName:
		return "in-executable-name"
	case StateInScriptBody:
		return "in-script-body"
	default:
		return "unknown"
	}
}
