package editor

type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyEscape     Key = "Escape"
	KeyModEnter   Key = "Mod+Enter"
)

// ParseKey maps a DOM key name plus modifier state onto a bound key.
// Enter only commits with Ctrl or Meta held.
func ParseKey(name string, ctrl, meta bool) (Key, bool) {
	switch name {
	case "ArrowLeft":
		return KeyArrowLeft, true
	case "ArrowRight":
		return KeyArrowRight, true
	case "Escape", "Esc":
		return KeyEscape, true
	case "Enter":
		if ctrl || meta {
			return KeyModEnter, true
		}
	case string(KeyModEnter):
		return KeyModEnter, true
	}
	return "", false
}
