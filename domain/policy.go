package domain

// Visibility and ownership rules. The message log's list/edit/delete
// paths call these; nothing else re-checks ad hoc.

// IsVisible reports whether viewer may see m. Private messages are
// readable by their author and named recipient only; public and status
// messages by everyone.
func IsVisible(m Message, viewer string) bool {
	if m.Kind != KindPrivate {
		return true
	}
	return viewer == m.From || viewer == m.To
}

// CanMutate reports whether actor may edit or delete m.
func CanMutate(m Message, actor string) bool {
	return actor == m.From
}
