package extract

// Action tells the host page what to do with the floating save button.
type Action int

const (
	Keep Action = iota
	Insert
	Replace
	Remove
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	default:
		return "keep"
	}
}

// SaveButton tracks the posting a save button was created for, so a
// single-page-app content swap can be told apart from a re-render of the
// same posting.
type SaveButton struct {
	present bool
	title   string
}

// Reconcile updates the button state for freshly extracted details.
func (b *SaveButton) Reconcile(details *JobDetails) Action {
	if details == nil || details.Title == "" {
		if !b.present {
			return Keep
		}
		b.present, b.title = false, ""
		return Remove
	}
	if !b.present {
		b.present, b.title = true, details.Title
		return Insert
	}
	if b.title != details.Title {
		b.title = details.Title
		return Replace
	}
	return Keep
}

// Title is the posting title the button currently belongs to.
func (b *SaveButton) Title() (string, bool) {
	return b.title, b.present
}
