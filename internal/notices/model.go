package notices

import "time"

// Notice is one legal notification in the test corpus. ManualLabel is
// the reviewer-assigned classification used as ground truth when a
// session computes accuracy; it stays nil for unlabeled notices.
type Notice struct {
	ID          string
	Context     string
	ManualLabel *string
	ExtraInfo   string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
