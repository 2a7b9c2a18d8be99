package parse

import (
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// PickReplyForMentor selects the reply meant for p: by mentor ID, then by
// mentor name, then the first reply present. ok is false only when resp
// holds no replies.
func PickReplyForMentor(resp *mentor.Response, p mentor.Profile) (mentor.Reply, bool) {
	if resp == nil || len(resp.MentorReplies) == 0 {
		return mentor.Reply{}, false
	}
	id := textutil.NormalizeKey(p.ID)
	for _, r := range resp.MentorReplies {
		if id != "" && textutil.NormalizeKey(r.MentorID) == id {
			return r, true
		}
	}
	name := textutil.NormalizeKey(p.DisplayName)
	for _, r := range resp.MentorReplies {
		if name != "" && textutil.NormalizeKey(r.MentorName) == name {
			return r, true
		}
	}
	return resp.MentorReplies[0], true
}
