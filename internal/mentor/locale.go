package mentor

import (
	"fmt"

	"github.com/kalambet/mentortable/internal/textutil"
)

// Disclaimers are part of the response contract and must not change.
const (
	DisclaimerEnglish = "These replies are AI-simulated perspectives inspired by public information about each mentor. They are not the real person's words and are not professional advice."
	DisclaimerChinese = "以上回复由 AI 基于公开信息模拟各位导师的视角生成，并非本人真实言论，也不构成专业建议。"
)

// Disclaimer returns the fixed disclaimer for lang.
func Disclaimer(lang textutil.Language) string {
	if lang == textutil.Chinese {
		return DisclaimerChinese
	}
	return DisclaimerEnglish
}

func defaultWhyThisFits(lang textutil.Language, name string) string {
	if lang == textutil.Chinese {
		return fmt.Sprintf("这段回答参考了%s公开表达过的价值观和做决定的方式。", name)
	}
	return fmt.Sprintf("This reflects the values and decision patterns %s is publicly known for.", name)
}

func defaultActionStep(lang textutil.Language) string {
	if lang == textutil.Chinese {
		return "写下你现在最担心的一件事，并在 24 小时内为它迈出最小的一步。"
	}
	return "Write down the one thing worrying you most and take the smallest possible step on it within 24 hours."
}

func defaultConfidenceNote(lang textutil.Language, name string) string {
	if lang == textutil.Chinese {
		return fmt.Sprintf("这是基于公开资料的模拟视角，未必代表%s本人的真实想法。", name)
	}
	return fmt.Sprintf("This is a simulated perspective based on public information and may not match what %s would actually say.", name)
}

// DefaultEmergencyMessage is used when a high-risk signal arrives without a
// message of its own.
func DefaultEmergencyMessage(lang textutil.Language) string {
	if lang == textutil.Chinese {
		return "如果你有伤害自己或他人的想法，请立即联系当地急救电话或心理危机干预热线，并告诉一位你信任的人。"
	}
	return "If you are thinking about harming yourself or someone else, please contact your local emergency number or a crisis hotline right now, and reach out to someone you trust."
}

// Backfill fills empty explanatory fields of r with deterministic
// defaults in lang. LikelyResponse is left alone.
func Backfill(r Reply, lang textutil.Language) Reply {
	name := r.MentorName
	if name == "" {
		name = r.MentorID
	}
	if name == "" {
		if lang == textutil.Chinese {
			name = "这位导师"
		} else {
			name = "this mentor"
		}
	}
	if r.WhyThisFits == "" {
		r.WhyThisFits = defaultWhyThisFits(lang, name)
	}
	if r.OneActionStep == "" {
		r.OneActionStep = defaultActionStep(lang)
	}
	if r.ConfidenceNote == "" {
		r.ConfidenceNote = defaultConfidenceNote(lang, name)
	}
	return r
}

// FallbackReply is the canned reply used when a mentor's generation fails.
func FallbackReply(p Profile, lang textutil.Language) Reply {
	name := p.Name()
	r := Reply{MentorID: p.ID, MentorName: name}
	if lang == textutil.Chinese {
		r.LikelyResponse = "我现在没法给你一个完整的回答，但我能感受到这件事让你很有压力。先深呼吸，把最让你担心的部分写下来，我们再一起一步一步地看。"
		r.WhyThisFits = fmt.Sprintf("暂时无法生成%s的个性化回复，这是一条通用的支持性回复。", name)
		r.ConfidenceNote = "这是一条备用回复，不代表导师本人的观点。"
	} else {
		r.LikelyResponse = "I can't give you a complete answer right now, but I can tell this is weighing on you. Take a breath, write down the part that worries you most, and we can work through it one step at a time."
		r.WhyThisFits = fmt.Sprintf("A general supportive reply used because %s's personalized perspective could not be generated.", name)
		r.ConfidenceNote = "This is a fallback reply and does not represent the mentor's own views."
	}
	r.OneActionStep = defaultActionStep(lang)
	return r
}
