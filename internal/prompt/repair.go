package prompt

import (
	"fmt"

	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// MaxRepairInput caps how much of the malformed output is sent back.
const MaxRepairInput = 6000

const repairSystem = `You convert malformed model output into valid JSON. Output only the JSON object, nothing else.
The object must have exactly these top-level keys: schemaVersion, language, safety, mentorReplies, meta.
Keep the original wording of every reply. Do not add new advice.`

// RepairMessages asks the model to reformat raw into the canonical shape
// for mentor p.
func RepairMessages(raw string, lang textutil.Language, p mentor.Profile) []llm.Message {
	user := fmt.Sprintf(`Convert the text below into JSON of this shape:
%s

Text:
%s`, outputTemplate(lang, []mentor.Profile{p}), textutil.Truncate(raw, MaxRepairInput))
	return []llm.Message{
		{Role: "system", Content: repairSystem},
		{Role: "user", Content: user},
	}
}
