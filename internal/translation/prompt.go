package translation

import (
	"fmt"

	"codeberg.org/snonux/itemtranslate/internal/languages"
)

// BuildPrompt creates the single instruction sent to every provider
func BuildPrompt(text, targetLang, sourceLang string) string {
	return fmt.Sprintf(`Translate the following text from %s to %s.
Provide a natural, professional and fluent translation as a native speaker would write it.
Respond with only the translated text. Do not add explanations, notes, labels or any preamble.

%s`, languages.Name(sourceLang), languages.Name(targetLang), text)
}
