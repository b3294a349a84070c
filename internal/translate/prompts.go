package translate

import (
	"fmt"
	"strings"
)

// buildTranslatePrompt constructs the translation prompt for LLM engines
func buildTranslatePrompt(text, sourceLang, targetLang string) string {
	if targetLang == "" {
		targetLang = DefaultTargetLanguage
	}
	if hasSource(sourceLang) {
		return fmt.Sprintf(`Translate the following text from %s to %s. Only respond with the translation, no additional text:

"%s"`, sourceLang, targetLang, text)
	}
	return fmt.Sprintf(`Translate the following text to %s. Only respond with the translation, no additional text:

"%s"`, targetLang, text)
}

// buildDetectPrompt constructs the language detection prompt for LLM engines
func buildDetectPrompt(text string) string {
	return fmt.Sprintf(`Detect the language of the following text and respond with only the language code (e.g., 'en', 'fr', 'vi', 'es', etc.):

"%s"`, text)
}

// cleanResponse strips markdown code fences and one pair of wrapping quotes
// that models tend to echo back from the prompt.
func cleanResponse(response string) string {
	response = strings.TrimSpace(response)

	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	for _, q := range []string{`"`, `'`, "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(response) >= len(q)+len(closing) && strings.HasPrefix(response, q) && strings.HasSuffix(response, closing) {
			response = strings.TrimSpace(response[len(q) : len(response)-len(closing)])
			break
		}
	}
	return response
}
