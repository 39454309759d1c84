package typescript

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	docPolicyOnce sync.Once
	docPolicy     *bluemonday.Policy
)

// SanitizeDoc strips markup from labels and descriptions before they become
// doc comments. Editors often paste rich-text fragments into descriptions.
func SanitizeDoc(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := docSanitizer().Sanitize(trimmed)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func docSanitizer() *bluemonday.Policy {
	docPolicyOnce.Do(func() {
		docPolicy = bluemonday.StrictPolicy()
	})
	return docPolicy
}
