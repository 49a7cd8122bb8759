package fix

import (
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// CredentialMessage is the one error the UI rewords; everything else is
// forwarded as-is with a retry-by-reset affordance.
const CredentialMessage = "The configured API key is not valid. Check GEMINI_API_KEY and restart."

// UserMessage maps an engine error to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsCredentialError(err) {
		return CredentialMessage
	}
	return err.Error()
}

// IsCredentialError matches the invalid-key failure by the service's own
// wording; the Gemini API reports it as a 400 with "API key not valid".
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), "API key not valid") {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return strings.Contains(gerr.Message, "API key not valid")
	}
	return false
}
