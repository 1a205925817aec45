package speech

import (
	"fmt"
	"strings"

	"github.com/taxmonster/backend/internal/config"
)

// resolveCredentials returns the trimmed AppID and AccessToken or a descriptive error.
func resolveCredentials(cfg config.SpeechConfig) (string, string, error) {
	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)

	if appID == "" || token == "" {
		return "", "", fmt.Errorf("%w: volcengine speech requires AppID and AccessToken", config.ErrMissingCredential)
	}

	return appID, token, nil
}
