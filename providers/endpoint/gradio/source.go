package gradio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSource is returned when a source is neither a URL nor an
// "owner/space" id.
var ErrInvalidSource = errors.New("gradio: invalid source")

const spaceHostSuffix = ".hf.space"

// ResolveSource returns the root URL of the app addressed by src.
func ResolveSource(src string) (string, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/"), nil
	}

	owner, space, found := strings.Cut(trimmed, "/")
	if !found || owner == "" || space == "" || strings.Contains(space, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}

	subdomain := strings.ToLower(owner + "-" + space)
	subdomain = strings.NewReplacer(".", "-", "_", "-").Replace(subdomain)

	return "https://" + subdomain + spaceHostSuffix, nil
}
