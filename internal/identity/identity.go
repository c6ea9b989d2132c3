// Package identity validates the identifiers a caller uses to address a chat.
package identity

import (
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCompanyID is returned for a company id that is not a positive integer.
var ErrInvalidCompanyID = errors.New("invalid company id")

var (
	chatCodePattern   = regexp.MustCompile(`^chat_\d+_[a-f0-9]{8}$`)
	externalIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:+@-]{1,128}$`)
)

// ParseCompanyID parses the company path parameter.
func ParseCompanyID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCompanyID
	}
	return id, nil
}

// SanitizeChatCode returns code when it is a well-formed chat code of
// companyID, or "" so that a new chat is started.
func SanitizeChatCode(companyID int64, code string) string {
	code = strings.TrimSpace(code)
	if code == "" || !chatCodePattern.MatchString(code) {
		return ""
	}
	if !strings.HasPrefix(code, "chat_"+strconv.FormatInt(companyID, 10)+"_") {
		return ""
	}
	return code
}

// SanitizeExternalID returns id when it is a usable channel identifier, such
// as a phone number or an e-mail address, or "" otherwise.
func SanitizeExternalID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !externalIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// IPFromRequest returns a normalized remote IP for request logging.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
