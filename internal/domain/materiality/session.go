package materiality

import (
	"fmt"
	"strings"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// MaxSessionIDLength bounds the opaque session identifier.
const MaxSessionIDLength = 128

// ValidateSessionID rejects empty, oversized or whitespace-bearing ids.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeSessionIDInvalid, "session id is required")
	}
	if len(id) > MaxSessionIDLength {
		return errors.New(errors.ErrCodeSessionIDInvalid, "session id too long").
			WithDetail(fmt.Sprintf("length=%d max=%d", len(id), MaxSessionIDLength))
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return errors.New(errors.ErrCodeSessionIDInvalid, "session id must not contain whitespace")
	}
	return nil
}
