package sdk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

// ErrNoContent means the server answered a tool call without any content,
// typically a read of a catalog or sprint that produced nothing to decode.
var ErrNoContent = errors.New("riskaudit sdk: tool returned no content")

// ToolError carries the message of a tool call the server rejected. The server
// flattens domain errors to text, so errors.Is against domain.ErrNotFound and
// domain.ErrValidation is answered from that text.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("riskaudit sdk: %s rejected: %s", e.Tool, e.Message)
}

func (e *ToolError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound, domain.ErrValidation:
		return strings.Contains(e.Message, target.Error())
	}
	return false
}
