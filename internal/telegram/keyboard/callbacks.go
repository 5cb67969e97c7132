package keyboard

import (
	"fmt"
	"strings"
)

// Callback actions
const (
	ActionFlow     = "action"  // interview flow buttons
	ActionField    = "field"   // optional profile field buttons
	ActionDownload = "dl"      // report download, value is the format
	ActionConfirm  = "confirm" // confirmation of destructive actions
)

// Values of flow, field and confirm callbacks
const (
	ValueStart    = "start"
	ValueAck      = "ack"
	ValueGenerate = "generate"
	ValueNext     = "next"
	ValueSkip     = "skip"
	ValueComplete = "complete"
	ValueCancel   = "cancel"
	ValueContinue = "continue"
)

// CallbackData represents parsed callback data
type CallbackData struct {
	Action string
	Value  string
}

// ParseCallback parses callback data string
func ParseCallback(data string) (*CallbackData, error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid callback format: %s", data)
	}

	return &CallbackData{
		Action: parts[0],
		Value:  parts[1],
	}, nil
}

// EncodeCallback creates callback data string
func EncodeCallback(action, value string) string {
	return fmt.Sprintf("%s:%s", action, value)
}
