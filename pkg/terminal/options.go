package terminal

import (
	"fmt"
	"strconv"

	"smsgw/pkg/params"
	"smsgw/pkg/protocol"
)

// Options is a terminal's behavioural configuration. Replacing a terminal's
// options is wholesale: every field is taken from the incoming set, and
// booleans absent from a form submission read as false.
type Options struct {
	// Priority orders terminals during route selection; higher wins.
	Priority int `json:"priority"`

	SendMessage    bool `json:"sendMessage"`
	ReceiveMessage bool `json:"receiveMessage"`
	DeliveryReport bool `json:"deliveryReport"`
	RejectCall     bool `json:"rejectCall"`
	ReceiveCall    bool `json:"receiveCall"`

	// Operators restricts outbound routing to destinations served by the
	// named network operators. Empty means any destination.
	Operators []string `json:"operators"`

	// Groups lists the pool groups the terminal belongs to.
	Groups []string `json:"groups"`
}

// BooleanOptionKeys enumerates every boolean option field by its form key.
// Form submissions omit unchecked checkboxes, so these keys are the ones
// that must default to false during normalization.
func BooleanOptionKeys() []string {
	return []string{
		"sendMessage",
		"receiveMessage",
		"deliveryReport",
		"rejectCall",
		"receiveCall",
	}
}

// DefaultOptions returns the configuration applied to a terminal that has
// never been configured.
func DefaultOptions() Options {
	return Options{
		Priority:       1,
		SendMessage:    true,
		ReceiveMessage: true,
		DeliveryReport: true,
	}
}

// OptionsFromMap builds Options from a normalized parameter map. The map is
// expected to have passed params.Normalize with BooleanOptionKeys, so boolean
// fields are real bools. Priority accepts either a numeric string or an int.
func OptionsFromMap(m map[string]any) (Options, error) {
	var o Options

	switch v := m["priority"].(type) {
	case nil:
		o.Priority = DefaultOptions().Priority
	case int:
		o.Priority = v
	case float64:
		o.Priority = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return Options{}, &protocol.ValidationError{Field: "priority"}
		}
		o.Priority = n
	default:
		return Options{}, &protocol.ValidationError{Field: "priority"}
	}

	o.SendMessage = boolField(m, "sendMessage")
	o.ReceiveMessage = boolField(m, "receiveMessage")
	o.DeliveryReport = boolField(m, "deliveryReport")
	o.RejectCall = boolField(m, "rejectCall")
	o.ReceiveCall = boolField(m, "receiveCall")

	o.Operators = params.StringSlice(m["operators"])
	o.Groups = params.StringSlice(m["groups"])

	return o, nil
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// clone returns a deep copy so callers can never alias a terminal's live
// option slices.
func (o Options) clone() Options {
	c := o
	c.Operators = append([]string(nil), o.Operators...)
	c.Groups = append([]string(nil), o.Groups...)
	return c
}

func (o Options) String() string {
	return fmt.Sprintf("priority=%d send=%t recv=%t report=%t operators=%v",
		o.Priority, o.SendMessage, o.ReceiveMessage, o.DeliveryReport, o.Operators)
}
