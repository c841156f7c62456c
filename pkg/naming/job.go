package naming

import (
	"strings"
	"unicode"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/security"
)

// Job name separators.
const (
	DefaultPrefix   = "BulkDock"
	PrefixSeparator = "."
	FieldSeparator  = ":"
)

// JobName is the decoded form of a scheduler job name.
type JobName struct {
	Prefix     string
	Command    string
	Target     string
	Descriptor string
}

// EncodeJobName joins the fields into <Prefix>.<command>:<target>:<descriptor>.
func EncodeJobName(n JobName) (string, error) {
	if err := checkField("prefix", n.Prefix, PrefixSeparator+FieldSeparator); err != nil {
		return "", err
	}
	if err := checkField("command", n.Command, PrefixSeparator+FieldSeparator); err != nil {
		return "", err
	}
	if err := checkField("target", n.Target, FieldSeparator); err != nil {
		return "", err
	}
	if err := checkField("descriptor", n.Descriptor, FieldSeparator); err != nil {
		return "", err
	}
	name := n.Prefix + PrefixSeparator + strings.Join([]string{n.Command, n.Target, n.Descriptor}, FieldSeparator)
	if err := security.ValidateJobNameLength(name); err != nil {
		return "", &core.NamingError{Field: "job name", Value: name, Reason: err.Error()}
	}
	return name, nil
}

// DecodeJobName splits an encoded job name. Names with the wrong shape yield a NamingError.
func DecodeJobName(name string) (JobName, error) {
	prefix, rest, found := strings.Cut(name, PrefixSeparator)
	if !found || prefix == "" || strings.Contains(prefix, FieldSeparator) {
		return JobName{}, &core.NamingError{Field: "job name", Value: name, Reason: "missing role prefix"}
	}
	fields := strings.Split(rest, FieldSeparator)
	if len(fields) != 3 {
		return JobName{}, &core.NamingError{Field: "job name", Value: name, Reason: "expected 3 fields"}
	}
	n := JobName{Prefix: prefix, Command: fields[0], Target: fields[1], Descriptor: fields[2]}
	if n.Command == "" || n.Target == "" || n.Descriptor == "" || strings.Contains(n.Command, PrefixSeparator) {
		return JobName{}, &core.NamingError{Field: "job name", Value: name, Reason: "empty or malformed field"}
	}
	return n, nil
}

// HasPrefix reports whether a raw job name belongs to prefix.
func HasPrefix(name, prefix string) bool {
	return strings.HasPrefix(name, prefix+PrefixSeparator)
}

func checkField(field, value, reserved string) error {
	if value == "" {
		return &core.NamingError{Field: field, Value: value, Reason: "must not be empty"}
	}
	if strings.ContainsAny(value, reserved) {
		return &core.NamingError{Field: field, Value: value, Reason: "contains reserved separator " + quoteSet(reserved)}
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return &core.NamingError{Field: field, Value: value, Reason: "must not contain whitespace"}
	}
	return nil
}

func quoteSet(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		parts = append(parts, "'"+string(r)+"'")
	}
	return strings.Join(parts, " or ")
}
