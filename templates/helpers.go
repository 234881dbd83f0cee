package templates

import (
	"strconv"
	"strings"
)

func boolText(b bool) string {
	return strconv.FormatBool(b)
}

func traceText(l TraceLine) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strconv.Itoa(l.Step))
	sb.WriteString("] ")
	sb.WriteString(l.Kind)
	if l.Detail != "" {
		sb.WriteString(" ")
		sb.WriteString(l.Detail)
	}
	return sb.String()
}

func entryText(e EntryLine) string {
	var sb strings.Builder
	sb.WriteString(e.Key)
	sb.WriteString(" accessed=")
	sb.WriteString(e.Offset)
	sb.WriteString(" ready=")
	sb.WriteString(boolText(e.Ready))
	return sb.String()
}
