package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/flowstudio/pkg/models"
)

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func describeValue(v models.Value) string {
	switch v.Kind() {
	case models.KindReference:
		ref, _ := v.Ref()

		return fmt.Sprintf("<- %s.%s", ref.Step, ref.Output)
	case models.KindText:
		return strconv.Quote(v.TextValue())
	case models.KindNumber:
		return strconv.FormatFloat(v.NumberValue(), 'g', -1, 64)
	case models.KindBool:
		return strconv.FormatBool(v.BoolValue())
	case models.KindTextList:
		return "[" + strings.Join(v.TextListValue(), ", ") + "]"
	default:
		return "-"
	}
}
