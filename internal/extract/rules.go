package extract

import (
	"html"
	"strings"
)

// Line prefixes recognized by the scanner. Field prefixes include the
// two-space indentation used inside a unit block.
const (
	blockPrefix          = "unit:"
	classificationPrefix = "  qudt:hasQuantityKind quantitykind:"
	descriptionPrefix    = "  qudt:plainTextDescription"
	unitCodePrefix       = "  qudt:ucumCode"
	labelPrefix          = "  rdfs:label"
)

// Rule names used in errors and stats.
const (
	RuleBlock          = "block"
	RuleClassification = "classification"
	RuleDescription    = "description"
	RuleUnitCode       = "unit_code"
	RuleLabel          = "label"
)

const (
	preferredLanguage = "en-us"
	baseLanguage      = "en"
)

// DisplayLabel builds the anchor used to display and key a unit.
func DisplayLabel(baseURL, id string) string {
	escaped := html.EscapeString(id)
	return `<a href="` + baseURL + escaped + `.html">` + escaped + `</a>`
}

// matchRule returns the rule whose prefix starts the line, or "" for none.
func matchRule(line string) string {
	switch {
	case strings.HasPrefix(line, blockPrefix):
		return RuleBlock
	case strings.HasPrefix(line, classificationPrefix):
		return RuleClassification
	case strings.HasPrefix(line, descriptionPrefix):
		return RuleDescription
	case strings.HasPrefix(line, unitCodePrefix):
		return RuleUnitCode
	case strings.HasPrefix(line, labelPrefix):
		return RuleLabel
	default:
		return ""
	}
}

// blockID returns the identifier following the block prefix.
func blockID(line string) (string, string) {
	id := strings.TrimRight(line[len(blockPrefix):], " \t")
	if id == "" {
		return "", "missing unit identifier"
	}
	return id, ""
}

// classificationTag returns the text between the prefix and the two closing characters.
func classificationTag(line string) (string, string) {
	return sliceBetween(line, len(classificationPrefix), 2)
}

// descriptionText returns the quoted description, skipping ` "` after the
// prefix and dropping the closing `" ;`.
func descriptionText(line string) (string, string) {
	return sliceBetween(line, len(descriptionPrefix)+2, 3)
}

// unitCodeText returns the text between the first two quotes after the prefix.
func unitCodeText(line string) (string, string) {
	rest := line[len(unitCodePrefix):]
	open := strings.IndexByte(rest, '"')
	if open < 0 {
		return "", "missing opening quote"
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", "missing closing quote"
	}
	return rest[:end], ""
}

// labelText returns the quoted label and its lower-cased language tag.
func labelText(line string) (string, string, string) {
	start := len(labelPrefix) + 2
	if start > len(line) {
		return "", "", "line too short"
	}
	rest := line[start:]
	at := strings.Index(rest, `"@`)
	if at < 0 {
		return "", "", "missing language tag delimiter"
	}
	tag := strings.TrimSpace(rest[at+2:])
	tag = strings.TrimSpace(strings.TrimRight(tag, ";.,"))
	return rest[:at], strings.ToLower(tag), ""
}

func sliceBetween(line string, start, trim int) (string, string) {
	end := len(line) - trim
	if start > end {
		return "", "line too short"
	}
	return line[start:end], ""
}

// acceptLabel applies the language tie-break: the first label always wins a
// free slot, en-us always replaces, en replaces anything except en-us.
func acceptLabel(hasLabel bool, current, candidate string) bool {
	switch {
	case !hasLabel:
		return true
	case candidate == preferredLanguage:
		return true
	case candidate == baseLanguage && current != preferredLanguage:
		return true
	default:
		return false
	}
}
