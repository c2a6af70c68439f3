package marc

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Mnemonic lines look like:
// =LDR  00000cam\a2200301\i\4500
// =008  850506s1983\\\\xxu||||||||||||||||eng||
// =245  10$aTitle$bsubtitle
var mnemonicLine = regexp.MustCompile(`^=?([0-9A-Za-z]{3})(?:  | )(.*)$`)

const dollarEscape = "{dollar}"

// ParseMnemonic parses a record in MarcEdit mnemonic text form
func ParseMnemonic(text string) (*Record, error) {
	record := &Record{}
	scanner := bufio.NewScanner(strings.NewReader(text))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		matches := mnemonicLine.FindStringSubmatch(line)
		if len(matches) < 3 {
			return nil, fmt.Errorf("invalid mnemonic line %d: %q", lineNum, line)
		}
		tag, rest := strings.ToUpper(matches[1]), matches[2]

		switch {
		case tag == "LDR":
			record.Leader = unescapeBlanks(rest)
		case IsControlTag(tag):
			record.Fields = append(record.Fields, Field{Tag: tag, Value: unescapeBlanks(rest)})
		default:
			field, err := parseMnemonicDataField(tag, rest)
			if err != nil {
				return nil, fmt.Errorf("invalid mnemonic line %d: %w", lineNum, err)
			}
			record.Fields = append(record.Fields, field)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading mnemonic record: %w", err)
	}

	return record, nil
}

func parseMnemonicDataField(tag, rest string) (Field, error) {
	if len(rest) < 2 {
		return Field{}, fmt.Errorf("field %s is missing indicators", tag)
	}

	field := Field{
		Tag:       tag,
		Ind1:      unescapeBlanks(rest[:1]),
		Ind2:      unescapeBlanks(rest[1:2]),
		Subfields: []Subfield{},
	}

	body := rest[2:]
	if body == "" {
		return field, nil
	}
	if !strings.HasPrefix(body, "$") {
		return Field{}, fmt.Errorf("field %s: expected subfield delimiter, got %q", tag, body)
	}

	for _, chunk := range strings.Split(body[1:], "$") {
		if chunk == "" {
			continue
		}
		code := chunk[:1]
		field.Subfields = append(field.Subfields, Subfield{
			Code:  code,
			Value: strings.ReplaceAll(chunk[1:], dollarEscape, "$"),
		})
	}

	return field, nil
}

// FormatMnemonic renders a record in MarcEdit mnemonic text form
func FormatMnemonic(record *Record) string {
	var marc strings.Builder

	// Leader (always start with this)
	marc.WriteString(fmt.Sprintf("=LDR  %s\n", escapeBlanks(record.Leader)))

	for _, field := range record.Fields {
		if field.IsControlField() {
			marc.WriteString(fmt.Sprintf("=%s  %s\n", field.Tag, escapeBlanks(field.Value)))
			continue
		}

		marc.WriteString(fmt.Sprintf("=%s  %s%s", field.Tag, indicator(field.Ind1), indicator(field.Ind2)))
		for _, sf := range field.Subfields {
			marc.WriteString(fmt.Sprintf("$%s%s", sf.Code, strings.ReplaceAll(sf.Value, "$", dollarEscape)))
		}
		marc.WriteString("\n")
	}

	return marc.String()
}

func indicator(ind string) string {
	if ind == "" || ind == " " {
		return `\`
	}
	return ind[:1]
}

func escapeBlanks(s string) string {
	return strings.ReplaceAll(s, " ", `\`)
}

func unescapeBlanks(s string) string {
	return strings.ReplaceAll(s, `\`, " ")
}
