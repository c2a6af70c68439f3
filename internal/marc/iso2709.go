package marc

import (
	"bytes"
	"errors"
	"fmt"
)

// ISO 2709 structural characters
const (
	subfieldDelimiter = 0x1F
	fieldTerminator   = 0x1E
	recordTerminator  = 0x1D

	leaderLength         = 24
	directoryEntryLength = 12
)

// ErrInvalidISO2709 is returned when binary MARC data cannot be decoded
var ErrInvalidISO2709 = errors.New("invalid ISO 2709 record")

// DecodeISO2709 decodes the first record in data
func DecodeISO2709(data []byte) (*Record, error) {
	if len(data) < leaderLength {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the leader", ErrInvalidISO2709, len(data))
	}

	leader := data[:leaderLength]
	baseAddress, ok := parseDigits(leader[12:17])
	if !ok {
		return nil, fmt.Errorf("%w: bad base address %q", ErrInvalidISO2709, leader[12:17])
	}
	if baseAddress <= leaderLength || baseAddress > len(data) {
		return nil, fmt.Errorf("%w: base address %d out of range", ErrInvalidISO2709, baseAddress)
	}

	directory := data[leaderLength : baseAddress-1]
	if len(directory)%directoryEntryLength != 0 {
		return nil, fmt.Errorf("%w: directory length %d is not a multiple of %d", ErrInvalidISO2709, len(directory), directoryEntryLength)
	}

	record := &Record{Leader: string(leader)}
	for i := 0; i < len(directory); i += directoryEntryLength {
		entry := directory[i : i+directoryEntryLength]
		tag := string(entry[0:3])

		length, ok := parseDigits(entry[3:7])
		if !ok {
			return nil, fmt.Errorf("%w: bad length in directory entry for %s", ErrInvalidISO2709, tag)
		}
		start, ok := parseDigits(entry[7:12])
		if !ok {
			return nil, fmt.Errorf("%w: bad start position in directory entry for %s", ErrInvalidISO2709, tag)
		}

		begin := baseAddress + start
		end := begin + length
		if length < 1 || end > len(data) {
			return nil, fmt.Errorf("%w: field %s exceeds record data", ErrInvalidISO2709, tag)
		}

		// Drop the field terminator
		raw := bytes.TrimSuffix(data[begin:end], []byte{fieldTerminator})
		record.Fields = append(record.Fields, decodeField(tag, raw))
	}

	return record, nil
}

// parseDigits reads an unsigned fixed-width number; signs and spaces are rejected
func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func decodeField(tag string, raw []byte) Field {
	if IsControlTag(tag) {
		return Field{Tag: tag, Value: string(raw)}
	}

	field := Field{Tag: tag, Subfields: []Subfield{}}
	if len(raw) >= 2 && raw[0] != subfieldDelimiter {
		field.Ind1 = string(raw[0:1])
		field.Ind2 = string(raw[1:2])
		raw = raw[2:]
	}

	for _, chunk := range bytes.Split(raw, []byte{subfieldDelimiter}) {
		if len(chunk) == 0 {
			continue
		}
		field.Subfields = append(field.Subfields, Subfield{
			Code:  string(chunk[:1]),
			Value: string(chunk[1:]),
		})
	}

	return field
}

// EncodeISO2709 encodes a record as binary MARC. Leader positions 00-04
// and 12-16 are recomputed; a leader shorter than 24 characters is padded.
func EncodeISO2709(record *Record) ([]byte, error) {
	var directory, body bytes.Buffer

	for _, field := range record.Fields {
		if len(field.Tag) != 3 {
			return nil, fmt.Errorf("%w: tag %q must be 3 characters", ErrInvalidISO2709, field.Tag)
		}

		start := body.Len()
		if field.IsControlField() {
			body.WriteString(field.Value)
		} else {
			body.WriteString(padIndicator(field.Ind1))
			body.WriteString(padIndicator(field.Ind2))
			for _, sf := range field.Subfields {
				body.WriteByte(subfieldDelimiter)
				body.WriteString(sf.Code)
				body.WriteString(sf.Value)
			}
		}
		body.WriteByte(fieldTerminator)

		length := body.Len() - start
		if length > 9999 || start > 99999 {
			return nil, fmt.Errorf("%w: field %s is too large", ErrInvalidISO2709, field.Tag)
		}
		fmt.Fprintf(&directory, "%s%04d%05d", field.Tag, length, start)
	}
	directory.WriteByte(fieldTerminator)

	baseAddress := leaderLength + directory.Len()
	total := baseAddress + body.Len() + 1
	if total > 99999 {
		return nil, fmt.Errorf("%w: record length %d exceeds 99999", ErrInvalidISO2709, total)
	}

	leader := []byte(fmt.Sprintf("%-24s", record.Leader))[:leaderLength]
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[12:17], fmt.Sprintf("%05d", baseAddress))

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, directory.Bytes()...)
	out = append(out, body.Bytes()...)
	out = append(out, recordTerminator)

	return out, nil
}

func padIndicator(ind string) string {
	if ind == "" {
		return " "
	}
	return ind[:1]
}
