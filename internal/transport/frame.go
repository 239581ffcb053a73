// Package transport decodes subscription frames and delivers them over a
// channel. No publish/subscribe client library is used here: the wire
// format is a line-framed TCP stream (see Subscriber), the one ambient
// concern this system carries on the standard library rather than a
// third-party dependency.
package transport

import (
	"strconv"
	"strings"

	"github.com/tangle-rdb/ingester/internal/errs"
)

// tagLength is the truncated length of a transaction tag (also the width
// of a milestone index's trit encoding).
const tagLength = 27

// millisThreshold is the fixed year-2010 boundary used to decide whether an
// arrival timestamp is expressed in seconds or milliseconds. See the Open
// Question on timestamp normalization: values at the boundary are
// ambiguous, and this system follows the source's convention of comparing
// against the threshold verbatim rather than inferring units from
// magnitude any other way.
const millisThreshold = 1_262_304_000_000.0

// Frame is one decoded "tx ..." line.
type Frame struct {
	Hash        string
	AddressHash string
	Value       int64
	Tag         string
	Timestamp   float64
	CurrentIdx  int32
	LastIdx     int32
	BundleHash  string
	TrunkHash   string
	BranchHash  string
	Arrival     float64
}

// ParseFrame decodes one subscription line: a leading "tx" tag followed by
// the eleven fields of §6, single-space separated.
func ParseFrame(line string) (Frame, error) {
	fields := strings.Split(strings.TrimSpace(line), " ")
	if len(fields) != 12 || fields[0] != "tx" {
		return Frame{}, errs.ErrParse
	}

	value, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Frame{}, errs.ErrParse
	}
	timestamp, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Frame{}, errs.ErrParse
	}
	currentIdx, err := strconv.ParseInt(fields[6], 10, 32)
	if err != nil {
		return Frame{}, errs.ErrParse
	}
	lastIdx, err := strconv.ParseInt(fields[7], 10, 32)
	if err != nil {
		return Frame{}, errs.ErrParse
	}
	arrival, err := strconv.ParseFloat(fields[11], 64)
	if err != nil {
		return Frame{}, errs.ErrParse
	}

	tag := fields[4]
	if len(tag) > tagLength {
		tag = tag[:tagLength]
	}

	return Frame{
		Hash:        fields[1],
		AddressHash: fields[2],
		Value:       value,
		Tag:         tag,
		Timestamp:   timestamp,
		CurrentIdx:  int32(currentIdx),
		LastIdx:     int32(lastIdx),
		BundleHash:  fields[8],
		TrunkHash:   fields[9],
		BranchHash:  fields[10],
		Arrival:     normalizeTimestamp(arrival),
	}, nil
}

// normalizeTimestamp divides ms->s when the value is above the year-2010
// millisecond threshold.
func normalizeTimestamp(v float64) float64 {
	if v > millisThreshold {
		return v / 1000.0
	}
	return v
}

// IsMilestone reports whether f's address matches the configured milestone
// address.
func (f Frame) IsMilestone(milestoneAddress string) bool {
	return f.AddressHash == milestoneAddress
}
