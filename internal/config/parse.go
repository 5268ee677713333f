// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGPUIDs parses a GPU device list from a string. Accepted forms:
//
//	"2"        single device
//	"0,1,3"    comma-separated list
//	"0..3"     inclusive range
//	"0-3"      inclusive range
//
// Duplicates are rejected because passing the same device twice to the
// training engine doubles its memory accounting.
func ParseGPUIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty gpu list")
	}

	var ids []int
	switch {
	case strings.Contains(s, ".."):
		lo, hi, err := parseRange(s, "..")
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			ids = append(ids, i)
		}
	case strings.Contains(s, "-"):
		lo, hi, err := parseRange(s, "-")
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			ids = append(ids, i)
		}
	default:
		parsed, err := parseCommaSeparated(s)
		if err != nil {
			return nil, err
		}
		ids = parsed
	}

	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 0 {
			return nil, fmt.Errorf("gpu id must be non-negative, got %d", id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate gpu id %d", id)
		}
		seen[id] = struct{}{}
	}
	return ids, nil
}

func parseRange(s, sep string) (int, int, error) {
	parts := strings.SplitN(s, sep, 2)
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("range end %d before start %d", hi, lo)
	}
	return lo, hi, nil
}

func parseCommaSeparated(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid gpu id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no gpu ids in %q", s)
	}
	return ids, nil
}
