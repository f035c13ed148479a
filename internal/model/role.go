package model

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleDiscipler Role = "Discipler"
	RoleDisciple  Role = "Disciple"
)

// CanonicalRole maps any casing of a role name to the stored value ("DISCIPLER" -> "Discipler").
func CanonicalRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discipler":
		return RoleDiscipler, nil
	case "disciple":
		return RoleDisciple, nil
	default:
		return "", fmt.Errorf("invalid role: %q (expected discipler|disciple)", s)
	}
}

func (r Role) Opposite() Role {
	if r == RoleDisciple {
		return RoleDiscipler
	}
	return RoleDisciple
}

func (r Role) Valid() bool {
	return r == RoleDiscipler || r == RoleDisciple
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in-progress", "in_progress", "inprogress", "doing":
		return StatusInProgress, nil
	}
	return "", fmt.Errorf("invalid status: %q (expected %q|%q|%q)", s, StatusInProgress, StatusDone, StatusSkipped)
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// SplitInterests turns "a, b,,c" into [a b c].
func SplitInterests(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
