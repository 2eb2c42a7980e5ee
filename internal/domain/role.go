package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Role is the user collection an email address belongs to.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	// RoleUnknown means the address matches neither rule. Not an error:
	// push-token lookup is skipped and only email delivery is attempted.
	RoleUnknown Role = ""
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher:
		return true
	}
	return false
}

// RoleClassifier deterministically maps an email address to a role.
// Student addresses follow the institutional account format (a regexp);
// teacher addresses are recognised by a fixed domain suffix.
type RoleClassifier struct {
	studentPattern *regexp.Regexp
	teacherDomain  string
}

func NewRoleClassifier(studentPattern, teacherDomain string) (*RoleClassifier, error) {
	re, err := regexp.Compile(studentPattern)
	if err != nil {
		return nil, fmt.Errorf("compile student email pattern: %w", err)
	}
	return &RoleClassifier{
		studentPattern: re,
		teacherDomain:  strings.ToLower(teacherDomain),
	}, nil
}

// Classify returns the role for an email address. The student pattern is
// checked first so a teacher domain rule can never shadow it.
func (c *RoleClassifier) Classify(email string) Role {
	addr := strings.ToLower(strings.TrimSpace(email))
	if c.studentPattern.MatchString(addr) {
		return RoleStudent
	}
	if c.teacherDomain != "" && strings.HasSuffix(addr, c.teacherDomain) {
		return RoleTeacher
	}
	return RoleUnknown
}
