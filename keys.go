package coursegate

import (
	"fmt"
	"strings"
)

// CourseKey identifies a course run and is the canonical scope role
// assignments are keyed by. Org-level roles only use the Org field.
//
// / ⟨course key⟩ ::= ‘course-v1:’⟨org⟩‘+’⟨course⟩‘+’⟨run⟩
type CourseKey struct {
	Org    string `json:"org"`
	Course string `json:"course"`
	Run    string `json:"run"`
}

const (
	courseKeyPrefix = "course-v1:"
	customKeyPrefix = "ccx-v1:"
	usageKeyPrefix  = "block-v1:"
)

// ParseCourseKey parses the canonical "course-v1:Org+Course+Run" form.
func ParseCourseKey(s string) (CourseKey, error) {
	rest, ok := strings.CutPrefix(s, courseKeyPrefix)
	if !ok {
		return CourseKey{}, fmt.Errorf("course key %q: missing %q prefix", s, courseKeyPrefix)
	}
	parts := strings.Split(rest, "+")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return CourseKey{}, fmt.Errorf("course key %q: want org+course+run", s)
	}
	return CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]}, nil
}

// MustParseCourseKey is ParseCourseKey for statically known keys.
func MustParseCourseKey(s string) CourseKey {
	key, err := ParseCourseKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

func (k CourseKey) String() string {
	return courseKeyPrefix + k.Org + "+" + k.Course + "+" + k.Run
}

// IsZero reports whether no scope was supplied.
func (k CourseKey) IsZero() bool {
	return k == CourseKey{}
}

// CourseScope implements [ScopeKey].
func (k CourseKey) CourseScope() CourseKey {
	return k
}

// CustomCourseKey is the legacy compatibility key for a custom run hosted on
// top of a parent course. It must never be used as a scope directly; every
// check normalizes it to the parent [CourseKey] first.
//
// / ⟨ccx key⟩ ::= ‘ccx-v1:’⟨org⟩‘+’⟨course⟩‘+’⟨run⟩‘+ccx@’⟨id⟩
type CustomCourseKey struct {
	CourseKey
	CustomID string `json:"ccx"`
}

// ParseCustomCourseKey parses the "ccx-v1:Org+Course+Run+ccx@ID" form.
func ParseCustomCourseKey(s string) (CustomCourseKey, error) {
	rest, ok := strings.CutPrefix(s, customKeyPrefix)
	if !ok {
		return CustomCourseKey{}, fmt.Errorf("custom course key %q: missing %q prefix", s, customKeyPrefix)
	}
	parts := strings.Split(rest, "+")
	if len(parts) != 4 {
		return CustomCourseKey{}, fmt.Errorf("custom course key %q: want org+course+run+ccx@id", s)
	}
	id, ok := strings.CutPrefix(parts[3], "ccx@")
	if !ok || id == "" {
		return CustomCourseKey{}, fmt.Errorf("custom course key %q: malformed ccx@ block", s)
	}
	parent, err := ParseCourseKey(courseKeyPrefix + parts[0] + "+" + parts[1] + "+" + parts[2])
	if err != nil {
		return CustomCourseKey{}, err
	}
	return CustomCourseKey{CourseKey: parent, CustomID: id}, nil
}

func (k CustomCourseKey) String() string {
	return customKeyPrefix + k.Org + "+" + k.Course + "+" + k.Run + "+ccx@" + k.CustomID
}

// UsageKey locates a block within a course run.
//
// / ⟨usage key⟩ ::= ‘block-v1:’⟨org⟩‘+’⟨course⟩‘+’⟨run⟩‘+type@’⟨category⟩‘+block@’⟨id⟩
type UsageKey struct {
	CourseKey
	Category string `json:"category"`
	Block    string `json:"block"`
}

// ParseUsageKey parses the "block-v1:Org+Course+Run+type@Cat+block@ID" form.
func ParseUsageKey(s string) (UsageKey, error) {
	rest, ok := strings.CutPrefix(s, usageKeyPrefix)
	if !ok {
		return UsageKey{}, fmt.Errorf("usage key %q: missing %q prefix", s, usageKeyPrefix)
	}
	parts := strings.Split(rest, "+")
	if len(parts) != 5 {
		return UsageKey{}, fmt.Errorf("usage key %q: want org+course+run+type@category+block@id", s)
	}
	category, ok := strings.CutPrefix(parts[3], "type@")
	if !ok || category == "" {
		return UsageKey{}, fmt.Errorf("usage key %q: malformed type@ block", s)
	}
	block, ok := strings.CutPrefix(parts[4], "block@")
	if !ok || block == "" {
		return UsageKey{}, fmt.Errorf("usage key %q: malformed block@ block", s)
	}
	parent, err := ParseCourseKey(courseKeyPrefix + parts[0] + "+" + parts[1] + "+" + parts[2])
	if err != nil {
		return UsageKey{}, err
	}
	return UsageKey{CourseKey: parent, Category: category, Block: block}, nil
}

// MustParseUsageKey is ParseUsageKey for statically known keys.
func MustParseUsageKey(s string) UsageKey {
	key, err := ParseUsageKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

func (k UsageKey) String() string {
	return usageKeyPrefix + k.Org + "+" + k.Course + "+" + k.Run + "+type@" + k.Category + "+block@" + k.Block
}

// ScopeKey is any key that can stand in for a course scope. The legacy
// [CustomCourseKey] normalizes to its parent course here.
type ScopeKey interface {
	CourseScope() CourseKey
}

// scopeOr falls back to the course of a location when no explicit scope was
// passed to the check.
func scopeOr(scope CourseKey, location UsageKey) CourseKey {
	if scope.IsZero() {
		return location.CourseKey
	}
	return scope
}
