package validation

import (
	"regexp"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/goliatone/go-formbuilder/internal/coerce"
)

// PatternTimeout bounds a single pattern match so a pathological expression
// cannot stall a keystroke.
const PatternTimeout = 100 * time.Millisecond

type compiledPattern struct {
	re  *regexp2.Regexp
	err error
}

var patternCache sync.Map

// CompilePattern compiles a pattern with ECMAScript semantics, the dialect
// form authors write for browser inputs. Results are cached by source.
func CompilePattern(source string) (*regexp2.Regexp, error) {
	if cached, ok := patternCache.Load(source); ok {
		entry := cached.(compiledPattern)
		return entry.re, entry.err
	}
	re, err := regexp2.Compile(source, regexp2.ECMAScript)
	if err == nil {
		re.MatchTimeout = PatternTimeout
	}
	patternCache.Store(source, compiledPattern{re: re, err: err})
	return re, err
}

// ValidatePattern tests a string value against pattern, which may be a
// source string or a compiled *regexp.Regexp or *regexp2.Regexp. Non-string
// values pass. Patterns that fail to compile or time out report the format
// message.
func ValidatePattern(value any, pattern any) Result {
	s, ok := value.(string)
	if !ok {
		return pass()
	}

	var matched bool
	switch p := pattern.(type) {
	case *regexp.Regexp:
		if p == nil {
			return pass()
		}
		matched = p.MatchString(s)
	case *regexp2.Regexp:
		if p == nil {
			return pass()
		}
		m, err := p.MatchString(s)
		matched = err == nil && m
	default:
		re, err := CompilePattern(coerce.String(pattern))
		if err != nil {
			return fail(MessagePattern)
		}
		m, err := re.MatchString(s)
		matched = err == nil && m
	}

	if !matched {
		return fail(MessagePattern)
	}
	return pass()
}
