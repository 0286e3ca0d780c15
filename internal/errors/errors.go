package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - missing credential, path or identity
	ErrorTypeConfig ErrorType = iota
	// Validation errors - invalid input data
	ErrorTypeValidation
	// Repository errors - branch, commit, tag or push failures
	ErrorTypeRepository
	// Barrier errors - CI build leadership could not be established
	ErrorTypeBarrier
	// Pipeline step errors - one of the ordered release steps failed
	ErrorTypePipelineStep
	// FileSystem errors - file I/O failures
	ErrorTypeFileSystem
	// External errors - external service failures
	ErrorTypeExternal
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Step names one side-effecting step of the release write sequence.
type Step string

const (
	StepManifestWrite   Step = "manifest write"
	StepChangelogWrite  Step = "changelog write"
	StepLockRefresh     Step = "lock refresh"
	StepPackageBuild    Step = "package build"
	StepCommit          Step = "commit"
	StepTag             Step = "tag"
	StepPush            Step = "push"
	StepReleaseCreation Step = "release creation"
	StepPublish         Step = "publish"
)

// BarrierReason explains why the CI build leader gave up waiting.
type BarrierReason string

const (
	ReasonSiblingFailed          BarrierReason = "SiblingFailed"
	ReasonTimeout                BarrierReason = "Timeout"
	ReasonEnvironmentUnavailable BarrierReason = "EnvironmentUnavailable"
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string

	// Step is set for ErrorTypePipelineStep.
	Step Step
	// Reason is set for ErrorTypeBarrier.
	Reason BarrierReason
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		typeString(e.Type),
		e.Message))

	if e.Step != "" {
		sb.WriteString(fmt.Sprintf("Step: %s\n", e.Step))
	}
	if e.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", e.Reason))
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Context:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, e.Context[k]))
		}
	}

	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("Stack trace:\n%s\n", e.StackTrace))
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeRepository:
		return "REPOSITORY"
	case ErrorTypeBarrier:
		return "BARRIER"
	case ErrorTypePipelineStep:
		return "PIPELINE_STEP"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeExternal:
		return "EXTERNAL"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Convenience constructors for common error types

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

// RepositoryError reports a failure of the local repository. err may be nil.
func RepositoryError(err error, message string) *Error {
	e := New(ErrorTypeRepository, SeverityCritical, message)
	e.Cause = err
	return e
}

// RepositoryErrorf reports a repository failure with formatting. err may be nil.
func RepositoryErrorf(err error, format string, args ...interface{}) *Error {
	e := New(ErrorTypeRepository, SeverityCritical, fmt.Sprintf(format, args...))
	e.Cause = err
	return e
}

// BarrierError reports why the CI barrier aborted. cause may be nil.
func BarrierError(reason BarrierReason, cause error, message string) *Error {
	return &Error{
		Type:       ErrorTypeBarrier,
		Severity:   SeverityCritical,
		Message:    message,
		Cause:      cause,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
		Reason:     reason,
	}
}

// StepError wraps the failure of a single release step.
func StepError(step Step, cause error) *Error {
	return &Error{
		Type:       ErrorTypePipelineStep,
		Severity:   SeverityCritical,
		Message:    fmt.Sprintf("release step %q failed", step),
		Cause:      cause,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
		Step:       step,
	}
}

// FileSystemErrorf wraps a filesystem error with formatting
func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeFileSystem, SeverityHigh, fmt.Sprintf(format, args...))
}

// InternalError creates an internal error
func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}
	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity
	}

	return SeverityMedium
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}

	return ErrorTypeInternal
}

// StepOf returns the release step that failed, if err is a step error.
func StepOf(err error) (Step, bool) {
	var e *Error
	if stderrors.As(err, &e) && e.Type == ErrorTypePipelineStep {
		return e.Step, true
	}
	return "", false
}

// ReasonOf returns the barrier abort reason, if err is a barrier error.
func ReasonOf(err error) (BarrierReason, bool) {
	var e *Error
	if stderrors.As(err, &e) && e.Type == ErrorTypeBarrier {
		return e.Reason, true
	}
	return "", false
}
