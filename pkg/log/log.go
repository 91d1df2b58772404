// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 35 // Base width for filename
	classWidth   = 10 // Width for file class
	outcomeWidth = 20 // Width for outcome text
)

// 🎯 FileOperation is one file's terminal outcome, ready for display
type FileOperation struct {
	Path       string // Path relative to the source root
	Class      string // image / video / copy-only / other
	Outcome    string // Outcome text
	Blurred    bool
	Resized    bool
	IsFallback bool // original copied after a failed transform
	IsFailed   bool
	IsSkipped  bool
	Err        error
}

// 📦 BuildOperation describes a walk for the run header
type BuildOperation struct {
	Source  string
	Target  string
	Blur    bool
	Workers int
}

// 🎯 Logger renders per-file lines on the console and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *BuildOperation
	files   int
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// NewWithZerolog uses an existing zerolog logger for the structured side.
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a discarding one
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return NewWithZerolog(io.Discard, zerolog.Nop())
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsFallback:
		symbol = '⟳'
		symbolColor = color.FgYellow
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.Faint
	case op.Class == "image" || op.Class == "video":
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var classColor color.Attribute
	switch op.Class {
	case "image":
		classColor = color.FgMagenta
	case "video":
		classColor = color.FgBlue
	case "copy-only":
		classColor = color.FgCyan
	default:
		classColor = color.FgYellow
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(classColor).Sprint(fmt.Sprintf("%-*s", classWidth, op.Class)),
		fmt.Sprintf("%-*s", outcomeWidth, op.Outcome))

	var details []string
	if op.Resized {
		details = append(details, "resized")
	}
	if op.Blurred {
		details = append(details, "blurred")
	}
	if len(details) > 0 {
		line += color.New(color.Faint).Sprintf(" (%s)", strings.Join(details, ", "))
	}
	if op.Err != nil {
		line += " " + color.New(color.FgRed).Sprint(op.Err.Error())
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.files++

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	ev := l.zlog.Info()
	if op.IsFailed {
		ev = l.zlog.Warn()
	}
	if op.Err != nil {
		ev = ev.Err(op.Err)
	}
	ev.Str("file", op.Path).
		Str("class", op.Class).
		Str("outcome", op.Outcome).
		Bool("blurred", op.Blurred).
		Bool("resized", op.Resized).
		Msg("file operation")
}

// 📝 StartBuild prints the header for a walk
func (l *Logger) StartBuild(ctx context.Context, op BuildOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.files = 0

	fmt.Fprintf(l.console, "[building %s]\n",
		color.New(color.FgCyan).Sprint(op.Target))

	blur := "blur off"
	if op.Blur {
		blur = "blur on"
	}
	fmt.Fprintf(l.console, "%s %s %s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(blur),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d workers", op.Workers))

	l.zlog.Info().
		Str("source", op.Source).
		Str("target", op.Target).
		Bool("blur", op.Blur).
		Int("workers", op.Workers).
		Msg("starting build")
}

// 📝 EndBuild closes the current walk
func (l *Logger) EndBuild(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("source", l.current.Source).
		Int("files", l.files).
		Msg("build complete")

	l.current = nil
	l.files = 0
}

// 📊 Table renders rows (first row is the header) with pterm
func (l *Logger) Table(rows [][]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(l.console, out)
	return nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("assetrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// Failure prints a formatted failure line indented under the summary
func (l *Logger) Failure(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "  %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
