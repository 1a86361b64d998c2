package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// defaultTimeoutSeconds applies to each of compile and run when none is configured.
	defaultTimeoutSeconds = 30

	classpathSeparator = ":"
)

// JavaExecutorArgs holds the arguments for creating a Java executor.
type JavaExecutorArgs struct {
	// TestDir holds the instructor's test sources.
	TestDir string `mapstructure:"test_dir"`
	// Prefix names the main test class; every <Prefix>*.java in TestDir is copied.
	Prefix string `mapstructure:"prefix"`
	// Classpath entries for javac and java. "." is appended when missing.
	Classpath []string `mapstructure:"classpath"`
	// Timeout is the per-step limit in seconds. Defaults to 30 if not set.
	Timeout int `mapstructure:"timeout_seconds"`
	// StripPackages removes package declarations from student code so it
	// compiles alongside the tests in the default package.
	StripPackages bool `mapstructure:"preprocess_package"`
	// Javac and Java override the tool names looked up on PATH.
	Javac string `mapstructure:"javac"`
	Java  string `mapstructure:"java"`
}

// JavaExecutor compiles the main test class with javac and runs it with java
// inside the submission's grading directory.
type JavaExecutor struct {
	testFiles     []string
	prefix        string
	classpath     []string
	timeout       time.Duration
	stripPackages bool
	javac         string
	java          string
}

// NewJavaExecutor creates a [JavaExecutor]. The test directory must contain
// <Prefix>.java.
func NewJavaExecutor(args JavaExecutorArgs) (*JavaExecutor, error) {
	if args.Prefix == "" {
		return nil, errors.New("java executor must have a 'prefix'")
	}
	if args.TestDir == "" {
		return nil, errors.New("java executor must have a 'test_dir'")
	}

	testFiles, err := FindTestFiles(args.TestDir, args.Prefix)
	if err != nil {
		return nil, err
	}
	mainFile := filepath.Join(args.TestDir, args.Prefix+javaExt)
	if !slices.Contains(testFiles, mainFile) {
		return nil, fmt.Errorf("main test file %s not found", mainFile)
	}

	timeout := args.Timeout
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	javac, java := args.Javac, args.Java
	if javac == "" {
		javac = "javac"
	}
	if java == "" {
		java = "java"
	}

	return &JavaExecutor{
		testFiles:     testFiles,
		prefix:        args.Prefix,
		classpath:     args.Classpath,
		timeout:       time.Duration(timeout) * time.Second,
		stripPackages: args.StripPackages,
		javac:         javac,
		java:          java,
	}, nil
}

// TestFiles returns the instructor files copied into every workspace.
func (e *JavaExecutor) TestFiles() []string {
	return slices.Clone(e.testFiles)
}

func (e *JavaExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	sources, err := PrepareWorkspace(req.SubmissionDir, req.WorkDir)
	if err != nil {
		return nil, err
	}
	if e.stripPackages {
		if err := StripPackages(sources); err != nil {
			return nil, err
		}
	}
	if err := CopyTestFiles(e.testFiles, req.WorkDir); err != nil {
		return nil, err
	}

	timeout := e.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	compile := e.CompileCommand()
	slog.Debug("compiling", "student", req.StudentID, "command", strings.Join(compile, " "))
	out := e.run(ctx, req.WorkDir, compile, timeout)
	if out.err != nil || out.exitCode != 0 {
		resp := &Response{
			Stderr:     out.stderr,
			ExitCode:   out.exitCode,
			Command:    compile,
			DurationMs: time.Since(start).Milliseconds(),
			ErrorMsg:   "Compilation failed",
			TimedOut:   out.timedOut,
			WorkDir:    req.WorkDir,
		}
		if out.timedOut {
			resp.ErrorMsg = fmt.Sprintf("Compilation timed out after %d seconds", int(timeout.Seconds()))
		}
		return resp, nil
	}

	run := e.RunCommand()
	slog.Debug("running tests", "student", req.StudentID, "command", strings.Join(run, " "))
	out = e.run(ctx, req.WorkDir, run, timeout)

	resp := &Response{
		Transcript: out.stdout,
		Stderr:     out.stderr,
		ExitCode:   out.exitCode,
		Command:    run,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    out.err == nil && out.exitCode == 0,
		TimedOut:   out.timedOut,
		WorkDir:    req.WorkDir,
	}
	switch {
	case out.timedOut:
		resp.Stderr = fmt.Sprintf("Test execution timed out after %d seconds", int(timeout.Seconds()))
		resp.ErrorMsg = resp.Stderr
	case out.err != nil:
		resp.ErrorMsg = fmt.Sprintf("Test execution failed: %v", out.err)
	case out.exitCode != 0:
		resp.ErrorMsg = fmt.Sprintf("Test execution failed with exit code: %d", out.exitCode)
	}
	return resp, nil
}

// Fingerprint covers the commands, preprocessing and instructor test files.
func (e *JavaExecutor) Fingerprint() Fingerprint {
	settings := append([]string{}, e.CompileCommand()...)
	settings = append(settings, e.RunCommand()...)
	settings = append(settings, fmt.Sprintf("strip_packages=%t", e.stripPackages))
	return Fingerprint{Settings: settings, Files: e.TestFiles()}
}

// CompileCommand returns the javac invocation for the main test class.
func (e *JavaExecutor) CompileCommand() []string {
	return append(append([]string{e.javac}, e.classpathArgs()...), e.prefix+javaExt)
}

// RunCommand returns the java invocation for the main test class.
func (e *JavaExecutor) RunCommand() []string {
	return append(append([]string{e.java}, e.classpathArgs()...), e.prefix)
}

func (e *JavaExecutor) classpathArgs() []string {
	if len(e.classpath) == 0 {
		return nil
	}
	cp := slices.Clone(e.classpath)
	if !slices.Contains(cp, ".") {
		cp = append(cp, ".")
	}
	return []string{"-cp", strings.Join(cp, classpathSeparator)}
}

type processOutput struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	err      error
}

func (e *JavaExecutor) run(ctx context.Context, dir string, command []string, timeout time.Duration) processOutput {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // command is built from configured tool names and the test prefix
	cmd := exec.CommandContext(timeoutCtx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := processOutput{stdout: stdout.String(), stderr: stderr.String()}
	if err == nil {
		return out
	}

	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		out.timedOut = true
		out.exitCode = -1
		out.err = timeoutCtx.Err()
		return out
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.exitCode = exitErr.ExitCode()
		return out
	}

	out.exitCode = -1
	out.err = err
	return out
}
