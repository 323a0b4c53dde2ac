// Command ooze is the reference host: a `run` subcommand that executes a
// script's `main` and a `repl` subcommand for interactive use, in the
// teacher's style of a thin driver over the library (source/repl/repl.go)
// rather than a host with its own business logic.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lmorg/readline"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/env"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ooze run <file> | ooze repl")
		os.Exit(1)
	}

	registry := env.NewNativeRegistry()
	e := env.New(registry)
	executor := async.NewTaskExecutor(4)

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ooze run <file>")
			os.Exit(1)
		}
		runFile(e, executor, os.Args[2])
	case "repl":
		startRepl(e, executor)
	default:
		fmt.Fprintln(os.Stderr, "unknown subcommand:", os.Args[1])
		os.Exit(1)
	}
}

func runFile(e *env.Env, executor async.Executor, path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if es := e.ParseScripts(map[string]string{path: string(src)}); es.HasErrors() {
		fmt.Fprint(os.Stderr, es.Render(nil))
		os.Exit(1)
	}
	out, _, es := e.Run(executor, env.Bindings{}, "main(())")
	if es.HasErrors() {
		fmt.Fprint(os.Stderr, es.Render(nil))
		os.Exit(1)
	}
	for _, v := range out.Values {
		fmt.Println(v.Future().Wait())
	}
}

func startRepl(e *env.Env, executor async.Executor) {
	rline := readline.NewInstance()
	rline.SetPrompt("ooze> ")
	bindings := env.Bindings{}
	for {
		line, err := rline.Readline()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		s, newBindings, es := e.RunToString(executor, bindings, line, toString)
		if es.HasErrors() {
			fmt.Println(es.Render(nil))
			continue
		}
		bindings = newBindings
		if s != "" {
			fmt.Println(s)
		}
	}
}

// toString is the reference host's `to_string`: it only needs to cover the
// handful of value shapes this CLI's own natives ever produce.
func toString(t ast.Type, v async.Any) string {
	return fmt.Sprint(v)
}
