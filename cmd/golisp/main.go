package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/clarete/golisp"
	"github.com/clarete/golisp/ascii"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "golisp",
		Short: "An embeddable Lisp runtime",
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable heap-corruption checks (LISP_DEBUG)")

	root.AddCommand(newEvalCmd(&debug))
	root.AddCommand(newReplCmd(&debug))
	root.AddCommand(newReadCmd(&debug))
	return root
}

func newContext(debug bool) *golisp.Context {
	ctx := golisp.NewContext()
	ctx.Config().SetBool(golisp.CfgDebug, debug)
	ctx.InstallBuiltins(ctx.GlobalEnv().Car())
	return ctx
}

func newEvalCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("golisp: %w", err)
				}
				defer f.Close()
				r = f
			}
			ctx := newContext(*debug)
			form, err := ctx.Read(r)
			if err != nil {
				return reportError(err)
			}
			expanded, err := ctx.Expand(form)
			if err != nil {
				return reportError(err)
			}
			result, err := ctx.Eval(expanded, ctx.GlobalEnv())
			if err != nil {
				return reportError(err)
			}
			fmt.Println(ctx.WriteString(result))
			return nil
		},
	}
}

func newReadCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "read [file]",
		Short: "Parse a file and print the resulting form without evaluating it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("golisp: %w", err)
				}
				defer f.Close()
				r = f
			}
			ctx := newContext(*debug)
			form, err := ctx.Read(r)
			if err != nil {
				return reportError(err)
			}
			fmt.Println(ctx.WriteString(form))
			return nil
		},
	}
}

func newReplCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(*debug)
		},
	}
}

func runRepl(debug bool) error {
	ctx := newContext(debug)
	theme := ascii.DefaultReplTheme

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ascii.Color(theme.Prompt, "golisp> "),
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	const continuePrompt = "      > "

	for {
		var buf strings.Builder
		rl.SetPrompt(ascii.Color(theme.Prompt, "golisp> "))

		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				buf.Reset()
				rl.SetPrompt(ascii.Color(theme.Prompt, "golisp> "))
				continue
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)

			if strings.TrimSpace(buf.String()) == "" {
				buf.Reset()
				continue
			}

			form, readErr := ctx.ReadString(buf.String())
			if readErr != nil {
				if golisp.IsIncompleteInput(readErr) {
					rl.SetPrompt(continuePrompt)
					continue
				}
				fmt.Println(ascii.Color(theme.Error, "%s", readErr))
				buf.Reset()
				rl.SetPrompt(ascii.Color(theme.Prompt, "golisp> "))
				continue
			}
			if form.IsEOF() {
				buf.Reset()
				continue
			}

			evalOneForm(ctx, form, theme)
			break
		}
	}
}

func evalOneForm(ctx *golisp.Context, form golisp.Value, theme ascii.ReplTheme) {
	expanded, err := ctx.Expand(form)
	if err != nil {
		fmt.Println(ascii.Color(theme.Error, "%s", err))
		return
	}
	result, evalErr := safeEval(ctx, expanded)
	if evalErr != nil {
		fmt.Println(ascii.Color(theme.Error, "%s", evalErr))
		return
	}
	fmt.Println(ascii.Color(theme.Result, "%s", ctx.WriteString(result)))
}

// safeEval turns a *golisp.LispError panic (the value-stack overflow
// raised by the evaluator) into an ordinary error for the REPL -- every
// other panic is re-raised and still crashes the process.
func safeEval(ctx *golisp.Context, form golisp.Value) (result golisp.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if le, ok := r.(*golisp.LispError); ok {
				err = le
				return
			}
			panic(r)
		}
	}()
	return ctx.Eval(form, ctx.GlobalEnv())
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".golisp_history"
	}
	return home + "/.golisp_history"
}

func reportError(err error) error {
	fmt.Fprintln(os.Stderr, ascii.Color(ascii.Red, "golisp: %s", err))
	return err
}
